package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/moodlens/internal/mood/domain"
)

type moodInfo struct {
	Mood    domain.Mood    `json:"mood"`
	Valence domain.Valence `json:"valence"`
}

// RegisterResources registers MCP resources that expose MoodLens data.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	app := deps.App

	srv.Resource("moodlens://moods").
		Name("Moods").
		Description("The mood enumeration in tie-break order, with valence").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			return jsonResource(uri, moodCatalog())
		})

	srv.Resource("moodlens://helplines").
		Name("Helplines").
		Description("Crisis helplines by country").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			return jsonResource(uri, domain.Helplines())
		})

	srv.Resource("moodlens://journal/trend").
		Name("Mood Trend").
		Description("Current mood trend report for the journal owner").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			report, err := moodTrend(ctx, app, 0)
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, report)
		})

	return nil
}

func moodCatalog() []moodInfo {
	moods := domain.AllMoods()
	out := make([]moodInfo, len(moods))
	for i, m := range moods {
		out[i] = moodInfo{Mood: m, Valence: m.Valence()}
	}
	return out
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
