package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/moodlens/internal/journal/application/queries"
	"github.com/felixgeelhaar/moodlens/internal/mood/domain"
)

// RegisterPrompts registers MCP prompts for journaling workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	app := deps.App

	srv.Prompt("weekly_reflection").
		Description("Reflect on the past week of journaling using the current mood trend, insights and recurring themes.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			report, err := moodTrend(ctx, app, 0)
			if err != nil {
				return nil, err
			}
			return &mcp.PromptResult{
				Description: "Weekly Reflection",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: reflectionPrompt(report),
						},
					},
				},
			}, nil
		})

	return nil
}

func reflectionPrompt(report *queries.TrendReport) string {
	var b strings.Builder
	b.WriteString("Help me reflect on my recent journal entries.\n\n")

	if report == nil || report.EntryCount == 0 {
		b.WriteString("I have not written any entries yet. Suggest three gentle prompts to start journaling this week.")
		return b.String()
	}

	fmt.Fprintf(&b, "Across my last %d entries my dominant mood was %s and the trend is %s.\n",
		report.EntryCount, report.DominantMood, report.TrendDirection)

	b.WriteString("\nMood distribution:\n")
	for _, m := range domain.AllMoods() {
		if n := report.MoodDistribution[m]; n > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", m, n)
		}
	}

	if len(report.Insights) > 0 {
		b.WriteString("\nObservations:\n")
		for _, insight := range report.Insights {
			fmt.Fprintf(&b, "- %s\n", insight)
		}
	}

	if len(report.Themes) > 0 {
		terms := make([]string, len(report.Themes))
		for i, theme := range report.Themes {
			terms[i] = theme.Term
		}
		fmt.Fprintf(&b, "\nRecurring themes: %s\n", strings.Join(terms, ", "))
	}

	b.WriteString(`
Please:
- Name what seems to lift my mood and what weighs on it
- Point out how the recurring themes relate to my moods
- Suggest one small, concrete thing to try next week
- Ask me one open question to journal about

Keep the tone warm and non-judgmental. If anything suggests I am in crisis,
share the helpline from moodlens://helplines first.`)
	return b.String()
}
