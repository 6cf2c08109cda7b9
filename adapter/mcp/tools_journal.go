package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/moodlens/adapter/cli"
	"github.com/felixgeelhaar/moodlens/internal/journal/application/commands"
	"github.com/felixgeelhaar/moodlens/internal/journal/application/queries"
	"github.com/felixgeelhaar/moodlens/internal/mood/domain"
)

type journalAddInput struct {
	Title      string   `json:"title,omitempty"`
	Content    string   `json:"content" jsonschema:"required"`
	ManualMood string   `json:"manual_mood,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Country    string   `json:"country,omitempty"`
}

type journalListInput struct {
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
	Mood   string `json:"mood,omitempty"`
}

type journalTrendInput struct {
	Limit int `json:"limit,omitempty"`
}

type journalReclassifyInput struct {
	Workers int `json:"workers,omitempty"`
}

func registerJournalTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("journal.add").
		Description("Write a journal entry. The mood is classified and a helpline is returned on crisis language.").
		Handler(func(ctx context.Context, input journalAddInput) (*commands.CreateEntryResult, error) {
			return addEntry(ctx, app, input)
		})

	srv.Tool("journal.list").
		Description("List journal entries, newest first, optionally filtered by mood").
		Handler(func(ctx context.Context, input journalListInput) (*queries.ListEntriesResult, error) {
			return listEntries(ctx, app, input)
		})

	srv.Tool("journal.trend").
		Description("Mood trend, distribution, insights and recurring themes over recent entries").
		Handler(func(ctx context.Context, input journalTrendInput) (*queries.TrendReport, error) {
			return moodTrend(ctx, app, input.Limit)
		})

	srv.Tool("journal.reclassify").
		Description("Re-run the classifier over every entry and save changed classifications").
		Handler(func(ctx context.Context, input journalReclassifyInput) (*commands.ReclassifyEntriesResult, error) {
			if app == nil || app.ReclassifyEntriesHandler == nil {
				return nil, errNoJournal
			}
			workers := input.Workers
			if workers <= 0 {
				workers = app.ReclassifyWorkers
			}
			result, err := app.ReclassifyEntriesHandler.Handle(ctx, commands.ReclassifyEntriesCommand{
				UserID:  app.CurrentUserID,
				Workers: workers,
				Country: app.HelplineCountry,
			})
			if err != nil {
				return nil, err
			}
			if err := app.FlushEvents(ctx); err != nil {
				return nil, err
			}
			return result, nil
		})

	return nil
}

func addEntry(ctx context.Context, app *cli.App, input journalAddInput) (*commands.CreateEntryResult, error) {
	if app == nil || app.CreateEntryHandler == nil {
		return nil, errNoJournal
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, errors.New("content is required")
	}
	manual, err := cli.ParseManualMood(input.ManualMood)
	if err != nil {
		return nil, err
	}

	result, err := app.CreateEntryHandler.Handle(ctx, commands.CreateEntryCommand{
		UserID:     app.CurrentUserID,
		Title:      input.Title,
		Content:    input.Content,
		ManualMood: manual,
		Tags:       input.Tags,
		Country:    countryOrDefault(app, input.Country),
	})
	if err != nil {
		return nil, err
	}
	if err := app.FlushEvents(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

func listEntries(ctx context.Context, app *cli.App, input journalListInput) (*queries.ListEntriesResult, error) {
	if app == nil || app.ListEntriesHandler == nil {
		return nil, errNoJournal
	}
	query := queries.ListEntriesQuery{
		UserID: app.CurrentUserID,
		Limit:  input.Limit,
		Offset: input.Offset,
	}
	if input.Mood != "" {
		m, err := domain.ParseMood(input.Mood)
		if err != nil {
			return nil, err
		}
		query.Mood = &m
	}
	return app.ListEntriesHandler.Handle(ctx, query)
}

func moodTrend(ctx context.Context, app *cli.App, limit int) (*queries.TrendReport, error) {
	if app == nil || app.GetMoodTrendHandler == nil {
		return nil, errNoJournal
	}
	if limit <= 0 {
		limit = app.TrendWindow
	}
	return app.GetMoodTrendHandler.Handle(ctx, queries.GetMoodTrendQuery{
		UserID: app.CurrentUserID,
		Limit:  limit,
	})
}
