package mcp

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/moodlens/adapter/cli"
	"github.com/felixgeelhaar/moodlens/internal/mood/analysis"
	"github.com/felixgeelhaar/moodlens/internal/mood/domain"
)

type moodClassifyInput struct {
	Text       string `json:"text"`
	ManualMood string `json:"manual_mood,omitempty"`
	Country    string `json:"country,omitempty"`
}

type moodClassifyOutput struct {
	domain.ClassificationResult
	EffectiveMood domain.Mood            `json:"effective_mood"`
	Helpline      *domain.HelplineRecord `json:"helpline,omitempty"`
}

type moodHelplineInput struct {
	Country string `json:"country,omitempty"`
}

func registerMoodTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("mood.classify").
		Description("Classify the mood of a piece of text without storing it. Crisis language returns a helpline.").
		Handler(func(ctx context.Context, input moodClassifyInput) (*moodClassifyOutput, error) {
			return classifyText(app, input)
		})

	srv.Tool("mood.helpline").
		Description("Crisis helpline for a country code (US, UK, CA, AU, IN). Unknown codes fall back to US.").
		Handler(func(ctx context.Context, input moodHelplineInput) (domain.HelplineRecord, error) {
			return domain.HelplineInfo(countryOrDefault(app, input.Country)), nil
		})

	return nil
}

func classifyText(app *cli.App, input moodClassifyInput) (*moodClassifyOutput, error) {
	manual, err := cli.ParseManualMood(input.ManualMood)
	if err != nil {
		return nil, err
	}

	classifier := app.Classifier
	if classifier == nil {
		classifier = analysis.NewClassifier()
	}

	result := classifier.Classify(input.Text, manual)
	out := &moodClassifyOutput{ClassificationResult: result, EffectiveMood: result.EffectiveMood()}
	if result.SelfHarmDetected {
		helpline := domain.HelplineInfo(countryOrDefault(app, input.Country))
		out.Helpline = &helpline
	}
	return out, nil
}

func countryOrDefault(app *cli.App, country string) string {
	if strings.TrimSpace(country) != "" {
		return country
	}
	if app != nil && app.HelplineCountry != "" {
		return app.HelplineCountry
	}
	return "US"
}
