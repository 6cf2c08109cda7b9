package mcp

import (
	"github.com/felixgeelhaar/moodlens/adapter/cli"
	"github.com/felixgeelhaar/moodlens/internal/app"
)

// NewCLIApp creates a CLI application instance backed by the provided container.
func NewCLIApp(container *app.Container) *cli.App {
	cliApp := cli.NewApp(
		container.Classifier,
		container.CreateEntryHandler,
		container.ReclassifyEntriesHandler,
		container.DeleteEntryHandler,
		container.ListEntriesHandler,
		container.GetEntryHandler,
		container.GetMoodTrendHandler,
	)

	cliApp.SetCurrentUserID(container.UserID)
	cliApp.SetEvents(container)
	cliApp.SetHealth(container.Health)
	if container.Config != nil {
		cliApp.SetDefaults(container.Config.HelplineCountry, container.Config.TrendWindow, container.Config.ReclassifyWorkers)
	}

	return cliApp
}
