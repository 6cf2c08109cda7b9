package cli

import (
	"context"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/moodlens/internal/journal/application/commands"
	"github.com/felixgeelhaar/moodlens/internal/journal/application/queries"
	"github.com/felixgeelhaar/moodlens/internal/mood/analysis"
	"github.com/felixgeelhaar/moodlens/pkg/observability"
)

// EventFlusher relays pending outbox messages once.
type EventFlusher interface {
	FlushEvents(ctx context.Context) error
}

// App holds the CLI application dependencies.
type App struct {
	Classifier *analysis.Classifier

	// Journal Command Handlers
	CreateEntryHandler       *commands.CreateEntryHandler
	ReclassifyEntriesHandler *commands.ReclassifyEntriesHandler
	DeleteEntryHandler       *commands.DeleteEntryHandler

	// Journal Query Handlers
	ListEntriesHandler  *queries.ListEntriesHandler
	GetEntryHandler     *queries.GetEntryHandler
	GetMoodTrendHandler *queries.GetMoodTrendHandler

	// Events is flushed after journal writes. Nil when a worker relays events.
	Events EventFlusher
	Health *observability.HealthRegistry

	// Defaults from configuration
	HelplineCountry   string
	TrendWindow       int
	ReclassifyWorkers int

	// Current user (configured per environment)
	CurrentUserID uuid.UUID
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(
	classifier *analysis.Classifier,
	createEntryHandler *commands.CreateEntryHandler,
	reclassifyEntriesHandler *commands.ReclassifyEntriesHandler,
	deleteEntryHandler *commands.DeleteEntryHandler,
	listEntriesHandler *queries.ListEntriesHandler,
	getEntryHandler *queries.GetEntryHandler,
	getMoodTrendHandler *queries.GetMoodTrendHandler,
) *App {
	if classifier == nil {
		classifier = analysis.NewClassifier()
	}
	return &App{
		Classifier:               classifier,
		CreateEntryHandler:       createEntryHandler,
		ReclassifyEntriesHandler: reclassifyEntriesHandler,
		DeleteEntryHandler:       deleteEntryHandler,
		ListEntriesHandler:       listEntriesHandler,
		GetEntryHandler:          getEntryHandler,
		GetMoodTrendHandler:      getMoodTrendHandler,
		HelplineCountry:          "US",
		TrendWindow:              queries.DefaultTrendLimit,
		ReclassifyWorkers:        commands.DefaultReclassifyWorkers,
	}
}

// SetCurrentUserID sets the journal owner for commands.
func (a *App) SetCurrentUserID(id uuid.UUID) {
	a.CurrentUserID = id
}

// SetEvents sets the flusher used after journal writes.
func (a *App) SetEvents(events EventFlusher) {
	a.Events = events
}

// SetHealth sets the registry behind the health command.
func (a *App) SetHealth(health *observability.HealthRegistry) {
	a.Health = health
}

// SetDefaults applies configured defaults. Zero values keep the current ones.
func (a *App) SetDefaults(country string, trendWindow, workers int) {
	if country != "" {
		a.HelplineCountry = country
	}
	if trendWindow > 0 {
		a.TrendWindow = trendWindow
	}
	if workers > 0 {
		a.ReclassifyWorkers = workers
	}
}

// FlushEvents relays pending events when a flusher is configured.
func (a *App) FlushEvents(ctx context.Context) error {
	if a.Events == nil {
		return nil
	}
	return a.Events.FlushEvents(ctx)
}

// HasJournal reports whether journal handlers are wired.
func (a *App) HasJournal() bool {
	return a != nil && a.CreateEntryHandler != nil && a.ListEntriesHandler != nil
}

var currentApp *App

// SetApp sets the global app instance.
func SetApp(a *App) {
	currentApp = a
}

// GetApp returns the global app instance.
func GetApp() *App {
	return currentApp
}
