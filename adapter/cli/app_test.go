package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/moodlens/internal/journal/application/commands"
	"github.com/felixgeelhaar/moodlens/internal/journal/application/queries"
	"github.com/felixgeelhaar/moodlens/internal/mood/domain"
	"github.com/felixgeelhaar/moodlens/pkg/observability"
)

type flusherFunc func(ctx context.Context) error

func (f flusherFunc) FlushEvents(ctx context.Context) error { return f(ctx) }

func TestNewApp_Defaults(t *testing.T) {
	app := NewApp(nil, nil, nil, nil, nil, nil, nil)

	assert.NotNil(t, app.Classifier)
	assert.Equal(t, "US", app.HelplineCountry)
	assert.Equal(t, queries.DefaultTrendLimit, app.TrendWindow)
	assert.Equal(t, commands.DefaultReclassifyWorkers, app.ReclassifyWorkers)
	assert.False(t, app.HasJournal())

	app.SetDefaults("UK", 30, 8)
	assert.Equal(t, "UK", app.HelplineCountry)
	assert.Equal(t, 30, app.TrendWindow)
	assert.Equal(t, 8, app.ReclassifyWorkers)

	app.SetDefaults("", 0, 0)
	assert.Equal(t, "UK", app.HelplineCountry)
	assert.Equal(t, 30, app.TrendWindow)
}

func TestApp_FlushEvents(t *testing.T) {
	app := &App{}
	require.NoError(t, app.FlushEvents(context.Background()))

	calls := 0
	app.SetEvents(flusherFunc(func(context.Context) error {
		calls++
		return errors.New("boom")
	}))
	assert.EqualError(t, app.FlushEvents(context.Background()), "boom")
	assert.Equal(t, 1, calls)
}

func TestHasJournal_NilApp(t *testing.T) {
	var app *App
	assert.False(t, app.HasJournal())
}

func TestParseManualMood(t *testing.T) {
	tests := []struct {
		in   string
		want *domain.Mood
		err  bool
	}{
		{in: ""},
		{in: "   "},
		{in: "Anxious", want: ptr(domain.MoodAnxious)},
		{in: "joyous", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseManualMood(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, domain.ErrInvalidMood)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRootCommand_LogsStartAndEnd(t *testing.T) {
	var logs bytes.Buffer
	SetLogger(slog.New(slog.NewJSONHandler(&logs, nil)))
	defer SetLogger(nil)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "moodlens dev")
	assert.Contains(t, logs.String(), `"msg":"command start"`)
	assert.Contains(t, logs.String(), `"msg":"command end"`)
	assert.Contains(t, logs.String(), `"duration_ms"`)
}

func ptr(m domain.Mood) *domain.Mood { return &m }

func TestHealthCommand(t *testing.T) {
	defer SetApp(nil)

	health := observability.NewHealthRegistry()
	health.Register("database", observability.PingChecker("database", observability.HealthStatusUnhealthy,
		func(context.Context) error { return nil }))
	SetApp(&App{Health: health})

	var out bytes.Buffer
	healthCmd.SetOut(&out)
	healthCmd.SetContext(context.Background())
	require.NoError(t, healthCmd.RunE(healthCmd, nil))
	assert.Contains(t, out.String(), "Status: healthy")
	assert.Contains(t, out.String(), "database")

	health.Register("redis", observability.PingChecker("redis", observability.HealthStatusUnhealthy,
		func(context.Context) error { return errors.New("refused") }))
	out.Reset()
	assert.Error(t, healthCmd.RunE(healthCmd, nil))
	assert.Contains(t, out.String(), "redis unreachable: refused")

	SetApp(nil)
	assert.Error(t, healthCmd.RunE(healthCmd, nil))
}
