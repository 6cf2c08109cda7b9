package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/moodlens/internal/app"
	"github.com/felixgeelhaar/moodlens/internal/journal/application/commands"
	"github.com/felixgeelhaar/moodlens/internal/journal/application/queries"
	moodDomain "github.com/felixgeelhaar/moodlens/internal/mood/domain"
	"github.com/felixgeelhaar/moodlens/pkg/config"
	"github.com/felixgeelhaar/moodlens/pkg/observability"
)

func newTestServer(t *testing.T, authToken string) (http.Handler, *app.Container, *bytes.Buffer) {
	t.Helper()

	cfg := &config.Config{
		AppEnv:                  "test",
		UserID:                  "00000000-0000-0000-0000-000000000007",
		EncryptionKey:           base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32)),
		DatabaseDriver:          "sqlite",
		LocalMode:               true,
		SQLitePath:              filepath.Join(t.TempDir(), "api.db"),
		TrendCacheTTL:           time.Minute,
		OutboxBatchSize:         50,
		OutboxMaxRetries:        3,
		BreakerFailureThreshold: 3,
		BreakerTimeout:          time.Second,
		ReclassifyWorkers:       2,
		HelplineCountry:         "US",
		TrendWindow:             90,
	}

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	container, err := app.NewContainer(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	handler := NewJournalHandler(JournalHandlerConfig{
		Classifier:      container.Classifier,
		CreateEntry:     container.CreateEntryHandler,
		Reclassify:      container.ReclassifyEntriesHandler,
		DeleteEntry:     container.DeleteEntryHandler,
		ListEntries:     container.ListEntriesHandler,
		GetEntry:        container.GetEntryHandler,
		GetTrend:        container.GetMoodTrendHandler,
		Flush:           container.FlushEvents,
		UserID:          container.UserID,
		HelplineCountry: cfg.HelplineCountry,
		TrendWindow:     cfg.TrendWindow,
		Workers:         cfg.ReclassifyWorkers,
		Logger:          logger,
	})

	serverCfg := DefaultServerConfig()
	serverCfg.AuthToken = authToken
	serverCfg.Health = container.Health
	return NewServer(serverCfg, handler, logger).Handler(), container, &logs
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	h, _, _ := newTestServer(t, "")

	rec := do(t, h, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	report := decode[observability.OverallHealth](t, rec)
	assert.Contains(t, report.Checks, "database")
}

func TestClassify(t *testing.T) {
	h, _, _ := newTestServer(t, "")

	tests := []struct {
		name         string
		body         string
		wantStatus   int
		wantMood     moodDomain.Mood
		wantHelpline string
	}{
		{
			name:       "positive text",
			body:       `{"text": "I feel so happy and grateful today, thank you!"}`,
			wantStatus: http.StatusOK,
			wantMood:   moodDomain.MoodHappy,
		},
		{
			name:       "manual override",
			body:       `{"text": "I feel so happy and grateful today, thank you!", "manual_mood": "calm"}`,
			wantStatus: http.StatusOK,
			wantMood:   moodDomain.MoodCalm,
		},
		{
			name:         "crisis text uses requested country",
			body:         `{"text": "I want to end my life", "country": "UK"}`,
			wantStatus:   http.StatusOK,
			wantMood:     moodDomain.MoodSad,
			wantHelpline: "Samaritans",
		},
		{
			name:       "invalid manual mood",
			body:       `{"text": "fine", "manual_mood": "ecstatic"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty text is neutral",
			body:       `{"text": ""}`,
			wantStatus: http.StatusOK,
			wantMood:   moodDomain.MoodNeutral,
		},
		{
			name:       "blank text is neutral",
			body:       `{"text": "   "}`,
			wantStatus: http.StatusOK,
			wantMood:   moodDomain.MoodNeutral,
		},
		{
			name:       "absent text is neutral",
			body:       `{}`,
			wantStatus: http.StatusOK,
			wantMood:   moodDomain.MoodNeutral,
		},
		{
			name:       "unknown field",
			body:       `{"txt": "hello"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/classify", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				errBody := decode[map[string]string](t, rec)
				assert.Equal(t, http.StatusText(tt.wantStatus), errBody["error"])
				return
			}

			resp := decode[classifyResponse](t, rec)
			assert.Equal(t, tt.wantMood, resp.EffectiveMood)
			if tt.wantMood == moodDomain.MoodNeutral {
				assert.Zero(t, resp.Confidence)
			}
			if tt.wantHelpline == "" {
				assert.Nil(t, resp.Helpline)
			} else {
				require.NotNil(t, resp.Helpline)
				assert.Equal(t, tt.wantHelpline, resp.Helpline.Name)
			}
		})
	}
}

func TestHelplines(t *testing.T) {
	h, _, _ := newTestServer(t, "")

	rec := do(t, h, http.MethodGet, "/api/v1/helplines", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]moodDomain.HelplineRecord](t, rec), len(moodDomain.HelplineCountries()))

	rec = do(t, h, http.MethodGet, "/api/v1/helplines/ca", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CA", decode[moodDomain.HelplineRecord](t, rec).Country)

	rec = do(t, h, http.MethodGet, "/api/v1/helplines/zz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, moodDomain.DefaultHelplineCountry, decode[moodDomain.HelplineRecord](t, rec).Country)
}

func TestJournalRoutes(t *testing.T) {
	h, container, logs := newTestServer(t, "")

	texts := []string{
		"Spent the morning in the garden, feeling calm and peaceful",
		"The garden looks great, I am happy with the roses",
		"I feel sad and lonely in the garden tonight",
	}
	var ids []string
	for _, text := range texts {
		rec := do(t, h, http.MethodPost, "/api/v1/entries", fmt.Sprintf(`{"content": %q, "tags": ["home"]}`, text))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		created := decode[commands.CreateEntryResult](t, rec)
		assert.Nil(t, created.Helpline)
		ids = append(ids, created.EntryID.String())
	}

	t.Run("list", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/v1/entries?limit=2", "")
		require.Equal(t, http.StatusOK, rec.Code)
		page := decode[queries.ListEntriesResult](t, rec)
		assert.Equal(t, 3, page.Total)
		assert.Len(t, page.Entries, 2)
	})

	t.Run("list by mood", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/v1/entries?mood=sad", "")
		require.Equal(t, http.StatusOK, rec.Code)
		page := decode[queries.ListEntriesResult](t, rec)
		for _, entry := range page.Entries {
			assert.Equal(t, moodDomain.MoodSad, entry.Mood)
		}

		rec = do(t, h, http.MethodGet, "/api/v1/entries?mood=bogus", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/v1/entries/"+ids[0], "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, texts[0], decode[queries.EntryDTO](t, rec).Content)

		rec = do(t, h, http.MethodGet, "/api/v1/entries/not-a-uuid", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = do(t, h, http.MethodGet, "/api/v1/entries/00000000-0000-0000-0000-0000000000ff", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("trend", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/v1/trend", "")
		require.Equal(t, http.StatusOK, rec.Code)
		report := decode[queries.TrendReport](t, rec)
		assert.Equal(t, 3, report.EntryCount)
		require.NotEmpty(t, report.Themes)
		assert.Equal(t, "garden", report.Themes[0].Term)
	})

	t.Run("reclassify", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/v1/reclassify?workers=3", "")
		require.Equal(t, http.StatusOK, rec.Code)
		result := decode[commands.ReclassifyEntriesResult](t, rec)
		assert.Equal(t, 3, result.Processed)
		assert.Equal(t, 0, result.Changed)
	})

	t.Run("delete", func(t *testing.T) {
		rec := do(t, h, http.MethodDelete, "/api/v1/entries/"+ids[2], "")
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = do(t, h, http.MethodDelete, "/api/v1/entries/"+ids[2], "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("empty content", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/v1/entries", `{"content": ""}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("crisis entry raises a safety alert", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/v1/entries", `{"content": "I want to end my life", "country": "AU"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		created := decode[commands.CreateEntryResult](t, rec)
		require.NotNil(t, created.Helpline)
		assert.Equal(t, "AU", created.Helpline.Country)

		alerts := container.Metrics.GetCounter(observability.MetricSafetyAlerts, observability.T("country", "AU"))
		assert.Equal(t, int64(1), alerts)
		assert.NotContains(t, logs.String(), "end my life")
	})
}

func TestJournalRoutes_WithoutStorage(t *testing.T) {
	handler := NewJournalHandler(JournalHandlerConfig{})
	h := NewServer(DefaultServerConfig(), handler, nil).Handler()

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/entries"},
		{http.MethodPost, "/api/v1/entries"},
		{http.MethodGet, "/api/v1/trend"},
		{http.MethodPost, "/api/v1/reclassify"},
	} {
		rec := do(t, h, route.method, route.path, `{"content": "x"}`)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, route.path)
	}

	rec := do(t, h, http.MethodPost, "/api/v1/classify", `{"text": "I feel calm"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth(t *testing.T) {
	h, _, _ := newTestServer(t, "s3cret")

	rec := do(t, h, http.MethodGet, "/api/v1/helplines", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/helplines", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	wrong := httptest.NewRecorder()
	h.ServeHTTP(wrong, req)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/helplines", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	ok := httptest.NewRecorder()
	h.ServeHTTP(ok, req)
	assert.Equal(t, http.StatusOK, ok.Code)

	// health stays open without a token
	rec = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestLogging(t *testing.T) {
	h, _, logs := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", strings.NewReader(`{"text": "my secret diary"}`))
	req.Header.Set("X-Correlation-ID", "corr-123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := logs.String()
	assert.Contains(t, out, `"msg":"http request"`)
	assert.Contains(t, out, "/api/v1/classify")
	assert.NotContains(t, out, "my secret diary")
}
