package queries

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/moodlens/internal/journal/domain"
	"github.com/felixgeelhaar/moodlens/internal/mood/analysis"
	moodDomain "github.com/felixgeelhaar/moodlens/internal/mood/domain"
	"github.com/felixgeelhaar/moodlens/pkg/observability"
)

// Trend report defaults.
const (
	DefaultTrendLimit = 90
	DefaultThemeLimit = 5
	DefaultTrendTTL   = 10 * time.Minute
)

// TrendReport is the cached answer to GetMoodTrendQuery.
type TrendReport struct {
	moodDomain.TrendSummary
	Themes      []analysis.Theme `json:"themes"`
	EntryCount  int              `json:"entry_count"`
	Limit       int              `json:"limit"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// TrendCache stores trend reports per user, generation and history limit.
// Invalidate moves the user to a new generation, so a report computed
// before a write can never be stored where later reads look.
type TrendCache interface {
	// Generation returns the user's current cache generation.
	Generation(ctx context.Context, userID uuid.UUID) (int64, error)
	// Get reports a miss with ok=false and a nil error.
	Get(ctx context.Context, userID uuid.UUID, generation int64, limit int) (report *TrendReport, ok bool, err error)
	// Set stores a report computed while generation was current. Reports
	// for a superseded generation are never served.
	Set(ctx context.Context, userID uuid.UUID, generation int64, limit int, report *TrendReport, ttl time.Duration) error
	// Invalidate drops every cached report of the user.
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// GetMoodTrendQuery asks for the trend over the newest Limit entries.
type GetMoodTrendQuery struct {
	UserID uuid.UUID
	Limit  int
}

// GetMoodTrendHandler handles the GetMoodTrendQuery.
type GetMoodTrendHandler struct {
	entryRepo  domain.Repository
	cache      TrendCache
	ttl        time.Duration
	themeLimit int
	metrics    observability.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// NewGetMoodTrendHandler creates a new GetMoodTrendHandler. A nil cache
// computes every report.
func NewGetMoodTrendHandler(
	entryRepo domain.Repository,
	cache TrendCache,
	ttl time.Duration,
	metrics observability.Metrics,
	logger *slog.Logger,
) *GetMoodTrendHandler {
	if ttl <= 0 {
		ttl = DefaultTrendTTL
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GetMoodTrendHandler{
		entryRepo:  entryRepo,
		cache:      cache,
		ttl:        ttl,
		themeLimit: DefaultThemeLimit,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Handle returns the cached report when there is one.
func (h *GetMoodTrendHandler) Handle(ctx context.Context, query GetMoodTrendQuery) (*TrendReport, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultTrendLimit
	}

	generation, cacheable := h.cachedGeneration(ctx, query.UserID)
	if cacheable {
		report, ok, err := h.cache.Get(ctx, query.UserID, generation, limit)
		switch {
		case err != nil:
			h.logger.WarnContext(ctx, "trend cache read failed", "user_id", query.UserID.String(), "error", err)
		case ok:
			h.metrics.Counter(observability.MetricTrendCacheHits, 1)
			return report, nil
		}
		h.metrics.Counter(observability.MetricTrendCacheMisses, 1)
	}

	entries, err := h.entryRepo.RecentEntries(ctx, query.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("load recent entries: %w", err)
	}

	texts := make([]string, 0, len(entries))
	for _, entry := range entries {
		texts = append(texts, entry.Content())
	}

	report := &TrendReport{
		TrendSummary: analysis.AnalyzeTrend(domain.MoodHistory(entries)),
		Themes:       analysis.ExtractThemes(texts, h.themeLimit),
		EntryCount:   len(entries),
		Limit:        limit,
		GeneratedAt:  h.now().UTC(),
	}

	if cacheable {
		if err := h.cache.Set(ctx, query.UserID, generation, limit, report, h.ttl); err != nil {
			h.logger.WarnContext(ctx, "trend cache write failed", "user_id", query.UserID.String(), "error", err)
		}
	}
	return report, nil
}

// cachedGeneration is read before loading entries. Without it the report
// is computed but not cached.
func (h *GetMoodTrendHandler) cachedGeneration(ctx context.Context, userID uuid.UUID) (int64, bool) {
	if h.cache == nil {
		return 0, false
	}
	generation, err := h.cache.Generation(ctx, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "trend cache read failed", "user_id", userID.String(), "error", err)
		h.metrics.Counter(observability.MetricTrendCacheMisses, 1)
		return 0, false
	}
	return generation, true
}
