package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/moodlens/internal/journal/domain"
	"github.com/felixgeelhaar/moodlens/internal/mood/analysis"
	moodDomain "github.com/felixgeelhaar/moodlens/internal/mood/domain"
	sharedApplication "github.com/felixgeelhaar/moodlens/internal/shared/application"
	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/moodlens/pkg/observability"
)

// DefaultReclassifyWorkers is used when the command does not set Workers.
const DefaultReclassifyWorkers = 4

// ReclassifyEntriesCommand re-runs the classifier over a user's journal.
type ReclassifyEntriesCommand struct {
	UserID  uuid.UUID
	Workers int
	Country string
}

// ReclassifyEntriesResult summarises a reclassification run.
type ReclassifyEntriesResult struct {
	Processed    int `json:"processed"`
	Changed      int `json:"changed"`
	SafetyAlerts int `json:"safety_alerts"`
}

// ReclassifyEntriesHandler handles the ReclassifyEntriesCommand.
type ReclassifyEntriesHandler struct {
	entryRepo  domain.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	classifier *analysis.Classifier
	cache      TrendInvalidator
	metrics    observability.Metrics
	logger     *slog.Logger
}

// NewReclassifyEntriesHandler creates a new ReclassifyEntriesHandler.
func NewReclassifyEntriesHandler(
	entryRepo domain.Repository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	classifier *analysis.Classifier,
	cache TrendInvalidator,
	metrics observability.Metrics,
	logger *slog.Logger,
) *ReclassifyEntriesHandler {
	if classifier == nil {
		classifier = analysis.NewClassifier()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &ReclassifyEntriesHandler{
		entryRepo:  entryRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
		classifier: classifier,
		cache:      cache,
		metrics:    metrics,
		logger:     loggerOrDefault(logger),
	}
}

// Handle classifies every entry again and saves the ones whose result changed.
func (h *ReclassifyEntriesHandler) Handle(ctx context.Context, cmd ReclassifyEntriesCommand) (*ReclassifyEntriesResult, error) {
	timer := observability.StartTimer(OperationReclassifyEntries).WithLogger(h.logger).WithMetrics(h.metrics)
	result, err := h.handle(ctx, cmd)
	timer.StopWithError(err)
	return result, err
}

func (h *ReclassifyEntriesHandler) handle(ctx context.Context, cmd ReclassifyEntriesCommand) (*ReclassifyEntriesResult, error) {
	entries, err := h.entryRepo.FindByUser(ctx, cmd.UserID, domain.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	workers := cmd.Workers
	if workers <= 0 {
		workers = DefaultReclassifyWorkers
	}

	results := make([]moodDomain.ClassificationResult, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, entry := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = h.classifier.Classify(entry.Content(), entry.ManualMood())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var changed []*domain.JournalEntry
	for i, entry := range entries {
		if entry.Reclassify(results[i], cmd.Country) {
			changed = append(changed, entry)
		}
	}

	result := &ReclassifyEntriesResult{Processed: len(entries), Changed: len(changed)}
	if len(changed) == 0 {
		return result, nil
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		for _, entry := range changed {
			if err := h.entryRepo.Save(txCtx, entry); err != nil {
				return fmt.Errorf("save entry %s: %w", entry.ID(), err)
			}
		}
		alerts, err := enqueueEvents(txCtx, h.outboxRepo, cmd.UserID, changed...)
		if err != nil {
			return err
		}
		result.SafetyAlerts = alerts
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateTrend(ctx, h.cache, h.logger, cmd.UserID)
	h.metrics.Counter(observability.MetricReclassified, int64(result.Changed))
	h.logger.InfoContext(ctx, "journal reclassified",
		"user_id", cmd.UserID.String(),
		"processed", result.Processed,
		"changed", result.Changed,
		"safety_alerts", result.SafetyAlerts,
	)
	return result, nil
}
