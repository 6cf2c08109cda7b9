package commands

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/moodlens/internal/journal/domain"
	"github.com/felixgeelhaar/moodlens/pkg/observability"
)

// DeleteEntryCommand removes one of the user's entries.
type DeleteEntryCommand struct {
	UserID  uuid.UUID
	EntryID uuid.UUID
}

// DeleteEntryHandler handles the DeleteEntryCommand.
type DeleteEntryHandler struct {
	entryRepo domain.Repository
	cache     TrendInvalidator
	metrics   observability.Metrics
	logger    *slog.Logger
}

// NewDeleteEntryHandler creates a new DeleteEntryHandler.
func NewDeleteEntryHandler(entryRepo domain.Repository, cache TrendInvalidator, metrics observability.Metrics, logger *slog.Logger) *DeleteEntryHandler {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &DeleteEntryHandler{
		entryRepo: entryRepo,
		cache:     cache,
		metrics:   metrics,
		logger:    loggerOrDefault(logger),
	}
}

// Handle deletes the entry. Entries owned by someone else are reported as not found.
func (h *DeleteEntryHandler) Handle(ctx context.Context, cmd DeleteEntryCommand) error {
	entry, err := h.entryRepo.FindByID(ctx, cmd.EntryID)
	if err != nil {
		return err
	}
	if !entry.IsOwnedBy(cmd.UserID) {
		return domain.ErrEntryNotFound
	}

	if err := h.entryRepo.Delete(ctx, cmd.EntryID); err != nil {
		return err
	}

	invalidateTrend(ctx, h.cache, h.logger, cmd.UserID)
	h.metrics.Counter(observability.MetricEntriesDeleted, 1)
	return nil
}
