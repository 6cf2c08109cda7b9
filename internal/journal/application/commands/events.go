package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/moodlens/internal/journal/domain"
	sharedApplication "github.com/felixgeelhaar/moodlens/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/moodlens/internal/shared/domain"
	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/outbox"
)

// TrendInvalidator drops a user's cached trend report after a write.
type TrendInvalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// enqueueEvents writes the pending events of entries to the outbox and
// returns how many safety alerts were among them. Must run inside the
// unit of work that saved the entries.
func enqueueEvents(ctx context.Context, outboxRepo outbox.Repository, userID uuid.UUID, entries ...*domain.JournalEntry) (int, error) {
	var events []sharedDomain.DomainEvent
	for _, entry := range entries {
		events = append(events, entry.PullDomainEvents()...)
	}
	if len(events) == 0 {
		return 0, nil
	}

	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(ctx, userID))

	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return 0, fmt.Errorf("serialize events: %w", err)
	}
	if err := outboxRepo.SaveBatch(ctx, msgs); err != nil {
		return 0, fmt.Errorf("save outbox messages: %w", err)
	}

	alerts := 0
	for _, event := range events {
		if event.RoutingKey() == domain.RoutingKeySafetyAlertRaised {
			alerts++
		}
	}
	return alerts, nil
}

// invalidateTrend runs after commit. A failure leaves a stale report until
// the TTL expires, so it is logged rather than returned.
func invalidateTrend(ctx context.Context, cache TrendInvalidator, logger *slog.Logger, userID uuid.UUID) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, userID); err != nil {
		logger.WarnContext(ctx, "trend cache invalidation failed",
			"user_id", userID.String(),
			"error", err,
		)
	}
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
