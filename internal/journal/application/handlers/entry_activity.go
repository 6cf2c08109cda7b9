package handlers

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/moodlens/internal/journal/domain"
	moodDomain "github.com/felixgeelhaar/moodlens/internal/mood/domain"
	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/moodlens/pkg/observability"
)

type entryActivityPayload struct {
	EntryID      uuid.UUID       `json:"entry_id"`
	UserID       uuid.UUID       `json:"user_id"`
	Mood         moodDomain.Mood `json:"mood"`
	PreviousMood moodDomain.Mood `json:"previous_mood,omitempty"`
}

// EntryActivityHandler counts created and reclassified entries per mood.
type EntryActivityHandler struct {
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewEntryActivityHandler creates a new EntryActivityHandler.
func NewEntryActivityHandler(logger *slog.Logger, metrics observability.Metrics) *EntryActivityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &EntryActivityHandler{logger: logger, metrics: metrics}
}

func (h *EntryActivityHandler) EventTypes() []string {
	return []string{domain.RoutingKeyEntryCreated, domain.RoutingKeyEntryReclassified}
}

func (h *EntryActivityHandler) Handle(ctx context.Context, event *eventbus.Envelope) error {
	var payload entryActivityPayload
	if err := event.DecodePayload(&payload); err != nil {
		return err
	}

	attrs := []any{
		"routing_key", event.RoutingKey,
		"entry_id", payload.EntryID.String(),
		"mood", payload.Mood,
	}
	if payload.PreviousMood != "" {
		attrs = append(attrs, "previous_mood", payload.PreviousMood)
	}
	h.logger.DebugContext(ctx, "journal event consumed", attrs...)

	h.metrics.Counter(observability.MetricEventsConsumed, 1,
		observability.T("routing_key", event.RoutingKey),
		observability.T("mood", string(payload.Mood)))
	return nil
}
