// Package handlers consumes journal events delivered by the event bus.
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

type safetyAlertPayload struct {
	EntryID       uuid.UUID                 `json:"entry_id"`
	UserID        uuid.UUID                 `json:"user_id"`
	CrisisPhrases []string                  `json:"crisis_phrases"`
	Helpline      moodDomain.HelplineRecord `json:"helpline"`
}

// SafetyAlertHandler records crisis detections. Entry text never reaches it.
type SafetyAlertHandler struct {
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewSafetyAlertHandler creates a new SafetyAlertHandler.
func NewSafetyAlertHandler(logger *slog.Logger, metrics observability.Metrics) *SafetyAlertHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &SafetyAlertHandler{logger: logger, metrics: metrics}
}

func (h *SafetyAlertHandler) EventTypes() []string {
	return []string{domain.RoutingKeySafetyAlertRaised}
}

func (h *SafetyAlertHandler) Handle(ctx context.Context, event *eventbus.Envelope) error {
	var payload safetyAlertPayload
	if err := event.DecodePayload(&payload); err != nil {
		return err
	}

	h.logger.WarnContext(ctx, "safety alert raised",
		"event_id", event.EventID.String(),
		"entry_id", payload.EntryID.String(),
		"user_id", payload.UserID.String(),
		"phrase_count", len(payload.CrisisPhrases),
		"helpline_country", payload.Helpline.Country,
		"helpline", payload.Helpline.Name,
		"helpline_number", payload.Helpline.Number,
	)
	h.metrics.Counter(observability.MetricSafetyAlerts, 1,
		observability.T("country", payload.Helpline.Country))
	return nil
}
