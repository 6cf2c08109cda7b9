package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/moodlens/internal/journal/domain"
	"github.com/felixgeelhaar/moodlens/internal/mood/analysis"
	moodDomain "github.com/felixgeelhaar/moodlens/internal/mood/domain"
	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/moodlens/pkg/observability"
)

const crisisText = "I want to end my life, my secret diary"

func envelopesFor(t *testing.T, entry *domain.JournalEntry) map[string]*eventbus.Envelope {
	t.Helper()
	out := make(map[string]*eventbus.Envelope)
	for _, event := range entry.DomainEvents() {
		envelope, err := eventbus.NewEnvelope(event)
		require.NoError(t, err)

		// Round-trip through JSON the way the outbox stores it.
		raw, err := json.Marshal(envelope)
		require.NoError(t, err)
		decoded := &eventbus.Envelope{}
		require.NoError(t, json.Unmarshal(raw, decoded))
		out[decoded.RoutingKey] = decoded
	}
	return out
}

func newCrisisEntry(t *testing.T) *domain.JournalEntry {
	t.Helper()
	entry, err := domain.NewJournalEntry(uuid.New(), "private", crisisText, nil,
		analysis.Classify(crisisText, nil), "CA")
	require.NoError(t, err)
	return entry
}

func TestSafetyAlertHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	metrics := observability.NewInMemoryMetrics()
	handler := NewSafetyAlertHandler(logger, metrics)

	entry := newCrisisEntry(t)
	envelope := envelopesFor(t, entry)[domain.RoutingKeySafetyAlertRaised]
	require.NotNil(t, envelope)

	require.NoError(t, handler.Handle(context.Background(), envelope))

	assert.Equal(t, []string{domain.RoutingKeySafetyAlertRaised}, handler.EventTypes())
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricSafetyAlerts, observability.T("country", "CA")))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, entry.ID().String(), record["entry_id"])
	assert.Equal(t, entry.UserID().String(), record["user_id"])
	assert.Equal(t, "CA", record["helpline_country"])
	assert.NotContains(t, buf.String(), "secret diary")
	assert.NotContains(t, buf.String(), "end my life")
}

func TestSafetyAlertHandler_RejectsBadPayload(t *testing.T) {
	handler := NewSafetyAlertHandler(nil, nil)
	err := handler.Handle(context.Background(), &eventbus.Envelope{
		RoutingKey: domain.RoutingKeySafetyAlertRaised,
		Payload:    json.RawMessage(`"not an object"`),
	})
	assert.Error(t, err)
}

func TestEntryActivityHandler_Handle(t *testing.T) {
	metrics := observability.NewInMemoryMetrics()
	handler := NewEntryActivityHandler(nil, metrics)

	entry := newCrisisEntry(t)
	envelope := envelopesFor(t, entry)[domain.RoutingKeyEntryCreated]
	require.NotNil(t, envelope)

	require.NoError(t, handler.Handle(context.Background(), envelope))
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricEventsConsumed,
		observability.T("routing_key", domain.RoutingKeyEntryCreated),
		observability.T("mood", string(moodDomain.MoodSad))))
}

func TestHandlers_RegisterOnBus(t *testing.T) {
	metrics := observability.NewInMemoryMetrics()
	bus := eventbus.NewInProcessBus(nil)
	bus.RegisterConsumer(NewSafetyAlertHandler(nil, metrics))
	bus.RegisterConsumer(NewEntryActivityHandler(nil, metrics))

	entry := newCrisisEntry(t)
	for _, event := range entry.DomainEvents() {
		envelope, err := eventbus.NewEnvelope(event)
		require.NoError(t, err)
		raw, err := json.Marshal(envelope)
		require.NoError(t, err)
		require.NoError(t, bus.Publish(context.Background(), event.RoutingKey(), raw))
	}

	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricSafetyAlerts, observability.T("country", "CA")))
}
