// Package eventbus moves serialized domain events between the outbox and
// their consumers, over RabbitMQ or in process.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/moodlens/internal/shared/domain"
)

// Publisher sends a serialized envelope to the bus.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}

// EventConsumer handles a set of routing keys.
type EventConsumer interface {
	EventTypes() []string
	Handle(ctx context.Context, event *Envelope) error
}

// Envelope is the wire form of a domain event. Payload holds the concrete
// event fields.
type Envelope struct {
	EventID       uuid.UUID            `json:"event_id"`
	AggregateID   uuid.UUID            `json:"aggregate_id"`
	AggregateType string               `json:"aggregate_type"`
	RoutingKey    string               `json:"routing_key"`
	OccurredAt    time.Time            `json:"occurred_at"`
	Payload       json.RawMessage      `json:"payload"`
	Metadata      domain.EventMetadata `json:"metadata"`
}

// NewEnvelope wraps a domain event for transport.
func NewEnvelope(event domain.DomainEvent) (*Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event.RoutingKey(), err)
	}
	return &Envelope{
		EventID:       event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		RoutingKey:    event.RoutingKey(),
		OccurredAt:    event.OccurredAt(),
		Payload:       payload,
		Metadata:      event.Metadata(),
	}, nil
}

// DecodePayload unmarshals the event fields into v.
func (e *Envelope) DecodePayload(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.RoutingKey, err)
	}
	return nil
}

// decodeEnvelope parses a message body, falling back to routingKey when the
// body carries none.
func decodeEnvelope(routingKey string, body []byte) (*Envelope, error) {
	event := &Envelope{}
	if err := json.Unmarshal(body, event); err != nil {
		return nil, err
	}
	if event.RoutingKey == "" {
		event.RoutingKey = routingKey
	}
	return event, nil
}
