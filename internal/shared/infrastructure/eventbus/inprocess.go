package eventbus

import (
	"context"
	"log/slog"
	"time"
)

// InProcessBus delivers envelopes synchronously to local consumers. It is the
// publisher when no RabbitMQ URL is configured.
type InProcessBus struct {
	registry *Registry
	logger   *slog.Logger
}

// NewInProcessBus creates an in-process bus.
func NewInProcessBus(logger *slog.Logger) *InProcessBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessBus{registry: NewRegistry(logger), logger: logger}
}

// RegisterConsumer subscribes a consumer.
func (b *InProcessBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Publish decodes and dispatches the envelope. Undecodable payloads are
// logged and dropped; consumer failures are returned so the outbox retries.
func (b *InProcessBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	event, err := decodeEnvelope(routingKey, payload)
	if err != nil {
		b.logger.Error("dropping undecodable event", "routing_key", routingKey, "error", err)
		return nil
	}

	start := time.Now()
	if err := b.registry.Dispatch(ctx, event); err != nil {
		return err
	}
	b.logger.Debug("event dispatched",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Close is a no-op.
func (b *InProcessBus) Close() error { return nil }

// NoopPublisher discards events. Used by one-shot CLI commands that leave
// delivery to the worker.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, []byte) error { return nil }
func (NoopPublisher) Close() error                                  { return nil }
