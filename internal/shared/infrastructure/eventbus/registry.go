package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
)

// Registry maps routing keys to consumers.
type Registry struct {
	mu        sync.RWMutex
	consumers map[string][]EventConsumer
	logger    *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		consumers: make(map[string][]EventConsumer),
		logger:    logger,
	}
}

// Register adds a consumer for each routing key it declares.
func (r *Registry) Register(consumer EventConsumer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range consumer.EventTypes() {
		r.consumers[key] = append(r.consumers[key], consumer)
		r.logger.Debug("registered event consumer", "routing_key", key)
	}
}

// Consumers returns the consumers for a routing key.
func (r *Registry) Consumers(routingKey string) []EventConsumer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]EventConsumer(nil), r.consumers[routingKey]...)
}

// RoutingKeys returns every routing key with a consumer, sorted.
func (r *Registry) RoutingKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.consumers))
	for key := range r.consumers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Dispatch hands the event to every matching consumer. All consumers run
// even when one fails; their errors are joined.
func (r *Registry) Dispatch(ctx context.Context, event *Envelope) error {
	consumers := r.Consumers(event.RoutingKey)
	if len(consumers) == 0 {
		r.logger.Debug("no consumers for event", "routing_key", event.RoutingKey)
		return nil
	}

	var errs []error
	for _, consumer := range consumers {
		if err := consumer.Handle(ctx, event); err != nil {
			r.logger.Error("consumer failed to handle event",
				"routing_key", event.RoutingKey,
				"event_id", event.EventID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
