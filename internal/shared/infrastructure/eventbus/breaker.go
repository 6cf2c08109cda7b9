package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrBreakerOpen is returned while the publish circuit is open.
var ErrBreakerOpen = errors.New("event publisher circuit open")

// BreakerConfig configures BreakerPublisher.
type BreakerConfig struct {
	FailureThreshold uint32
	Timeout          time.Duration
	// OnStateChange observes transitions, e.g. for metrics.
	OnStateChange func(from, to gobreaker.State)
}

// BreakerPublisher fails fast once the wrapped publisher keeps failing, so
// the outbox backs off instead of blocking on a dead broker.
type BreakerPublisher struct {
	next    Publisher
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerPublisher wraps next in a circuit breaker.
func NewBreakerPublisher(next Publisher, cfg BreakerConfig, logger *slog.Logger) *BreakerPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}

	settings := gobreaker.Settings{
		Name:        "event-publisher",
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(from, to)
			}
		},
	}

	return &BreakerPublisher{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

func (p *BreakerPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	_, err := p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.next.Publish(ctx, routingKey, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrBreakerOpen
	}
	return err
}

// State returns the current breaker state.
func (p *BreakerPublisher) State() gobreaker.State {
	return p.breaker.State()
}

// Ping reports an error while the circuit is open. Used by readiness checks.
func (p *BreakerPublisher) Ping(context.Context) error {
	if p.State() == gobreaker.StateOpen {
		return ErrBreakerOpen
	}
	return nil
}

func (p *BreakerPublisher) Close() error {
	return p.next.Close()
}
