package outbox

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/moodlens/pkg/observability"
)

// ProcessorConfig holds configuration for the outbox processor.
type ProcessorConfig struct {
	PollInterval     time.Duration
	BatchSize        int
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
}

// DefaultProcessorConfig returns the worker defaults.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     500 * time.Millisecond,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
	}
}

// Stats is a snapshot of processor activity.
type Stats struct {
	Running         bool
	PublishedCount  uint64
	FailedCount     uint64
	DeadCount       uint64
	LagSeconds      float64
	LastError       string
	LastErrorAt     *time.Time
	LastProcessedAt *time.Time
}

// Processor polls the outbox and publishes pending messages.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	config    ProcessorConfig
	logger    *slog.Logger
	metrics   observability.Metrics
	now       func() time.Time

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup

	statsMu sync.Mutex
	stats   Stats
}

// NewProcessor creates a new outbox processor.
func NewProcessor(repo Repository, publisher eventbus.Publisher, config ProcessorConfig, logger *slog.Logger, metrics observability.Metrics) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &Processor{
		repo:      repo,
		publisher: publisher,
		config:    config,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Start begins polling in a goroutine. Calling it twice is a no-op.
func (p *Processor) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.stop = make(chan struct{})

	p.wg.Add(1)
	go p.run(ctx, p.stop)

	p.logger.Info("outbox processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
	)
}

// Stop halts polling and waits for the current batch.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stop)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("outbox processor stopped")
}

// IsRunning reports whether the polling loop is active.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Processor) run(ctx context.Context, stop <-chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if err := p.ProcessOnce(ctx); err != nil {
				p.logger.Error("failed to process outbox batch", "error", err)
			}
		}
	}
}

// OperationProcessBatch is the timer name for a non-empty outbox batch.
const OperationProcessBatch = "outbox.process_batch"

// ProcessOnce publishes one batch synchronously. Empty polls are not timed.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	timer := observability.StartTimer(OperationProcessBatch).WithLogger(p.logger).WithMetrics(p.metrics)
	messages, err := p.repo.GetUnpublished(ctx, p.config.BatchSize)
	if err != nil {
		p.recordError(err)
		timer.StopWithError(err)
		return err
	}
	p.recordBatch(messages)
	if len(messages) == 0 {
		return nil
	}
	defer timer.Stop()

	for _, msg := range messages {
		if err := p.publisher.Publish(ctx, msg.RoutingKey, msg.Payload); err != nil {
			p.handleFailure(ctx, msg, err)
			continue
		}

		if err := p.repo.MarkPublished(ctx, msg.ID); err != nil {
			p.logger.Error("failed to mark message as published", "id", msg.ID, "event_id", msg.EventID, "error", err)
			continue
		}
		p.metrics.Counter(observability.MetricEventsPublished, 1, observability.T("routing_key", msg.RoutingKey))
		p.statsMu.Lock()
		p.stats.PublishedCount++
		p.statsMu.Unlock()
	}
	return nil
}

func (p *Processor) handleFailure(ctx context.Context, msg *Message, err error) {
	p.logger.Warn("failed to publish message",
		"id", msg.ID,
		"routing_key", msg.RoutingKey,
		"event_id", msg.EventID,
		"retry_count", msg.RetryCount,
		"error", err,
	)
	p.metrics.Counter(observability.MetricEventsFailed, 1, observability.T("routing_key", msg.RoutingKey))
	p.recordError(err)

	if p.shouldDeadLetter(msg) {
		p.statsMu.Lock()
		p.stats.DeadCount++
		p.statsMu.Unlock()
		if markErr := p.repo.MarkDead(ctx, msg.ID, err.Error()); markErr != nil {
			p.logger.Error("failed to dead-letter message", "id", msg.ID, "error", markErr)
		}
		return
	}

	p.statsMu.Lock()
	p.stats.FailedCount++
	p.statsMu.Unlock()
	nextRetryAt := p.now().Add(p.retryBackoff(msg.RetryCount + 1))
	if markErr := p.repo.MarkFailed(ctx, msg.ID, err.Error(), nextRetryAt); markErr != nil {
		p.logger.Error("failed to mark message as failed", "id", msg.ID, "error", markErr)
	}
}

func (p *Processor) shouldDeadLetter(msg *Message) bool {
	if p.config.MaxRetries <= 0 {
		return true
	}
	return msg.RetryCount+1 >= p.config.MaxRetries
}

// retryBackoff doubles from the base per attempt, capped at the max.
func (p *Processor) retryBackoff(attempt int) time.Duration {
	base := p.config.RetryBackoffBase
	if base <= 0 {
		base = time.Second
	}
	maxBackoff := p.config.RetryBackoffMax
	if maxBackoff <= 0 {
		maxBackoff = time.Minute
	}

	backoff := base
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return min(backoff, maxBackoff)
}

// Cleanup deletes messages published more than retention ago.
func (p *Processor) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	deleted, err := p.repo.DeleteOld(ctx, p.now().Add(-retention))
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		p.logger.Info("outbox cleanup", "deleted", deleted)
	}
	return deleted, nil
}

// Stats returns a snapshot of processor statistics.
func (p *Processor) Stats() Stats {
	running := p.IsRunning()
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	stats := p.stats
	stats.Running = running
	return stats
}

func (p *Processor) recordError(err error) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	now := p.now()
	p.stats.LastError = err.Error()
	p.stats.LastErrorAt = &now
}

func (p *Processor) recordBatch(messages []*Message) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	now := p.now()
	p.stats.LastProcessedAt = &now
	p.stats.LagSeconds = 0
	for _, msg := range messages {
		if lag := now.Sub(msg.CreatedAt).Seconds(); lag > p.stats.LagSeconds {
			p.stats.LagSeconds = lag
		}
	}
}
