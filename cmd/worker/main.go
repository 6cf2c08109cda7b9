package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/moodlens/internal/app"
	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/moodlens/pkg/config"
	"github.com/felixgeelhaar/moodlens/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()
	logger.Info("starting moodlens worker")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer container.Close()

	// Without RabbitMQ the in-process bus already dispatches to the consumers.
	if cfg.RabbitMQURL != "" {
		consumer, err := eventbus.NewRabbitMQConsumer(cfg.RabbitMQURL, eventbus.DefaultQueueName, eventbus.NewRegistry(logger), logger)
		if err != nil {
			return err
		}
		defer consumer.Close()

		for _, c := range container.Consumers {
			if err := consumer.RegisterConsumer(c); err != nil {
				return err
			}
		}
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("event consumer stopped", "error", err)
			}
		}()
	}

	processor := container.OutboxProcessor
	logger.Info("starting outbox processor",
		"poll_interval", cfg.OutboxPollInterval,
		"batch_size", cfg.OutboxBatchSize,
		"max_retries", cfg.OutboxMaxRetries,
	)
	processor.Start(ctx)

	go every(ctx, cfg.OutboxCleanupInterval, func() {
		if _, err := processor.Cleanup(ctx, container.OutboxRetention()); err != nil {
			logger.Error("outbox cleanup failed", "error", err)
		}
	})

	go every(ctx, cfg.OutboxStatsInterval, func() {
		stats := processor.Stats()
		logger.Info("outbox stats",
			"running", stats.Running,
			"published", stats.PublishedCount,
			"failed", stats.FailedCount,
			"dead", stats.DeadCount,
			"lag_seconds", stats.LagSeconds,
			"breaker", container.EventPublisher.State().String(),
		)
	})

	if cfg.WorkerHealthAddr != "" {
		healthSrv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           newHealthMux(processor.Stats, container.Health),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("health server error", "error", err)
			}
		}()

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := healthSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down worker")
	processor.Stop()
	return nil
}

// every runs fn on each tick until ctx is done. Non-positive intervals disable it.
func every(ctx context.Context, interval time.Duration, fn func()) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
