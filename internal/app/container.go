package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/felixgeelhaar/moodlens/internal/journal/application/commands"
	"github.com/felixgeelhaar/moodlens/internal/journal/application/handlers"
	"github.com/felixgeelhaar/moodlens/internal/journal/application/queries"
	journalCache "github.com/felixgeelhaar/moodlens/internal/journal/infrastructure/cache"
	"github.com/felixgeelhaar/moodlens/internal/mood/analysis"
	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/crypto"
	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/moodlens/pkg/config"
	"github.com/felixgeelhaar/moodlens/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry

	// UserID is the journal owner for CLI and MCP requests.
	UserID uuid.UUID

	Storage    *Storage
	Classifier *analysis.Classifier

	// Redis is nil when trend reports are cached in memory.
	RedisClient *redis.Client
	TrendCache  queries.TrendCache

	// Events
	Bus             *eventbus.InProcessBus
	Consumers       []eventbus.EventConsumer
	EventPublisher  *eventbus.BreakerPublisher
	OutboxProcessor *outbox.Processor

	// Journal command handlers
	CreateEntryHandler       *commands.CreateEntryHandler
	ReclassifyEntriesHandler *commands.ReclassifyEntriesHandler
	DeleteEntryHandler       *commands.DeleteEntryHandler

	// Journal query handlers
	ListEntriesHandler  *queries.ListEntriesHandler
	GetEntryHandler     *queries.GetEntryHandler
	GetMoodTrendHandler *queries.GetMoodTrendHandler
}

// NewContainer creates and wires all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}

	userID, err := uuid.Parse(cfg.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid MOODLENS_USER_ID: %w", err)
	}

	cipher, err := crypto.NewContentCipher(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("invalid MOODLENS_ENCRYPTION_KEY: %w", err)
	}
	if _, plain := cipher.(crypto.Plaintext); plain {
		logger.Debug("encryption key not set; journal text stored in plaintext")
	}

	c := &Container{
		Config:     cfg,
		Logger:     logger,
		Metrics:    observability.NewInMemoryMetrics(),
		Health:     observability.NewHealthRegistry(),
		UserID:     userID,
		Classifier: analysis.NewClassifier(analysis.WithLogger(logger)),
	}

	c.Storage, err = OpenStorage(ctx, cfg, cipher, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	c.Health.Register("database", observability.PingChecker("database", observability.HealthStatusUnhealthy, c.Storage.Ping))

	c.TrendCache = c.newTrendCache(ctx)

	if err := c.wireEvents(); err != nil {
		c.Close()
		return nil, err
	}

	repo := c.Storage.EntryRepo
	c.CreateEntryHandler = commands.NewCreateEntryHandler(
		repo, c.Storage.OutboxRepo, c.Storage.UnitOfWork, c.Classifier, c.TrendCache, c.Metrics, logger)
	c.ReclassifyEntriesHandler = commands.NewReclassifyEntriesHandler(
		repo, c.Storage.OutboxRepo, c.Storage.UnitOfWork, c.Classifier, c.TrendCache, c.Metrics, logger)
	c.DeleteEntryHandler = commands.NewDeleteEntryHandler(repo, c.TrendCache, c.Metrics, logger)

	c.ListEntriesHandler = queries.NewListEntriesHandler(repo)
	c.GetEntryHandler = queries.NewGetEntryHandler(repo)
	c.GetMoodTrendHandler = queries.NewGetMoodTrendHandler(repo, c.TrendCache, cfg.TrendCacheTTL, c.Metrics, logger)

	logger.Info("container initialized",
		"driver", c.Storage.Driver,
		"events", c.eventTransport(),
		"trend_cache", c.trendCacheKind(),
	)
	return c, nil
}

// newTrendCache connects to Redis when configured. Outside production an
// unreachable Redis falls back to the in-memory cache.
func (c *Container) newTrendCache(ctx context.Context) queries.TrendCache {
	if c.Config.RedisURL == "" {
		return journalCache.NewMemoryTrendCache()
	}

	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		c.Logger.Warn("invalid Redis URL, trend cache will use in-memory fallback", "error", err)
		return journalCache.NewMemoryTrendCache()
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		c.Logger.Warn("Redis not available, trend cache will use in-memory fallback", "error", err)
		_ = client.Close()
		return journalCache.NewMemoryTrendCache()
	}

	c.RedisClient = client
	redisCache := journalCache.NewRedisTrendCache(client)
	c.Health.Register("redis", observability.PingChecker("redis", observability.HealthStatusDegraded, redisCache.Ping))
	c.Logger.Info("connected to Redis")
	return redisCache
}

// wireEvents builds the publisher chain and the outbox processor. Without
// RabbitMQ, events are dispatched to consumers in process.
func (c *Container) wireEvents() error {
	c.Consumers = []eventbus.EventConsumer{
		handlers.NewSafetyAlertHandler(c.Logger, c.Metrics),
		handlers.NewEntryActivityHandler(c.Logger, c.Metrics),
	}

	var publisher eventbus.Publisher
	if c.Config.RabbitMQURL != "" {
		rabbit, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		c.Health.Register("rabbitmq", observability.PingChecker("rabbitmq", observability.HealthStatusUnhealthy, rabbit.Ping))
		publisher = rabbit
	} else {
		c.Bus = eventbus.NewInProcessBus(c.Logger)
		for _, consumer := range c.Consumers {
			c.Bus.RegisterConsumer(consumer)
		}
		publisher = c.Bus
	}

	c.EventPublisher = eventbus.NewBreakerPublisher(publisher, eventbus.BreakerConfig{
		FailureThreshold: uint32(max(c.Config.BreakerFailureThreshold, 1)),
		Timeout:          c.Config.BreakerTimeout,
		OnStateChange: func(_, to gobreaker.State) {
			c.Metrics.Gauge(observability.MetricBreakerState, float64(to))
		},
	}, c.Logger)
	c.Health.Register("event_publisher", observability.PingChecker("event_publisher", observability.HealthStatusDegraded, c.EventPublisher.Ping))

	processorCfg := outbox.DefaultProcessorConfig()
	if c.Config.OutboxPollInterval > 0 {
		processorCfg.PollInterval = c.Config.OutboxPollInterval
	}
	if c.Config.OutboxBatchSize > 0 {
		processorCfg.BatchSize = c.Config.OutboxBatchSize
	}
	if c.Config.OutboxMaxRetries > 0 {
		processorCfg.MaxRetries = c.Config.OutboxMaxRetries
	}
	c.OutboxProcessor = outbox.NewProcessor(c.Storage.OutboxRepo, c.EventPublisher, processorCfg, c.Logger, c.Metrics)
	return nil
}

// FlushEvents relays pending outbox messages once. One-shot CLI commands
// call it so in-process consumers see their events; with RabbitMQ the
// worker does the relaying.
func (c *Container) FlushEvents(ctx context.Context) error {
	if c.Bus == nil {
		return nil
	}
	return c.OutboxProcessor.ProcessOnce(ctx)
}

// OutboxRetention is the configured age after which published messages are removed.
func (c *Container) OutboxRetention() time.Duration {
	days := c.Config.OutboxRetentionDays
	if days <= 0 {
		days = 14
	}
	return time.Duration(days) * 24 * time.Hour
}

func (c *Container) eventTransport() string {
	if c.Bus != nil {
		return "in-process"
	}
	return "rabbitmq"
}

func (c *Container) trendCacheKind() string {
	if c.RedisClient != nil {
		return "redis"
	}
	return "memory"
}

// Close releases every connection.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("failed to close event publisher", "error", err)
		}
	}
	if c.RedisClient != nil {
		_ = c.RedisClient.Close()
	}
	if c.Storage != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Storage.Close(ctx); err != nil {
			c.Logger.Warn("failed to close storage", "error", err)
		}
	}
}
