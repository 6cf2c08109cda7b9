package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv        string
	LogLevel      string
	UserID        string
	EncryptionKey string

	// Database
	DatabaseURL    string
	DatabaseDriver string
	SQLitePath     string
	MongoDatabase  string
	LocalMode      bool

	// Redis
	RedisURL      string
	TrendCacheTTL time.Duration

	// RabbitMQ
	RabbitMQURL string

	// Outbox
	OutboxPollInterval    time.Duration
	OutboxBatchSize       int
	OutboxMaxRetries      int
	OutboxRetentionDays   int
	OutboxCleanupInterval time.Duration
	OutboxStatsInterval   time.Duration

	// Circuit breaker around event publishing
	BreakerFailureThreshold int
	BreakerTimeout          time.Duration

	// Journal
	ReclassifyWorkers int
	HelplineCountry   string
	TrendWindow       int

	// Worker
	WorkerHealthAddr string

	// MCP
	MCPAddr      string
	MCPAuthToken string

	// HTTP API
	APIAddr      string
	APIAuthToken string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		UserID:        getEnv("MOODLENS_USER_ID", "00000000-0000-0000-0000-000000000001"),
		EncryptionKey: getEnv("MOODLENS_ENCRYPTION_KEY", ""),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		SQLitePath:    getEnv("SQLITE_PATH", defaultSQLitePath()),
		MongoDatabase: getEnv("MONGO_DATABASE", "moodlens"),

		RedisURL:      getEnv("REDIS_URL", ""),
		TrendCacheTTL: getDurationEnv("TREND_CACHE_TTL", 10*time.Minute),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		OutboxPollInterval:    getDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond),
		OutboxBatchSize:       getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:      getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxRetentionDays:   getIntEnv("OUTBOX_RETENTION_DAYS", 14),
		OutboxCleanupInterval: getDurationEnv("OUTBOX_CLEANUP_INTERVAL", time.Hour),
		OutboxStatsInterval:   getDurationEnv("OUTBOX_STATS_INTERVAL", time.Minute),

		BreakerFailureThreshold: getIntEnv("BREAKER_FAILURE_THRESHOLD", 5),
		BreakerTimeout:          getDurationEnv("BREAKER_TIMEOUT", 30*time.Second),

		ReclassifyWorkers: getIntEnv("RECLASSIFY_WORKERS", 4),
		HelplineCountry:   getEnv("HELPLINE_COUNTRY", "US"),
		TrendWindow:       getIntEnv("TREND_HISTORY_LIMIT", 90),

		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),

		MCPAddr:      getEnv("MCP_ADDR", "0.0.0.0:8082"),
		MCPAuthToken: getEnv("MCP_AUTH_TOKEN", ""),

		APIAddr:      getEnv("API_ADDR", "0.0.0.0:8080"),
		APIAuthToken: getEnv("API_AUTH_TOKEN", ""),
	}

	cfg.DatabaseDriver = detectDriver(cfg.DatabaseURL)
	cfg.LocalMode = cfg.DatabaseDriver == "sqlite"

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// IsLocalMode reports whether entries live in the local SQLite file.
func (c *Config) IsLocalMode() bool {
	return c.LocalMode
}

func detectDriver(url string) string {
	switch {
	case url == "", strings.HasPrefix(url, "sqlite"), strings.HasPrefix(url, "file:"):
		return "sqlite"
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		return "mongodb"
	default:
		return "postgres"
	}
}

func defaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".moodlens", "journal.db")
	}
	return filepath.Join(home, ".moodlens", "journal.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
