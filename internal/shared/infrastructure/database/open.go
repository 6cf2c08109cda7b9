package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Config holds database configuration.
type Config struct {
	// Driver is detected from URL when empty.
	Driver Driver

	// URL is the PostgreSQL or MongoDB connection string.
	URL string

	// SQLitePath defaults to ~/.moodlens/journal.db.
	SQLitePath string

	// MongoDatabase names the MongoDB database.
	MongoDatabase string

	// MaxConns caps the PostgreSQL pool.
	MaxConns int
}

// ResolvedDriver returns the configured or detected driver.
func (c Config) ResolvedDriver() Driver {
	if c.Driver == "" || c.Driver == "auto" {
		return DetectDriver(c.URL)
	}
	return c.Driver
}

// DefaultSQLitePath returns the default SQLite database path.
func DefaultSQLitePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".moodlens", "journal.db")
}

// EnsureDirectory creates the parent directory for a file path if it doesn't exist.
func EnsureDirectory(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o700)
}

// OpenSQLite opens the journal file with WAL, foreign keys and a busy timeout.
// ":memory:" opens a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		path = DefaultSQLitePath()
	}

	dsn := path
	if path != ":memory:" {
		if err := EnsureDirectory(path); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// Single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	return db, nil
}

// OpenPostgres creates a pgx connection pool.
func OpenPostgres(ctx context.Context, url string, maxConns int) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("database URL is required for PostgreSQL")
	}

	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	return pool, nil
}

// OpenMongo connects to MongoDB and verifies the primary is reachable.
func OpenMongo(ctx context.Context, url, dbName string) (*mongo.Client, *mongo.Database, error) {
	if dbName == "" {
		dbName = "moodlens"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client, client.Database(dbName), nil
}
