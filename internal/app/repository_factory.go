package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"

	journalDomain "github.com/felixgeelhaar/moodlens/internal/journal/domain"
	journalPersistence "github.com/felixgeelhaar/moodlens/internal/journal/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/moodlens/internal/shared/application"
	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/crypto"
	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/persistence"
	"github.com/felixgeelhaar/moodlens/pkg/config"
)

// Storage bundles the driver-specific persistence of the journal.
type Storage struct {
	Driver     database.Driver
	EntryRepo  journalDomain.Repository
	OutboxRepo outbox.Repository
	UnitOfWork sharedApplication.UnitOfWork

	sqlite *sql.DB
	pool   *pgxpool.Pool
	mongo  *mongo.Client
}

// OpenStorage connects to the configured database and builds its repositories.
// SQLite migrations are applied here; PostgreSQL is migrated by cmd/migrate.
func OpenStorage(ctx context.Context, cfg *config.Config, cipher crypto.ContentCipher, logger *slog.Logger) (*Storage, error) {
	dbCfg := database.Config{
		Driver:        database.Driver(cfg.DatabaseDriver),
		URL:           cfg.DatabaseURL,
		SQLitePath:    cfg.SQLitePath,
		MongoDatabase: cfg.MongoDatabase,
	}

	switch driver := dbCfg.ResolvedDriver(); driver {
	case database.DriverSQLite:
		path := dbCfg.SQLitePath
		if dbCfg.URL != "" {
			path = database.SQLitePathFromURL(dbCfg.URL)
		}
		db, err := database.OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		logger.Info("running SQLite migrations")
		if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("connected to database", "driver", driver, "path", path)
		return &Storage{
			Driver:     driver,
			EntryRepo:  journalPersistence.NewSQLiteEntryRepository(db, cipher),
			OutboxRepo: outbox.NewSQLiteRepository(db),
			UnitOfWork: sharedPersistence.NewSQLiteUnitOfWork(db),
			sqlite:     db,
		}, nil

	case database.DriverPostgres:
		pool, err := database.OpenPostgres(ctx, dbCfg.URL, dbCfg.MaxConns)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		logger.Info("connected to database", "driver", driver)
		return &Storage{
			Driver:     driver,
			EntryRepo:  journalPersistence.NewPostgresEntryRepository(pool, cipher),
			OutboxRepo: outbox.NewPostgresRepository(pool),
			UnitOfWork: sharedPersistence.NewPostgresUnitOfWork(pool),
			pool:       pool,
		}, nil

	case database.DriverMongo:
		client, db, err := database.OpenMongo(ctx, dbCfg.URL, dbCfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		entries := journalPersistence.NewMongoEntryRepository(db, cipher)
		if err := entries.EnsureIndexes(ctx); err != nil {
			logger.Warn("failed to create journal indexes", "error", err)
		}
		logger.Info("connected to database", "driver", driver, "database", db.Name())
		return &Storage{
			Driver:     driver,
			EntryRepo:  entries,
			OutboxRepo: outbox.NewMongoRepository(db),
			UnitOfWork: sharedApplication.NoopUnitOfWork{},
			mongo:      client,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}

// Ping checks the database for readiness probes.
func (s *Storage) Ping(ctx context.Context) error {
	switch {
	case s.sqlite != nil:
		return s.sqlite.PingContext(ctx)
	case s.pool != nil:
		return s.pool.Ping(ctx)
	case s.mongo != nil:
		return s.mongo.Ping(ctx, nil)
	default:
		return fmt.Errorf("storage is not open")
	}
}

// Close releases the connection.
func (s *Storage) Close(ctx context.Context) error {
	switch {
	case s.sqlite != nil:
		return s.sqlite.Close()
	case s.pool != nil:
		s.pool.Close()
	case s.mongo != nil:
		return s.mongo.Disconnect(ctx)
	}
	return nil
}
