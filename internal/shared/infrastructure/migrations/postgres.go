package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
)

//go:embed postgres/*.sql
var postgresFS embed.FS

// NewPostgresMigrator returns a migrator for the embedded PostgreSQL schema.
func NewPostgresMigrator(dsn string) (*migrate.Migrate, error) {
	source, err := iofs.New(postgresFS, "postgres")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

// IgnoreNoChange maps migrate.ErrNoChange to nil.
func IgnoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// PostgresMigrationFiles lists the embedded PostgreSQL migration files.
func PostgresMigrationFiles() ([]string, error) {
	entries, err := postgresFS.ReadDir("postgres")
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		files = append(files, entry.Name())
	}
	return files, nil
}
