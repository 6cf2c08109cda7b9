package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/moodlens/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/moodlens/pkg/config"
)

var dsn string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply the MoodLens PostgreSQL schema",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dsn, "dsn", "", "PostgreSQL connection string (default DATABASE_URL)")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Run all up migrations",
			RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrate, _ []string) error {
				if err := migrations.IgnoreNoChange(m.Up()); err != nil {
					return fmt.Errorf("failed to run up migrations: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied successfully")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Run all down migrations",
			RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrate, _ []string) error {
				if err := migrations.IgnoreNoChange(m.Down()); err != nil {
					return fmt.Errorf("failed to run down migrations: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations reverted successfully")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "steps <n>",
			Short: "Apply n migrations (negative reverts)",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrate, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil || n == 0 {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				if err := migrations.IgnoreNoChange(m.Steps(n)); err != nil {
					return fmt.Errorf("failed to run migrations: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration steps\n", n)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrate, _ []string) error {
				v, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					fmt.Fprintln(cmd.OutOrStdout(), "version: none")
					return nil
				}
				if err != nil {
					return fmt.Errorf("failed to get version: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version: %d, dirty: %v\n", v, dirty)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Force the schema version after a failed migration",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(cmd *cobra.Command, m *migrate.Migrate, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				if err := m.Force(v); err != nil {
					return fmt.Errorf("failed to force version: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "forced to version %d\n", v)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "files",
			Short: "List the embedded migration files",
			RunE: func(cmd *cobra.Command, _ []string) error {
				files, err := migrations.PostgresMigrationFiles()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(files, "\n"))
				return nil
			},
		},
	)
	return root
}

type migrateFunc func(cmd *cobra.Command, m *migrate.Migrate, args []string) error

func withMigrator(fn migrateFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		url, err := resolveDSN(dsn)
		if err != nil {
			return err
		}
		m, err := migrations.NewPostgresMigrator(url)
		if err != nil {
			return err
		}
		defer m.Close()
		return fn(cmd, m, args)
	}
}

// resolveDSN prefers the flag and falls back to DATABASE_URL. Only
// PostgreSQL has versioned migrations.
func resolveDSN(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	if cfg.DatabaseDriver != "postgres" {
		return "", fmt.Errorf("migrate needs a PostgreSQL DATABASE_URL (got %s driver)", cfg.DatabaseDriver)
	}
	return cfg.DatabaseURL, nil
}
