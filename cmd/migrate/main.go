package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-workflow/internal/config"
	"github.com/jwalitptl/clinic-workflow/internal/repository/sqlstore"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the clinic workflow database schema",
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	rootCmd.AddCommand(
		newMigrationCommand("up", "Apply all pending migrations", func(m *migrate.Migrate) error {
			return m.Up()
		}),
		newMigrationCommand("down", "Revert all migrations", func(m *migrate.Migrate) error {
			return m.Down()
		}),
		newVersionCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newMigrationCommand(use, short string, run func(*migrate.Migrate) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *migrate.Migrate) error {
				if err := run(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
					return fmt.Errorf("failed to run migrations: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Migrations %s executed successfully.\n", use)
				return nil
			})
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(m *migrate.Migrate) error {
				version, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
					return nil
				}
				if err != nil {
					return fmt.Errorf("failed to read schema version: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			})
		},
	}
}

func withMigrator(fn func(*migrate.Migrate) error) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	db, err := sqlstore.NewDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	m, err := sqlstore.NewMigrator(cfg.Database, db)
	if err != nil {
		return err
	}
	if cfg.Database.Driver == config.DriverPostgres {
		defer m.Close()
	}

	return fn(m)
}
