package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-workflow/internal/config"
	"github.com/jwalitptl/clinic-workflow/migrations"
)

// NewMigrator builds a migrator for the configured store. Closing it closes
// the database it runs against, so for postgres it gets a dedicated pool.
// SQLite has to share db, because an in-memory database is private to its
// connection.
func NewMigrator(cfg config.DatabaseConfig, db *sqlx.DB) (*migrate.Migrate, error) {
	var (
		driver database.Driver
		err    error
	)

	switch cfg.Driver {
	case config.DriverSQLite:
		driver, err = migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
	default:
		var pgDB *sql.DB
		pgDB, err = sql.Open(config.DriverPostgres, postgresDSN(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to open migration connection: %w", err)
		}
		driver, err = migratepg.WithInstance(pgDB, &migratepg.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrations.FS, cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, cfg.Driver, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

// Migrate applies all pending migrations
func Migrate(cfg config.DatabaseConfig, db *sqlx.DB) error {
	m, err := NewMigrator(cfg, db)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		return nil
	}

	srcErr, dbErr := m.Close()
	if srcErr != nil {
		return fmt.Errorf("failed to close migration source: %w", srcErr)
	}
	if dbErr != nil {
		return fmt.Errorf("failed to close migration connection: %w", dbErr)
	}
	return nil
}
