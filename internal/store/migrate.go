package store

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies every pending up migration for the store's driver.
func (s *Store) Migrate() error {
	src, err := iofs.New(migrationsFS, "migrations/"+s.Driver)
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	var drv database.Driver
	switch s.Driver {
	case DriverPostgres:
		drv, err = postgres.WithInstance(s.DB.DB, &postgres.Config{})
	default:
		drv, err = migratesqlite.WithInstance(s.DB.DB, &migratesqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, s.Driver, drv)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	// m.Close would also close s.DB, so only the source is released.
	defer src.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Debug("Schema is up to date")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, _ := m.Version()
	slog.Info("Applied migrations", "version", version)
	return nil
}
