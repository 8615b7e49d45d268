package storage

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"stock-alerts/internal/config"
)

// Migrate applies pending schema migrations from cfg.MigrationsPath.
func Migrate(cfg config.DatabaseConfig) error {
	if cfg.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	path := cfg.MigrationsPath
	if path == "" {
		path = "migrations"
	}

	m, err := migrate.New("file://"+path, cfg.DSN)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
