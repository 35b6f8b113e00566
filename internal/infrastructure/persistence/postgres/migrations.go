package postgres

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/alem-hub/mentoring-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationStatus describes the schema version after Migrate.
type MigrationStatus struct {
	Version uint
	Dirty   bool
}

// Migrate applies all pending embedded migrations over the connection pool.
func (c *Connection) Migrate(log *logger.Logger) (MigrationStatus, error) {
	m, closeFn, err := c.newMigrate()
	if err != nil {
		return MigrationStatus{}, err
	}
	defer closeFn()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return MigrationStatus{}, fmt.Errorf("%w: %v", ErrMigrationFailed, err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return MigrationStatus{}, fmt.Errorf("%w: read version: %v", ErrMigrationFailed, err)
	}

	status := MigrationStatus{Version: version, Dirty: dirty}
	if dirty {
		log.Warn("database migration is dirty", logger.Int64("version", int64(version)))
	} else {
		log.Info("database migrated", logger.Int64("version", int64(version)))
	}
	return status, nil
}

// Rollback reverts the last applied migration.
func (c *Connection) Rollback() error {
	m, closeFn, err := c.newMigrate()
	if err != nil {
		return err
	}
	defer closeFn()

	if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w: rollback: %v", ErrMigrationFailed, err)
	}
	return nil
}

func (c *Connection) newMigrate() (*migrate.Migrate, func(), error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("%w: load migrations: %v", ErrMigrationFailed, err)
	}

	db := stdlib.OpenDBFromPool(c.Pool())
	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("%w: create driver: %v", ErrMigrationFailed, err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("%w: init: %v", ErrMigrationFailed, err)
	}
	closeFn := func() {
		_, _ = m.Close()
	}
	return m, closeFn, nil
}
