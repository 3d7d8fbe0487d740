package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/RezaEskandarii/reportfire/internal/constants"
	"github.com/RezaEskandarii/reportfire/internal/lock"
	"github.com/RezaEskandarii/reportfire/internal/logger"
	"github.com/cockroachdb/errors"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

const schema = "reportfire"

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrator applies the embedded schema migrations. Every operation runs under the
// MigrationLock so only one instance migrates at a time.
type Migrator struct {
	postgresURL string
	locks       lock.DistributedLockManager
	logger      logger.Logger
}

func NewMigrator(postgresURL string, locks lock.DistributedLockManager, log logger.Logger) *Migrator {
	return &Migrator{postgresURL: postgresURL, locks: locks, logger: log}
}

// Up creates the schema when missing and applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	return m.withLock(ctx, func(mg *migrate.Migrate) error {
		if err := mg.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				m.logger.Info("No pending migrations")
				return nil
			}
			return errors.Wrap(err, "run migrations")
		}
		m.logger.Info("Migrations applied successfully")
		return nil
	})
}

// Down rolls back steps migrations, at least one.
func (m *Migrator) Down(ctx context.Context, steps int) error {
	if steps <= 0 {
		steps = 1
	}
	return m.withLock(ctx, func(mg *migrate.Migrate) error {
		if err := mg.Steps(-steps); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				m.logger.Info("No migrations to rollback")
				return nil
			}
			return errors.Wrap(err, "rollback migrations")
		}
		m.logger.Info("Migrations rolled back successfully", logger.Int("steps", steps))
		return nil
	})
}

// Version returns the applied migration version and whether it is dirty.
func (m *Migrator) Version(ctx context.Context) (uint, bool, error) {
	var (
		version uint
		dirty   bool
	)
	err := m.withLock(ctx, func(mg *migrate.Migrate) error {
		var err error
		version, dirty, err = mg.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		return err
	})
	return version, dirty, err
}

func (m *Migrator) withLock(ctx context.Context, fn func(*migrate.Migrate) error) error {
	if err := m.locks.Acquire(ctx, constants.MigrationLock); err != nil {
		return errors.Wrap(err, "acquire migration lock")
	}
	defer func() {
		if err := m.locks.Release(context.WithoutCancel(ctx), constants.MigrationLock); err != nil {
			m.logger.Warn("Failed to release migration lock", logger.Error(err))
		}
	}()

	db, err := sql.Open("postgres", m.postgresURL)
	if err != nil {
		return errors.Wrap(err, "open database connection")
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return errors.Wrap(err, "ping database")
	}
	if _, err = db.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
		_ = db.Close()
		return errors.Wrap(err, "create schema")
	}

	mg, err := newMigrate(db)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer func() {
		if srcErr, dbErr := mg.Close(); srcErr != nil || dbErr != nil {
			m.logger.Warn("Failed to close migrate instance", logger.Any("source", srcErr), logger.Any("database", dbErr))
		}
	}()

	return fn(mg)
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	src, err := migrationSource()
	if err != nil {
		return nil, err
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{SchemaName: schema})
	if err != nil {
		return nil, errors.Wrap(err, "create postgres driver")
	}
	mg, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, errors.Wrap(err, "create migrate instance")
	}
	return mg, nil
}

func migrationSource() (source.Driver, error) {
	d, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, errors.Wrap(err, "open embedded migrations")
	}
	return d, nil
}
