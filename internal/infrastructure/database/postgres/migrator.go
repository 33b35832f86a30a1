package postgres

import (
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/turtacn/SymptomSense/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/SymptomSense/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrator applies the embedded schema migrations.
type Migrator struct {
	m      *migrate.Migrate
	logger logging.Logger
}

// NewMigrator binds the embedded migrations to conn.
func NewMigrator(conn *Connection, log logging.Logger) (*Migrator, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to open embedded migrations")
	}
	driver, err := pgxmigrate.WithInstance(conn.DB(), &pgxmigrate.Config{})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to create migration driver")
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to create migrate instance")
	}
	return &Migrator{m: m, logger: log}, nil
}

// Up applies all pending migrations.  No pending migrations is not an error.
func (r *Migrator) Up() error {
	if err := r.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		version, _, _ := r.m.Version()
		return apperrors.Wrapf(err, apperrors.ErrCodeDatabaseError, "failed to run migrations (current version: %d)", version)
	}
	version, dirty, err := r.Version()
	if err != nil {
		return err
	}
	r.logger.Info("Database migrations completed",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty))
	return nil
}

// Down rolls back steps migrations.
func (r *Migrator) Down(steps int) error {
	if steps <= 0 {
		return apperrors.InvalidParam("steps must be greater than 0")
	}
	if err := r.m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return apperrors.New(apperrors.ErrCodeBadRequest, "no migrations to roll back")
		}
		return apperrors.Wrapf(err, apperrors.ErrCodeDatabaseError, "failed to rollback %d step(s)", steps)
	}
	return nil
}

// Version returns the applied version and dirty flag.  A database with no
// migrations reports version 0.
func (r *Migrator) Version() (uint, bool, error) {
	version, dirty, err := r.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to get migration version")
	}
	return version, dirty, nil
}

// Force sets the version without running migrations, clearing the dirty
// flag after a failed migration was repaired by hand.
func (r *Migrator) Force(version int) error {
	if err := r.m.Force(version); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeDatabaseError, "failed to force version %d", version)
	}
	return nil
}

// Close releases the migration source and driver.  The driver also closes
// the pool it was built on, so call it only when conn is done.
func (r *Migrator) Close() error {
	srcErr, dbErr := r.m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}
