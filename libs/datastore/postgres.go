package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brave-intl/spectrocoin-callback/libs/logging"
	"github.com/getsentry/sentry-go"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"

	// needed for magic migration
	_ "github.com/golang-migrate/migrate/v4/source/file"
	// postgres driver
	_ "github.com/lib/pq"
)

// CurrentMigrationVersion holds the default migration version
var CurrentMigrationVersion = uint(2)

// Datastore holds generic methods
type Datastore interface {
	RawDB() *sqlx.DB
	NewMigrate() (*migrate.Migrate, error)
	Migrate(...uint) error
	RollbackTx(tx *sqlx.Tx)
	BeginTx(ctx context.Context) (*sqlx.Tx, error)
}

// Postgres is a Datastore wrapper around a postgres database
type Postgres struct {
	*sqlx.DB
	migrationsURL string
}

// RawDB - get the raw db
func (pg *Postgres) RawDB() *sqlx.DB {
	return pg.DB
}

// NewMigrate creates a Migrate instance given a Postgres instance with an active database connection
func (pg *Postgres) NewMigrate() (*migrate.Migrate, error) {
	driver, err := postgres.WithInstance(pg.RawDB().DB, &postgres.Config{})
	if err != nil {
		return nil, err
	}

	return migrate.NewWithDatabaseInstance(pg.migrationsURL, "postgres", driver)
}

// Migrate the Postgres instance
func (pg *Postgres) Migrate(currentMigrationVersions ...uint) error {
	logger := logging.Logger(context.Background(), "datastore.Migrate")

	logger.Info().Msg("attempting database migration")

	m, err := pg.NewMigrate()
	if err != nil {
		logger.Error().Err(err).Msg("failed to create a new migration")
		return err
	}

	activeMigrationVersion, dirty, err := m.Version()

	currentMigrationVersion := CurrentMigrationVersion
	if len(currentMigrationVersions) > 0 {
		currentMigrationVersion = currentMigrationVersions[0]
	}

	subLogger := logger.With().
		Bool("dirty", dirty).
		Int("db_version", int(activeMigrationVersion)).
		Uint("code_version", currentMigrationVersion).
		Logger()

	subLogger.Info().Msg("database status")

	if !errors.Is(err, migrate.ErrNilVersion) && err != nil {
		subLogger.Error().Err(err).Msg("failed to get migration version")
		sentry.CaptureMessage(err.Error())
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	// Don't attempt the migration if our currentMigrationVersion is less than the active db version or if the migration is in dirty state
	if currentMigrationVersion < activeMigrationVersion || dirty {
		subLogger.Error().Msg("migration not attempted")
		sentry.CaptureMessage(
			fmt.Sprintf("migration not attempted, dirty: %t; code version: %d; db version: %d",
				dirty, currentMigrationVersion, activeMigrationVersion))
		return nil
	}

	if err := m.Migrate(currentMigrationVersion); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		subLogger.Error().Err(err).Msg("migration failed")
		return err
	}

	return nil
}

// NewPostgres creates a new Postgres Datastore
func NewPostgres(databaseURL, migrationsURL string, performMigration bool) (*Postgres, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	// if we have a connection longer than 5 minutes, kill it
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)

	pg := &Postgres{DB: db, migrationsURL: migrationsURL}

	if performMigration {
		if err := pg.Migrate(); err != nil {
			return nil, err
		}
	}

	return pg, nil
}

// NewFromDB wraps an existing connection, used by tests with sqlmock
func NewFromDB(db *sqlx.DB) *Postgres {
	return &Postgres{DB: db}
}

// RollbackTxAndHandle rolls back a transaction
func (pg *Postgres) RollbackTxAndHandle(tx *sqlx.Tx) error {
	err := tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		sentry.CaptureMessage(err.Error())
	}
	return err
}

// RollbackTx rolls back a transaction (useful with defer)
func (pg *Postgres) RollbackTx(tx *sqlx.Tx) {
	_ = pg.RollbackTxAndHandle(tx)
}

// BeginTx starts a transaction
func (pg *Postgres) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return pg.RawDB().BeginTxx(ctx, nil)
}
