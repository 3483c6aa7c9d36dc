// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package postgres

import (
	"context"
	"embed"
	"errors"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/rlquilez/litellm-pgvector/internal/store"
	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// MigrationStatus is the schema version recorded by golang-migrate.
type MigrationStatus struct {
	Version uint
	Dirty   bool
	// Applied is false when no migration has ever run.
	Applied bool
}

// Migrate applies every pending bundled migration. The bundled migrations
// create the default schema only; custom table or column names must be
// provisioned by the operator.
func Migrate(ctx context.Context, db *sqlx.DB, schema store.Schema) error {
	if !schema.WithDefaults().IsDefault() {
		return pgvserr.New(pgvserr.CodeStoreMigrateFailure,
			"bundled migrations only support the default schema names")
	}

	return withMigrator(ctx, db, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				slog.Info("database schema is up to date")
				return nil
			}
			return pgvserr.Wrap(err, pgvserr.CodeStoreMigrateFailure, "applying migrations")
		}

		if v, dirty, err := m.Version(); err == nil {
			slog.Info("applied migrations", "version", v, "dirty", dirty)
		}
		return nil
	})
}

// Status reports the current migration version.
func Status(ctx context.Context, db *sqlx.DB) (*MigrationStatus, error) {
	var status *MigrationStatus
	err := withMigrator(ctx, db, func(m *migrate.Migrate) error {
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			status = &MigrationStatus{}
			return nil
		}
		if err != nil {
			return pgvserr.Wrap(err, pgvserr.CodeStoreMigrateFailure, "reading migration version")
		}
		status = &MigrationStatus{Version: v, Dirty: dirty, Applied: true}
		return nil
	})
	return status, err
}

// withMigrator runs fn on a migrator bound to one connection checked out
// of db. The connection goes back to the pool afterwards; db stays open.
func withMigrator(ctx context.Context, db *sqlx.DB, fn func(m *migrate.Migrate) error) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return pgvserr.Wrap(err, pgvserr.CodeStoreMigrateFailure, "loading bundled migrations")
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = src.Close()
		return pgvserr.Wrap(err, pgvserr.CodeStoreMigrateFailure, "acquiring migration connection")
	}

	// WithConnection leaves db alone on Close, unlike WithInstance.
	driver, err := migratepg.WithConnection(ctx, conn, &migratepg.Config{})
	if err != nil {
		_ = conn.Close()
		_ = src.Close()
		return pgvserr.Wrap(err, pgvserr.CodeStoreMigrateFailure, "creating migration driver")
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		_ = driver.Close()
		_ = src.Close()
		return pgvserr.Wrap(err, pgvserr.CodeStoreMigrateFailure, "creating migrator")
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			slog.Warn("closing migrator", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	return fn(m)
}
