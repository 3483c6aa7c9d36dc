// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

// Package postgres implements the store backend on PostgreSQL with the
// pgvector extension. Distance computation is delegated to pgvector's
// cosine distance operator (<=>); this package only builds and runs queries.
package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/rlquilez/litellm-pgvector/internal/store"
	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

func init() {
	store.RegisterBackend("postgres", func(ctx context.Context, cfg store.StorageConfig) (store.Backend, error) {
		return Open(ctx, cfg)
	})
}

// Compile-time interface check.
var _ store.Backend = (*Backend)(nil)

// Backend implements store.Backend over one shared connection pool.
type Backend struct {
	db         *sqlx.DB
	stores     *VectorStoreRepository
	embeddings *EmbeddingRepository
}

// Open connects to cfg.URL, applies pool limits, verifies connectivity and
// checks a sized embedding column matches cfg.VectorDimensions.
func Open(ctx context.Context, cfg store.StorageConfig) (*Backend, error) {
	if cfg.URL == "" {
		return nil, pgvserr.New(pgvserr.CodeConfigValidateInvalidValue, "database url is required")
	}

	db, err := sqlx.Open("postgres", cfg.URL)
	if err != nil {
		return nil, pgvserr.Wrap(err, pgvserr.CodeStoreDatabaseFailure, "opening postgres connection")
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, pgvserr.Wrap(err, pgvserr.CodeStoreDatabaseFailure, "pinging postgres")
	}

	schema := cfg.Schema.WithDefaults()
	if cfg.VectorDimensions > 0 {
		if err := checkDimensions(ctx, db, schema, cfg.VectorDimensions); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return NewWithDB(db, schema), nil
}

// NewWithDB builds a Backend over an existing pool. The schema must already
// be validated.
func NewWithDB(db *sqlx.DB, schema store.Schema) *Backend {
	stores := &VectorStoreRepository{db: db, table: schema.VectorStoresTable}
	return &Backend{
		db:     db,
		stores: stores,
		embeddings: &EmbeddingRepository{
			db:     db,
			schema: schema,
			stores: stores,
		},
	}
}

func (b *Backend) VectorStores() store.VectorStoreRepository { return b.stores }

func (b *Backend) Embeddings() store.EmbeddingRepository { return b.embeddings }

// DB exposes the pool for migrations.
func (b *Backend) DB() *sqlx.DB { return b.db }

func (b *Backend) Ping(ctx context.Context) error {
	if err := b.db.PingContext(ctx); err != nil {
		return pgvserr.Wrap(err, pgvserr.CodeStoreDatabaseFailure, "pinging postgres")
	}
	return nil
}

// Close closes the underlying connection pool.
func (b *Backend) Close() error {
	return b.db.Close()
}

// inTx runs fn inside a transaction, committing on success.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return pgvserr.Wrap(err, pgvserr.CodeStoreDatabaseFailure, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return pgvserr.Wrap(err, pgvserr.CodeStoreDatabaseFailure, "committing transaction")
	}
	return nil
}
