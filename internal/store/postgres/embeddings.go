// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rlquilez/litellm-pgvector/internal/store"
	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

// Compile-time interface check.
var _ store.EmbeddingRepository = (*EmbeddingRepository)(nil)

// EmbeddingRepository implements store.EmbeddingRepository. Column names
// come from the configured schema so existing tables can be reused.
type EmbeddingRepository struct {
	db     *sqlx.DB
	schema store.Schema
	stores *VectorStoreRepository
}

// Insert stores rec and updates its vector store's aggregates in one
// transaction. ID and CreatedAt are set on rec.
func (r *EmbeddingRepository) Insert(ctx context.Context, rec *store.EmbeddingRecord) error {
	return r.InsertBatch(ctx, rec.VectorStoreID, []*store.EmbeddingRecord{rec})
}

// InsertBatch stores recs with a single multi-row INSERT and records one
// ingest covering all of them. Either every record lands or none does.
func (r *EmbeddingRepository) InsertBatch(ctx context.Context, vectorStoreID string, recs []*store.EmbeddingRecord) error {
	if len(recs) == 0 {
		return pgvserr.New(pgvserr.CodeStoreInsertInvalid, "batch must contain at least one embedding",
			pgvserr.FieldVectorStoreID(vectorStoreID))
	}

	q, err := r.buildInsert(vectorStoreID, recs)
	if err != nil {
		return err
	}

	lengths := make([]int, len(recs))
	for i, rec := range recs {
		lengths[i] = rec.ContentLength()
	}

	return inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		rows, err := tx.QueryxContext(ctx, q.String(), q.Args()...)
		if err != nil {
			return classify(err, pgvserr.CodeStoreDatabaseFailure, "inserting embeddings",
				pgvserr.FieldVectorStoreID(vectorStoreID), pgvserr.FieldTable(r.schema.EmbeddingsTable))
		}

		created := make(map[string]time.Time, len(recs))
		for rows.Next() {
			var (
				id string
				at time.Time
			)
			if err := rows.Scan(&id, &at); err != nil {
				_ = rows.Close()
				return pgvserr.Wrap(err, pgvserr.CodeStoreDatabaseFailure, "scanning inserted embeddings",
					pgvserr.FieldVectorStoreID(vectorStoreID))
			}
			created[id] = at
		}
		if err := rows.Err(); err != nil {
			_ = rows.Close()
			return classify(err, pgvserr.CodeStoreDatabaseFailure, "inserting embeddings",
				pgvserr.FieldVectorStoreID(vectorStoreID))
		}
		_ = rows.Close()

		for _, rec := range recs {
			rec.CreatedAt = created[rec.ID]
		}

		return r.stores.recordIngest(ctx, tx, vectorStoreID, lengths)
	})
}

func (r *EmbeddingRepository) buildInsert(vectorStoreID string, recs []*store.EmbeddingRecord) (*query, error) {
	f := r.schema.Fields

	q := &query{}
	q.write(`INSERT INTO `, ident(r.schema.EmbeddingsTable), ` (`,
		ident(f.ID), `, `, ident(f.VectorStoreID), `, `, ident(f.Content), `, `,
		ident(f.Embedding), `, `, ident(f.Metadata), `, `, ident(f.CreatedAt), `) VALUES `)

	for i, rec := range recs {
		if len(rec.Embedding) == 0 {
			return nil, pgvserr.Errorf(pgvserr.CodeStoreInsertInvalid, "embedding %d is empty", i)
		}
		metadata, err := marshalMetadata(rec.Metadata)
		if err != nil {
			return nil, err
		}
		if rec.ID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return nil, pgvserr.Wrap(err, pgvserr.CodeStoreDatabaseFailure, "generating embedding id")
			}
			rec.ID = id.String()
		}
		rec.VectorStoreID = vectorStoreID

		if i > 0 {
			q.write(`, `)
		}
		q.write(`(`, q.arg(rec.ID), `, `, q.arg(vectorStoreID), `, `, q.arg(rec.Content), `, `,
			q.arg(encodeVector(rec.Embedding)), `::vector, `, q.arg(metadata), `::jsonb, NOW())`)
	}

	q.write(` RETURNING `, ident(f.ID), `, `, ident(f.CreatedAt))
	return q, nil
}
