// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rlquilez/litellm-pgvector/internal/store"
	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

// Compile-time interface check.
var _ store.VectorStoreRepository = (*VectorStoreRepository)(nil)

// vectorStoreColumns is the fixed column list of the vector store table.
const vectorStoreColumns = `id, name, file_counts, status, usage_bytes, expires_after, expires_at, last_active_at, metadata, created_at`

// VectorStoreRepository implements store.VectorStoreRepository.
type VectorStoreRepository struct {
	db    *sqlx.DB
	table string
}

type vectorStoreRow struct {
	ID           string        `db:"id"`
	Name         string        `db:"name"`
	FileCounts   []byte        `db:"file_counts"`
	Status       string        `db:"status"`
	UsageBytes   sql.NullInt64 `db:"usage_bytes"`
	ExpiresAfter []byte        `db:"expires_after"`
	ExpiresAt    sql.NullTime  `db:"expires_at"`
	LastActiveAt sql.NullTime  `db:"last_active_at"`
	Metadata     []byte        `db:"metadata"`
	CreatedAt    time.Time     `db:"created_at"`
}

func (r *vectorStoreRow) toModel() (*store.VectorStore, error) {
	vs := &store.VectorStore{
		ID:         r.ID,
		Name:       r.Name,
		Status:     r.Status,
		UsageBytes: r.UsageBytes.Int64,
		CreatedAt:  r.CreatedAt,
	}

	if err := unmarshalJSON(r.FileCounts, &vs.FileCounts); err != nil {
		return nil, pgvserr.Wrap(err, pgvserr.CodeStoreDatabaseFailure, "decoding file_counts",
			pgvserr.FieldVectorStoreID(r.ID))
	}
	if err := unmarshalJSON(r.ExpiresAfter, &vs.ExpiresAfter); err != nil {
		return nil, pgvserr.Wrap(err, pgvserr.CodeStoreDatabaseFailure, "decoding expires_after",
			pgvserr.FieldVectorStoreID(r.ID))
	}
	if err := unmarshalJSON(r.Metadata, &vs.Metadata); err != nil {
		return nil, pgvserr.Wrap(err, pgvserr.CodeStoreDatabaseFailure, "decoding metadata",
			pgvserr.FieldVectorStoreID(r.ID))
	}
	if r.ExpiresAt.Valid {
		t := r.ExpiresAt.Time
		vs.ExpiresAt = &t
	}
	if r.LastActiveAt.Valid {
		t := r.LastActiveAt.Time
		vs.LastActiveAt = &t
	}
	return vs, nil
}

// Create inserts a store with zeroed counters and status "completed".
// IDs are UUIDv7 so they sort with creation time.
func (r *VectorStoreRepository) Create(ctx context.Context, in store.NewVectorStore) (*store.VectorStore, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, pgvserr.Wrap(err, pgvserr.CodeStoreDatabaseFailure, "generating vector store id")
	}

	fileCounts, err := json.Marshal(store.FileCounts{})
	if err != nil {
		return nil, pgvserr.Wrap(err, pgvserr.CodeStoreDatabaseFailure, "encoding file_counts")
	}

	var expiresAfter, expiryDays any
	if in.ExpiresAfter != nil {
		raw, err := json.Marshal(in.ExpiresAfter)
		if err != nil {
			return nil, pgvserr.Wrap(err, pgvserr.CodeStoreInsertInvalid, "encoding expires_after")
		}
		expiresAfter = string(raw)
		expiryDays = in.ExpiresAfter.Days
	}

	metadata, err := marshalMetadata(in.Metadata)
	if err != nil {
		return nil, err
	}

	q := &query{}
	q.write(`INSERT INTO `, ident(r.table), ` (`, vectorStoreColumns, `)
VALUES (`, q.arg(id.String()), `, `, q.arg(in.Name), `, `, q.arg(string(fileCounts)), `, `, q.arg(store.StatusCompleted), `, 0, `)
	q.write(q.arg(expiresAfter), `, `)
	days := q.arg(expiryDays)
	q.write(`CASE WHEN `, days, `::int IS NULL THEN NULL ELSE NOW() + make_interval(days => `, days, `::int) END, `)
	q.write(`NOW(), `, q.arg(metadata), `, NOW())
RETURNING `, vectorStoreColumns)

	var row vectorStoreRow
	if err := r.db.GetContext(ctx, &row, q.String(), q.Args()...); err != nil {
		return nil, classify(err, pgvserr.CodeStoreDatabaseFailure, "creating vector store",
			pgvserr.FieldTable(r.table))
	}
	return row.toModel()
}

// Get loads one store by id.
func (r *VectorStoreRepository) Get(ctx context.Context, id string) (*store.VectorStore, error) {
	stmt := `SELECT ` + vectorStoreColumns + ` FROM ` + ident(r.table) + ` WHERE id = $1`

	var row vectorStoreRow
	if err := r.db.GetContext(ctx, &row, stmt, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pgvserr.New(pgvserr.CodeStoreVectorStoreNotFound, "vector store not found",
				pgvserr.FieldVectorStoreID(id))
		}
		return nil, classify(err, pgvserr.CodeStoreDatabaseFailure, "loading vector store",
			pgvserr.FieldVectorStoreID(id))
	}
	return row.toModel()
}

// Exists reports whether a store with id exists.
func (r *VectorStoreRepository) Exists(ctx context.Context, id string) (bool, error) {
	stmt := `SELECT EXISTS (SELECT 1 FROM ` + ident(r.table) + ` WHERE id = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, stmt, id); err != nil {
		return false, classify(err, pgvserr.CodeStoreDatabaseFailure, "checking vector store",
			pgvserr.FieldVectorStoreID(id))
	}
	return exists, nil
}

// List returns stores newest first. The after/before cursor is a store id;
// its (created_at, id) tuple bounds the page so ordering stays stable even
// when ids are not time ordered.
func (r *VectorStoreRepository) List(ctx context.Context, opts store.ListOpts) (*store.Page, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	limit := store.ClampListLimit(opts.Limit)

	q := &query{}
	q.write(`SELECT `, vectorStoreColumns, ` FROM `, ident(r.table))

	backwards := opts.Before != ""
	cursorID := opts.After
	if backwards {
		cursorID = opts.Before
	}

	if cursorID != "" {
		createdAt, err := r.cursorTime(ctx, cursorID)
		if err != nil {
			return nil, err
		}
		op := "<"
		if backwards {
			op = ">"
		}
		q.write(` WHERE (created_at, id) `, op, ` (`, q.arg(createdAt), `, `, q.arg(cursorID), `)`)
	}

	if backwards {
		q.write(` ORDER BY created_at ASC, id ASC`)
	} else {
		q.write(` ORDER BY created_at DESC, id DESC`)
	}
	// One extra row tells us whether another page exists.
	q.write(` LIMIT `, q.arg(limit+1))

	var rows []vectorStoreRow
	if err := r.db.SelectContext(ctx, &rows, q.String(), q.Args()...); err != nil {
		return nil, classify(err, pgvserr.CodeStoreDatabaseFailure, "listing vector stores",
			pgvserr.FieldTable(r.table))
	}

	page := &store.Page{HasMore: len(rows) > limit}
	if page.HasMore {
		rows = rows[:limit]
	}
	if backwards {
		slices.Reverse(rows)
	}

	page.Stores = make([]*store.VectorStore, 0, len(rows))
	for i := range rows {
		vs, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		page.Stores = append(page.Stores, vs)
	}
	return page, nil
}

func (r *VectorStoreRepository) cursorTime(ctx context.Context, id string) (time.Time, error) {
	stmt := `SELECT created_at FROM ` + ident(r.table) + ` WHERE id = $1`

	var createdAt time.Time
	if err := r.db.GetContext(ctx, &createdAt, stmt, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, pgvserr.Errorf(pgvserr.CodeStoreCursorInvalid, "cursor %q does not name a vector store", id)
		}
		return time.Time{}, classify(err, pgvserr.CodeStoreDatabaseFailure, "resolving cursor",
			pgvserr.FieldVectorStoreID(id))
	}
	return createdAt, nil
}

// RecordIngest applies one ingest to the store's aggregates.
func (r *VectorStoreRepository) RecordIngest(ctx context.Context, id string, contentLengths []int) error {
	return r.recordIngest(ctx, r.db, id, contentLengths)
}

// recordIngest runs the counter update as a single arithmetic UPDATE so
// concurrent ingests into the same store serialize on the row lock instead
// of racing a read-modify-write.
func (r *VectorStoreRepository) recordIngest(ctx context.Context, ext sqlx.ExecerContext, id string, contentLengths []int) error {
	if len(contentLengths) == 0 {
		return nil
	}

	var usage int64
	for _, n := range contentLengths {
		usage += int64(n)
	}

	q := &query{}
	storeID := q.arg(id)
	count := q.arg(int64(len(contentLengths)))
	bytes := q.arg(usage)
	q.write(`UPDATE `, ident(r.table), ` SET
	file_counts = COALESCE(file_counts, '{}'::jsonb) || jsonb_build_object(
		'completed', COALESCE((file_counts->>'completed')::bigint, 0) + `, count, `::bigint,
		'total', COALESCE((file_counts->>'total')::bigint, 0) + `, count, `::bigint),
	usage_bytes = COALESCE(usage_bytes, 0) + `, bytes, `::bigint,
	last_active_at = NOW(),
	expires_at = CASE
		WHEN expires_after->>'days' IS NOT NULL THEN NOW() + make_interval(days => (expires_after->>'days')::int)
		ELSE expires_at
	END
WHERE id = `, storeID)

	res, err := ext.ExecContext(ctx, q.String(), q.Args()...)
	if err != nil {
		return classify(err, pgvserr.CodeStoreDatabaseFailure, "recording ingest", pgvserr.FieldVectorStoreID(id))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return pgvserr.Wrap(err, pgvserr.CodeStoreDatabaseFailure, "recording ingest", pgvserr.FieldVectorStoreID(id))
	}
	if n == 0 {
		return pgvserr.New(pgvserr.CodeStoreVectorStoreNotFound, "vector store not found", pgvserr.FieldVectorStoreID(id))
	}

	slog.Debug("recorded ingest", "vector_store_id", id, "items", len(contentLengths), "bytes", usage)
	return nil
}

func marshalMetadata(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "", pgvserr.Wrap(err, pgvserr.CodeStoreInsertInvalid, "encoding metadata")
	}
	return string(raw), nil
}

// unmarshalJSON decodes a nullable JSON column; NULL and empty leave dest untouched.
func unmarshalJSON(raw []byte, dest any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}
