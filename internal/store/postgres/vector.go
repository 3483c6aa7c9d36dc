// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/rlquilez/litellm-pgvector/internal/store"
	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

// encodeVector renders v as a pgvector text literal, e.g. "[0.1,0.2,0.3]".
func encodeVector(v []float32) string {
	var sb strings.Builder
	sb.Grow(len(v)*10 + 2)
	sb.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}

// checkDimensions fails when the embedding column is declared as vector(n)
// with n other than dims. A missing table or an unsized column passes.
func checkDimensions(ctx context.Context, db *sqlx.DB, schema store.Schema, dims int) error {
	const stmt = `SELECT atttypmod FROM pg_attribute
WHERE attrelid = to_regclass($1) AND attname = $2 AND NOT attisdropped`

	var typmod int
	err := db.GetContext(ctx, &typmod, stmt, ident(schema.EmbeddingsTable), schema.Fields.Embedding)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return pgvserr.Wrap(err, pgvserr.CodeStoreDatabaseFailure, "reading embedding column type",
			pgvserr.FieldTable(schema.EmbeddingsTable))
	}
	if typmod > 0 && typmod != dims {
		return pgvserr.Errorf(pgvserr.CodeStoreSchemaInvalid,
			"column %s.%s is vector(%d) but embeddings have %d dimensions",
			schema.EmbeddingsTable, schema.Fields.Embedding, typmod, dims)
	}
	return nil
}
