// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/rlquilez/litellm-pgvector/internal/store"
)

// EncodeVector exposes encodeVector for testing.
func EncodeVector(v []float32) string { return encodeVector(v) }

// FilterText exposes filterText for testing.
func FilterText(v any) (string, error) { return filterText(v) }

// BuildSearchQuery exposes buildSearchQuery, returning the rendered SQL and args.
func BuildSearchQuery(schema store.Schema, sq store.SearchQuery) (string, []any, error) {
	q, err := buildSearchQuery(schema, sq)
	if err != nil {
		return "", nil, err
	}
	return q.String(), q.Args(), nil
}

// CheckDimensions exposes checkDimensions for testing.
func CheckDimensions(ctx context.Context, db *sqlx.DB, schema store.Schema, dims int) error {
	return checkDimensions(ctx, db, schema, dims)
}
