// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package postgres_test

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlquilez/litellm-pgvector/internal/store"
	"github.com/rlquilez/litellm-pgvector/internal/store/postgres"
	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

func TestEncodeVector(t *testing.T) {
	assert.Equal(t, "[]", postgres.EncodeVector(nil))
	assert.Equal(t, "[1,0.5,-0.25]", postgres.EncodeVector([]float32{1, 0.5, -0.25}))
	assert.Equal(t, "[0.1]", postgres.EncodeVector([]float32{0.1}))
}

func TestFilterText(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "docs", "docs"},
		{"bool", true, "true"},
		{"integral float", float64(3), "3"},
		{"fraction", 2.5, "2.5"},
		{"json number", json.Number("42"), "42"},
		{"int", 7, "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := postgres.FilterText(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []any{nil, map[string]any{"a": 1}, []any{"x"}} {
		_, err := postgres.FilterText(bad)
		assert.Error(t, err, "%T should be rejected", bad)
	}
}

func TestBuildSearchQuery(t *testing.T) {
	sql, args, err := postgres.BuildSearchQuery(store.DefaultSchema(), store.SearchQuery{
		VectorStoreID: "vs_1",
		Embedding:     []float32{1, 0.5},
		Filters:       map[string]any{"b": true, "a": "x"},
	})
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT "id" AS id, "content" AS content, "metadata" AS metadata, `+
			`("embedding" <=> $1::vector) AS distance FROM "embeddings" `+
			`WHERE "vector_store_id" = $2 `+
			`AND "metadata" ->> $3 = $4 AND "metadata" ->> $5 = $6 `+
			`ORDER BY distance ASC LIMIT $7`,
		sql)
	assert.Equal(t, []any{"[1,0.5]", "vs_1", "a", "x", "b", "true", store.DefaultSearchLimit}, args)
}

func TestBuildSearchQuery_CustomSchema(t *testing.T) {
	schema := store.Schema{
		EmbeddingsTable: "chunks",
		Fields:          store.FieldNames{Content: "body", Embedding: "vec"},
	}.WithDefaults()

	sql, args, err := postgres.BuildSearchQuery(schema, store.SearchQuery{
		VectorStoreID: "vs_1",
		Embedding:     []float32{1},
		Limit:         500,
	})
	require.NoError(t, err)
	assert.Contains(t, sql, `"body" AS content`)
	assert.Contains(t, sql, `("vec" <=> $1::vector)`)
	assert.Contains(t, sql, `FROM "chunks"`)
	assert.Equal(t, store.MaxSearchLimit, args[len(args)-1])
}

func TestBuildSearchQuery_InvalidFilter(t *testing.T) {
	_, _, err := postgres.BuildSearchQuery(store.DefaultSchema(), store.SearchQuery{
		VectorStoreID: "vs_1",
		Embedding:     []float32{1},
		Filters:       map[string]any{"nested": map[string]any{"x": 1}},
	})
	require.Error(t, err)
	assert.Equal(t, pgvserr.CodeStoreSearchFilterInvalid, pgvserr.CodeOf(err))
	assert.True(t, pgvserr.IsInvalidInput(err))

	_, _, err = postgres.BuildSearchQuery(store.DefaultSchema(), store.SearchQuery{
		VectorStoreID: "vs_1",
		Embedding:     []float32{1},
		Filters:       map[string]any{"": "x"},
	})
	assert.Equal(t, pgvserr.CodeStoreSearchFilterInvalid, pgvserr.CodeOf(err))
}

func TestSearch_ScoresHits(t *testing.T) {
	b, mock := newMockBackend(t)

	mock.ExpectQuery(regexp.QuoteMeta(`("embedding" <=> $1::vector) AS distance`)).
		WithArgs("[1,0]", "vs_1", "source", "docs", 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "metadata", "distance"}).
			AddRow("e1", "close", []byte(`{"source":"docs"}`), 0.0).
			AddRow("e2", "far", []byte(`{"source":"docs"}`), 1.5))

	hits, err := b.Embeddings().Search(context.Background(), store.SearchQuery{
		VectorStoreID: "vs_1",
		Embedding:     []float32{1, 0},
		Filters:       map[string]any{"source": "docs"},
		Limit:         2,
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "e1", hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, map[string]any{"source": "docs"}, hits[0].Metadata)
	assert.InDelta(t, 0.25, hits[1].Score, 1e-9)
	assert.InDelta(t, 1.5, hits[1].Distance, 1e-9)
}

func TestSearch_DatabaseError(t *testing.T) {
	b, mock := newMockBackend(t)

	mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)

	_, err := b.Embeddings().Search(context.Background(), store.SearchQuery{
		VectorStoreID: "vs_1",
		Embedding:     []float32{1},
	})
	require.Error(t, err)
	assert.Equal(t, pgvserr.CodeStoreQueryFailure, pgvserr.CodeOf(err))
}
