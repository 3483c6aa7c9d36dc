// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package store

import (
	"errors"
	"regexp"
	"time"

	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

// StorageConfig controls which backend the store factory opens and how.
type StorageConfig struct {
	Backend          string // "postgres" is the only supported backend for now.
	URL              string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	VectorDimensions int // Embedding dimensions; 0 uses the default (1536).
	Schema           Schema
}

// Schema names the tables and embedding columns the backend queries.
// Names are trusted configuration, never request input, and are checked by
// Validate before any query is built from them.
type Schema struct {
	VectorStoresTable string
	EmbeddingsTable   string
	Fields            FieldNames
}

// FieldNames maps the logical embedding columns to physical column names.
type FieldNames struct {
	ID            string
	Content       string
	Metadata      string
	Embedding     string
	VectorStoreID string
	CreatedAt     string
}

// DefaultSchema returns the schema created by the bundled migrations.
func DefaultSchema() Schema {
	return Schema{
		VectorStoresTable: "vector_stores",
		EmbeddingsTable:   "embeddings",
		Fields: FieldNames{
			ID:            "id",
			Content:       "content",
			Metadata:      "metadata",
			Embedding:     "embedding",
			VectorStoreID: "vector_store_id",
			CreatedAt:     "created_at",
		},
	}
}

// WithDefaults fills empty names from DefaultSchema.
func (s Schema) WithDefaults() Schema {
	d := DefaultSchema()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&s.VectorStoresTable, d.VectorStoresTable)
	fill(&s.EmbeddingsTable, d.EmbeddingsTable)
	fill(&s.Fields.ID, d.Fields.ID)
	fill(&s.Fields.Content, d.Fields.Content)
	fill(&s.Fields.Metadata, d.Fields.Metadata)
	fill(&s.Fields.Embedding, d.Fields.Embedding)
	fill(&s.Fields.VectorStoreID, d.Fields.VectorStoreID)
	fill(&s.Fields.CreatedAt, d.Fields.CreatedAt)
	return s
}

// IsDefault reports whether s names exactly the default tables and columns.
func (s Schema) IsDefault() bool {
	return s == DefaultSchema()
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Validate checks every table and column name is a plain SQL identifier.
func (s Schema) Validate() error {
	names := []struct{ key, value string }{
		{"vector_stores_table", s.VectorStoresTable},
		{"embeddings_table", s.EmbeddingsTable},
		{"fields.id", s.Fields.ID},
		{"fields.content", s.Fields.Content},
		{"fields.metadata", s.Fields.Metadata},
		{"fields.embedding", s.Fields.Embedding},
		{"fields.vector_store_id", s.Fields.VectorStoreID},
		{"fields.created_at", s.Fields.CreatedAt},
	}

	var errs []error
	for _, n := range names {
		if !identifierRe.MatchString(n.value) {
			errs = append(errs, pgvserr.Errorf(pgvserr.CodeStoreSchemaInvalid,
				"schema: %s must be a plain SQL identifier, got %q", n.key, n.value))
		}
	}
	if len(errs) > 0 {
		return pgvserr.Errorf(pgvserr.CodeStoreSchemaInvalid, "invalid schema: %w", errors.Join(errs...))
	}
	return nil
}
