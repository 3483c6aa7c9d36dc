// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package store

import "context"

// VectorStoreRepository manages vector store rows and their usage aggregates.
type VectorStoreRepository interface {
	Create(ctx context.Context, in NewVectorStore) (*VectorStore, error)
	Get(ctx context.Context, id string) (*VectorStore, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, opts ListOpts) (*Page, error)

	// RecordIngest atomically adds len(contentLengths) to the completed and
	// total file counts, adds their sum to usage bytes and refreshes
	// last_active_at.
	RecordIngest(ctx context.Context, id string, contentLengths []int) error
}

// EmbeddingRepository manages embedding records and similarity search.
type EmbeddingRepository interface {
	// Insert stores one record and records the ingest on its vector store.
	Insert(ctx context.Context, rec *EmbeddingRecord) error
	// InsertBatch stores all records in one statement and records one ingest.
	InsertBatch(ctx context.Context, vectorStoreID string, recs []*EmbeddingRecord) error
	Search(ctx context.Context, q SearchQuery) ([]SearchHit, error)
}

// Backend bundles the repositories of one storage backend.
type Backend interface {
	VectorStores() VectorStoreRepository
	Embeddings() EmbeddingRepository
	Ping(ctx context.Context) error
	Close() error
}
