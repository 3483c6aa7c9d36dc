// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package vectorstore

import (
	"context"
	"log/slog"

	"github.com/rlquilez/litellm-pgvector/internal/embedding"
	"github.com/rlquilez/litellm-pgvector/internal/store"
	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

// Item is one piece of content to ingest. A nil Embedding asks the service
// to embed Content with the configured provider.
type Item struct {
	Content   string
	Embedding []float32
	Metadata  map[string]any
}

// Insert stores one item in a vector store.
func (s *Service) Insert(ctx context.Context, vectorStoreID string, item Item) (*store.EmbeddingRecord, error) {
	recs, err := s.prepare(ctx, vectorStoreID, []Item{item})
	if err != nil {
		return nil, err
	}
	if err := s.backend.Embeddings().Insert(ctx, recs[0]); err != nil {
		return nil, err
	}

	slog.Debug("inserted embedding", "vector_store_id", vectorStoreID, "embedding_id", recs[0].ID)
	return recs[0], nil
}

// InsertBatch stores items atomically. An empty batch is rejected before
// any database call.
func (s *Service) InsertBatch(ctx context.Context, vectorStoreID string, items []Item) ([]*store.EmbeddingRecord, error) {
	if len(items) == 0 {
		return nil, pgvserr.New(pgvserr.CodeVectorStoreRequestInvalid, "embeddings must contain at least one item",
			pgvserr.FieldVectorStoreID(vectorStoreID))
	}

	recs, err := s.prepare(ctx, vectorStoreID, items)
	if err != nil {
		return nil, err
	}
	if err := s.backend.Embeddings().InsertBatch(ctx, vectorStoreID, recs); err != nil {
		return nil, err
	}

	slog.Debug("inserted embedding batch", "vector_store_id", vectorStoreID, "count", len(recs))
	return recs, nil
}

// prepare validates items, checks the store exists and fills in missing
// embeddings with a single provider call.
func (s *Service) prepare(ctx context.Context, vectorStoreID string, items []Item) ([]*store.EmbeddingRecord, error) {
	var missing []int
	for i, item := range items {
		if item.Content == "" {
			return nil, pgvserr.Errorf(pgvserr.CodeVectorStoreRequestInvalid, "item %d: content is required", i)
		}
		if item.Embedding == nil {
			missing = append(missing, i)
			continue
		}
		if err := embedding.CheckVector(item.Embedding, s.dims, pgvserr.CodeVectorStoreRequestInvalid); err != nil {
			return nil, pgvserr.Wrapf(err, pgvserr.CodeVectorStoreRequestInvalid, "item %d", i)
		}
	}

	if err := s.requireStore(ctx, vectorStoreID); err != nil {
		return nil, err
	}

	recs := make([]*store.EmbeddingRecord, len(items))
	for i, item := range items {
		recs[i] = &store.EmbeddingRecord{
			VectorStoreID: vectorStoreID,
			Content:       item.Content,
			Embedding:     item.Embedding,
			Metadata:      item.Metadata,
		}
	}

	if len(missing) > 0 {
		texts := make([]string, len(missing))
		for j, i := range missing {
			texts[j] = items[i].Content
		}
		res, err := s.embed(ctx, texts)
		if err != nil {
			return nil, err
		}
		for j, i := range missing {
			recs[i].Embedding = res.Vectors[j]
		}
	}
	return recs, nil
}
