// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package vectorstore

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/rlquilez/litellm-pgvector/internal/store"
	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

// SearchRequest is a text query against one vector store.
type SearchRequest struct {
	VectorStoreID  string
	Query          string
	Limit          int
	Filters        map[string]any
	ReturnMetadata bool
}

// SearchResult holds ranked hits, best first.
type SearchResult struct {
	Hits []store.SearchHit
	// PromptTokens is what the provider charged for embedding the query.
	PromptTokens int64
}

// Search embeds the query text and ranks the store's records by cosine
// similarity. A missing store fails before the provider is called.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, pgvserr.New(pgvserr.CodeVectorStoreRequestInvalid, "query is required",
			pgvserr.FieldVectorStoreID(req.VectorStoreID))
	}
	if req.Limit < 0 {
		return nil, pgvserr.Errorf(pgvserr.CodeVectorStoreRequestInvalid, "limit must not be negative, got %d", req.Limit)
	}

	if err := s.requireStore(ctx, req.VectorStoreID); err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := s.embed(ctx, []string{req.Query})
	if err != nil {
		return nil, err
	}

	hits, err := s.backend.Embeddings().Search(ctx, store.SearchQuery{
		VectorStoreID: req.VectorStoreID,
		Embedding:     res.Vectors[0],
		Filters:       req.Filters,
		Limit:         req.Limit,
	})
	if err != nil {
		return nil, err
	}

	if !req.ReturnMetadata {
		for i := range hits {
			hits[i].Metadata = nil
		}
	}

	slog.Debug("searched vector store",
		"vector_store_id", req.VectorStoreID,
		"filters", len(req.Filters),
		"hits", len(hits),
		"duration", time.Since(start))
	return &SearchResult{Hits: hits, PromptTokens: res.PromptTokens}, nil
}
