// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/rlquilez/litellm-pgvector/internal/store"
	"github.com/rlquilez/litellm-pgvector/internal/vectorstore"
	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
	"github.com/rlquilez/litellm-pgvector/pkg/health"
)

var bearerSecurity = []map[string][]string{{"bearer": {}}}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"system"},
	}, s.handleHealth)

	// Vector store endpoints
	huma.Register(s.api, huma.Operation{
		OperationID: "create-vector-store",
		Method:      http.MethodPost,
		Path:        "/v1/vector_stores",
		Summary:     "Create a vector store",
		Tags:        []string{"vector_stores"},
		Security:    bearerSecurity,
	}, s.handleCreateVectorStore)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-vector-stores",
		Method:      http.MethodGet,
		Path:        "/v1/vector_stores",
		Summary:     "List vector stores, newest first",
		Tags:        []string{"vector_stores"},
		Security:    bearerSecurity,
	}, s.handleListVectorStores)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-vector-store",
		Method:      http.MethodGet,
		Path:        "/v1/vector_stores/{id}",
		Summary:     "Retrieve a vector store",
		Tags:        []string{"vector_stores"},
		Security:    bearerSecurity,
	}, s.handleGetVectorStore)

	huma.Register(s.api, huma.Operation{
		OperationID: "search-vector-store",
		Method:      http.MethodPost,
		Path:        "/v1/vector_stores/{id}/search",
		Summary:     "Search a vector store by similarity",
		Tags:        []string{"vector_stores"},
		Security:    bearerSecurity,
	}, s.handleSearch)

	// Embedding endpoints
	huma.Register(s.api, huma.Operation{
		OperationID:  "create-embedding",
		Method:       http.MethodPost,
		Path:         "/v1/vector_stores/{id}/embeddings",
		Summary:      "Add one embedding to a vector store",
		Tags:         []string{"embeddings"},
		Security:     bearerSecurity,
		MaxBodyBytes: s.cfg.MaxBodyBytes,
	}, s.handleCreateEmbedding)

	huma.Register(s.api, huma.Operation{
		OperationID:  "create-embedding-batch",
		Method:       http.MethodPost,
		Path:         "/v1/vector_stores/{id}/embeddings/batch",
		Summary:      "Add several embeddings to a vector store atomically",
		Tags:         []string{"embeddings"},
		Security:     bearerSecurity,
		MaxBodyBytes: s.cfg.MaxBodyBytes,
	}, s.handleCreateEmbeddingBatch)
}

func (s *Server) handleHealth(_ context.Context, _ *struct{}) (*healthOutput, error) {
	out := &healthOutput{}
	out.Body = health.Report{
		Status:    health.StatusHealthy,
		Timestamp: s.now().Unix(),
		Embedding: s.svc.EmbeddingHealth(),
	}
	return out, nil
}

func (s *Server) handleCreateVectorStore(ctx context.Context, input *createVectorStoreInput) (*vectorStoreOutput, error) {
	in := store.NewVectorStore{
		Name:     input.Body.Name,
		Metadata: input.Body.Metadata,
	}
	if ea := input.Body.ExpiresAfter; ea != nil {
		in.ExpiresAfter = &store.ExpiresAfter{Anchor: ea.Anchor, Days: ea.Days}
	}

	vs, err := s.svc.CreateStore(ctx, in)
	if err != nil {
		return nil, toHumaError(ctx, err, "creating vector store")
	}
	return &vectorStoreOutput{Body: toVectorStoreObject(vs)}, nil
}

func (s *Server) handleListVectorStores(ctx context.Context, input *listVectorStoresInput) (*listVectorStoresOutput, error) {
	page, err := s.svc.ListStores(ctx, store.ListOpts{
		Limit:  input.Limit,
		After:  input.After,
		Before: input.Before,
	})
	if err != nil {
		return nil, toHumaError(ctx, err, "listing vector stores")
	}

	out := &listVectorStoresOutput{}
	out.Body.Object = "list"
	out.Body.HasMore = page.HasMore
	out.Body.Data = make([]VectorStoreObject, 0, len(page.Stores))
	for _, vs := range page.Stores {
		out.Body.Data = append(out.Body.Data, toVectorStoreObject(vs))
	}
	if n := len(out.Body.Data); n > 0 {
		first, last := out.Body.Data[0].ID, out.Body.Data[n-1].ID
		out.Body.FirstID, out.Body.LastID = &first, &last
	}
	return out, nil
}

func (s *Server) handleGetVectorStore(ctx context.Context, input *getVectorStoreInput) (*vectorStoreOutput, error) {
	vs, err := s.svc.GetStore(ctx, input.ID)
	if err != nil {
		return nil, toHumaError(ctx, err, "retrieving vector store")
	}
	return &vectorStoreOutput{Body: toVectorStoreObject(vs)}, nil
}

func (s *Server) handleSearch(ctx context.Context, input *searchInput) (*searchOutput, error) {
	limit := input.Body.Limit
	if limit == 0 {
		limit = input.Body.MaxNumResults
	}
	returnMetadata := true
	if input.Body.ReturnMetadata != nil {
		returnMetadata = *input.Body.ReturnMetadata
	}

	res, err := s.svc.Search(ctx, vectorstore.SearchRequest{
		VectorStoreID:  input.ID,
		Query:          input.Body.Query,
		Limit:          limit,
		Filters:        input.Body.Filters,
		ReturnMetadata: returnMetadata,
	})
	if err != nil {
		return nil, toHumaError(ctx, err, "searching vector store")
	}

	out := &searchOutput{}
	out.Body.Object = "vector_store.search"
	out.Body.Usage = Usage{TotalTokens: res.PromptTokens}
	out.Body.Data = make([]SearchResult, 0, len(res.Hits))
	for _, h := range res.Hits {
		metadata := h.Metadata
		if returnMetadata && metadata == nil {
			metadata = map[string]any{}
		}
		out.Body.Data = append(out.Body.Data, SearchResult{
			ID:       h.ID,
			Content:  h.Content,
			Score:    h.Score,
			Metadata: metadata,
		})
	}
	return out, nil
}

func (s *Server) handleCreateEmbedding(ctx context.Context, input *createEmbeddingInput) (*embeddingOutput, error) {
	rec, err := s.svc.Insert(ctx, input.ID, toItem(input.Body))
	if err != nil {
		return nil, toHumaError(ctx, err, "creating embedding")
	}
	return &embeddingOutput{Body: toEmbeddingObject(rec)}, nil
}

func (s *Server) handleCreateEmbeddingBatch(ctx context.Context, input *createEmbeddingBatchInput) (*embeddingBatchOutput, error) {
	items := make([]vectorstore.Item, len(input.Body.Embeddings))
	for i, e := range input.Body.Embeddings {
		items[i] = toItem(e)
	}

	recs, err := s.svc.InsertBatch(ctx, input.ID, items)
	if err != nil {
		return nil, toHumaError(ctx, err, "creating embedding batch")
	}

	out := &embeddingBatchOutput{}
	out.Body.Object = "embedding.batch"
	out.Body.Created = s.now().Unix()
	out.Body.Data = make([]EmbeddingObject, 0, len(recs))
	for _, rec := range recs {
		out.Body.Data = append(out.Body.Data, toEmbeddingObject(rec))
	}
	return out, nil
}

// toHumaError maps a coded error to an HTTP error. Client errors carry the
// error text; server errors carry op and a category so internals stay in
// the log.
func toHumaError(ctx context.Context, err error, op string) error {
	status := pgvserr.HTTPStatus(err)
	if status < http.StatusInternalServerError {
		slog.DebugContext(ctx, "request rejected", "op", op, "status", status, "error", err)
		return huma.NewError(status, err.Error())
	}

	slog.ErrorContext(ctx, "request failed", "op", op, "code", pgvserr.CodeOf(err), "error", err)
	return huma.NewError(status, op+": "+failureCategory(err))
}

func failureCategory(err error) string {
	switch pgvserr.CodeOf(err) {
	case pgvserr.CodeEmbeddingProviderFailure:
		return "embedding provider failure"
	case pgvserr.CodeEmbeddingDimensionMismatch:
		return "embedding provider returned vectors of the wrong dimensionality"
	case pgvserr.CodeStoreQueryFailure:
		return "search query failed"
	case pgvserr.CodeStoreDatabaseFailure:
		return "database failure"
	default:
		return "internal server error"
	}
}
