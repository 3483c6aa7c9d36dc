// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

// Package vectorstore orchestrates vector store operations: existence checks,
// embedding generation and validation in front of the storage backend.
package vectorstore

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rlquilez/litellm-pgvector/internal/embedding"
	"github.com/rlquilez/litellm-pgvector/internal/store"
	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
	"github.com/rlquilez/litellm-pgvector/pkg/health"
)

// Service is safe for concurrent use; it holds no per-request state.
type Service struct {
	backend  store.Backend
	embedder embedding.Provider
	dims     int
}

// New wires a Service. The embedder's dimensions define the accepted
// vector length for every insert and search.
func New(backend store.Backend, embedder embedding.Provider) (*Service, error) {
	if backend == nil {
		return nil, pgvserr.New(pgvserr.CodeServerConfigInvalid, "vectorstore: backend is required")
	}
	if embedder == nil {
		return nil, pgvserr.New(pgvserr.CodeServerConfigInvalid, "vectorstore: embedding provider is required")
	}
	return &Service{
		backend:  backend,
		embedder: embedder,
		dims:     embedder.Dimensions(),
	}, nil
}

// Dimensions is the embedding length every record must have.
func (s *Service) Dimensions() int { return s.dims }

// Ping checks database connectivity.
func (s *Service) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// EmbeddingHealth reports the provider's health, or nil when it does not
// track any.
func (s *Service) EmbeddingHealth() *health.Metrics {
	hr, ok := s.embedder.(embedding.HealthReporter)
	if !ok {
		return nil
	}
	m := hr.HealthMetrics()
	return &m
}

// CreateStore creates an empty vector store.
func (s *Service) CreateStore(ctx context.Context, in store.NewVectorStore) (*store.VectorStore, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, pgvserr.New(pgvserr.CodeVectorStoreRequestInvalid, "name is required")
	}
	if in.ExpiresAfter != nil {
		if err := in.ExpiresAfter.Validate(); err != nil {
			return nil, err
		}
	}

	vs, err := s.backend.VectorStores().Create(ctx, in)
	if err != nil {
		return nil, err
	}
	slog.Info("created vector store", "vector_store_id", vs.ID, "name", vs.Name)
	return vs, nil
}

// GetStore loads one vector store.
func (s *Service) GetStore(ctx context.Context, id string) (*store.VectorStore, error) {
	return s.backend.VectorStores().Get(ctx, id)
}

// ListStores returns one page of stores, newest first.
func (s *Service) ListStores(ctx context.Context, opts store.ListOpts) (*store.Page, error) {
	return s.backend.VectorStores().List(ctx, opts)
}

// embed calls the provider and checks its answer has the configured shape.
func (s *Service) embed(ctx context.Context, texts []string) (*embedding.Result, error) {
	res, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(res.Vectors) != len(texts) {
		return nil, pgvserr.Errorf(pgvserr.CodeEmbeddingProviderFailure,
			"embedding provider returned %d vectors for %d inputs", len(res.Vectors), len(texts))
	}
	for _, v := range res.Vectors {
		if err := embedding.CheckVector(v, s.dims, pgvserr.CodeEmbeddingDimensionMismatch); err != nil {
			return nil, pgvserr.With(err, pgvserr.FieldModel(s.embedder.Model()))
		}
	}
	return res, nil
}

// requireStore is the existence gate in front of every store-scoped operation.
func (s *Service) requireStore(ctx context.Context, id string) error {
	ok, err := s.backend.VectorStores().Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return pgvserr.New(pgvserr.CodeStoreVectorStoreNotFound, "vector store not found",
			pgvserr.FieldVectorStoreID(id))
	}
	return nil
}
