// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package store_test

import (
	"context"
	"testing"

	"github.com/rlquilez/litellm-pgvector/internal/store"
	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopBackend struct{ cfg store.StorageConfig }

func (b *nopBackend) VectorStores() store.VectorStoreRepository { return nil }
func (b *nopBackend) Embeddings() store.EmbeddingRepository     { return nil }
func (b *nopBackend) Ping(context.Context) error                 { return nil }
func (b *nopBackend) Close() error                               { return nil }

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := store.Open(context.Background(), &store.StorageConfig{Backend: "unknown"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")
	assert.True(t, pgvserr.HasCode(err, pgvserr.CodeStoreBackendUnsupported))
}

func TestOpen_ResolvesDefaults(t *testing.T) {
	var got store.StorageConfig
	store.RegisterBackend("test-defaults", func(_ context.Context, cfg store.StorageConfig) (store.Backend, error) {
		got = cfg
		return &nopBackend{cfg: cfg}, nil
	})

	b, err := store.Open(context.Background(), &store.StorageConfig{Backend: "test-defaults"})
	require.NoError(t, err)
	assert.NotNil(t, b)
	assert.Equal(t, store.DefaultVectorDimensions, got.VectorDimensions)
	assert.True(t, got.Schema.IsDefault())
}

func TestOpen_RejectsInvalidSchema(t *testing.T) {
	called := false
	store.RegisterBackend("test-schema", func(_ context.Context, cfg store.StorageConfig) (store.Backend, error) {
		called = true
		return &nopBackend{cfg: cfg}, nil
	})

	cfg := &store.StorageConfig{Backend: "test-schema"}
	cfg.Schema.Fields.Content = `content"; DROP TABLE embeddings; --`

	_, err := store.Open(context.Background(), cfg)
	require.Error(t, err)
	assert.False(t, called, "factory must not run with an invalid schema")
	assert.Contains(t, err.Error(), "fields.content")
}
