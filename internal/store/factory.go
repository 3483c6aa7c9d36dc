// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package store

import (
	"context"
	"sync"

	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

// BackendFactory opens a Backend from a resolved StorageConfig.
type BackendFactory func(ctx context.Context, cfg StorageConfig) (Backend, error)

var (
	backendFactories = map[string]BackendFactory{}
	factoriesMu      sync.RWMutex
)

// RegisterBackend registers the factory for a named storage backend.
// Backend packages call this from init(). This function is goroutine-safe.
func RegisterBackend(name string, factory BackendFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	backendFactories[name] = factory
}

// resolveBackend returns the effective backend name, defaulting to "postgres".
func resolveBackend(cfg *StorageConfig) string {
	if cfg.Backend == "" {
		return "postgres"
	}
	return cfg.Backend
}

// Open resolves defaults, validates the schema and opens the configured backend.
func Open(ctx context.Context, cfg *StorageConfig) (Backend, error) {
	backend := resolveBackend(cfg)

	factoriesMu.RLock()
	factory, ok := backendFactories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, pgvserr.Errorf(pgvserr.CodeStoreBackendUnsupported, "unsupported storage backend: %q", backend)
	}

	resolved := *cfg
	resolved.Backend = backend
	if resolved.VectorDimensions <= 0 {
		resolved.VectorDimensions = DefaultVectorDimensions
	}
	resolved.Schema = resolved.Schema.WithDefaults()
	if err := resolved.Schema.Validate(); err != nil {
		return nil, err
	}

	return factory(ctx, resolved)
}
