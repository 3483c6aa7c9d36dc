// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rlquilez/litellm-pgvector/internal/config"
	"github.com/rlquilez/litellm-pgvector/internal/embedding"
	"github.com/rlquilez/litellm-pgvector/internal/server"
	"github.com/rlquilez/litellm-pgvector/internal/store"
	"github.com/rlquilez/litellm-pgvector/internal/store/postgres"
	"github.com/rlquilez/litellm-pgvector/internal/vectorstore"
	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

// App holds all wired subsystems and manages their lifecycle.
type App struct {
	Server   *server.Server
	Backend  store.Backend
	Embedder embedding.Provider
}

// WireApp opens the database, builds the embedding provider and the HTTP
// server, and wires them together.
func WireApp(ctx context.Context, cfg *config.Config) (*App, error) {
	storageCfg := cfg.StorageConfig()

	// 1. Storage backend.
	backend, err := store.Open(ctx, storageCfg)
	if err != nil {
		return nil, pgvserr.Wrap(err, pgvserr.CodeCLISetupFailure, "opening storage backend")
	}

	if cfg.Database.AutoMigrate {
		pg, ok := backend.(*postgres.Backend)
		if !ok {
			_ = backend.Close()
			return nil, pgvserr.New(pgvserr.CodeCLISetupFailure, "auto_migrate requires the postgres backend")
		}
		if err := postgres.Migrate(ctx, pg.DB(), storageCfg.Schema); err != nil {
			_ = backend.Close()
			return nil, pgvserr.Wrap(err, pgvserr.CodeCLISetupFailure, "applying migrations")
		}
	}

	// 2. Embedding provider, optionally cached.
	embedder, err := newEmbedder(cfg.Embedding)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	// 3. Vector store service.
	svc, err := vectorstore.New(backend, embedder)
	if err != nil {
		_ = backend.Close()
		return nil, pgvserr.Wrap(err, pgvserr.CodeCLISetupFailure, "creating vector store service")
	}

	// 4. HTTP server.
	srv, err := server.New(serverConfig(cfg), svc)
	if err != nil {
		_ = backend.Close()
		return nil, pgvserr.Wrap(err, pgvserr.CodeCLISetupFailure, "creating server")
	}

	slog.Info("wired vector store service",
		"embedding_model", embedder.Model(),
		"dimensions", embedder.Dimensions(),
		"embeddings_table", storageCfg.Schema.EmbeddingsTable,
	)

	return &App{Server: srv, Backend: backend, Embedder: embedder}, nil
}

// Start runs the HTTP server and blocks until the context is cancelled.
func (a *App) Start(ctx context.Context) error {
	return a.Server.Start(ctx)
}

// Close releases all resources held by the app.
func (a *App) Close() error {
	var errs []error
	if a.Server != nil {
		a.Server.Close()
	}
	if a.Backend != nil {
		if err := a.Backend.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// newEmbedder builds the OpenAI-compatible provider and wraps it in the
// query cache when one is configured.
func newEmbedder(cfg config.EmbeddingConfig) (embedding.Provider, error) {
	provider, err := embedding.NewOpenAI(embeddingConfig(cfg))
	if err != nil {
		return nil, pgvserr.Wrap(err, pgvserr.CodeCLISetupFailure, "creating embedding provider")
	}
	if cfg.Cache.Size <= 0 {
		return provider, nil
	}
	slog.Debug("embedding cache enabled", "size", cfg.Cache.Size, "ttl", cfg.Cache.TTL)
	return embedding.NewCached(provider, cfg.Cache.Size, cfg.Cache.TTL), nil
}

func embeddingConfig(cfg config.EmbeddingConfig) embedding.Config {
	return embedding.Config{
		Model:      cfg.Model,
		BaseURL:    cfg.BaseURL,
		APIKey:     cfg.APIKey,
		Dimensions: cfg.Dimensions,
		Timeout:    cfg.Timeout,
	}
}

func serverConfig(cfg *config.Config) server.Config {
	return server.Config{
		ListenAddr:   cfg.Server.Listen,
		APIKey:       cfg.Server.APIKey,
		CORSOrigins:  cfg.Server.CORSOrigins,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		RateLimit: server.RateLimitConfig{
			RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
			Burst:             cfg.Server.RateLimit.Burst,
		},
	}
}
