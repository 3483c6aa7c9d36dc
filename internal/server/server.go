// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rlquilez/litellm-pgvector/internal/store"
	"github.com/rlquilez/litellm-pgvector/internal/vectorstore"
	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
	"github.com/rlquilez/litellm-pgvector/pkg/health"
)

// Version is reported in the OpenAPI document. Set by the CLI at startup.
var Version = "dev"

// Config holds HTTP server configuration.
type Config struct {
	ListenAddr   string
	APIKey       string
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RateLimit    RateLimitConfig
	// MaxBodyBytes caps request bodies of the embedding insert routes.
	// Zero uses DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// DefaultMaxBodyBytes leaves room for batches of several hundred
// client-supplied 1536-dimension vectors.
const DefaultMaxBodyBytes = 32 << 20

// Service is the vector store surface the HTTP layer drives.
type Service interface {
	CreateStore(ctx context.Context, in store.NewVectorStore) (*store.VectorStore, error)
	GetStore(ctx context.Context, id string) (*store.VectorStore, error)
	ListStores(ctx context.Context, opts store.ListOpts) (*store.Page, error)
	Insert(ctx context.Context, vectorStoreID string, item vectorstore.Item) (*store.EmbeddingRecord, error)
	InsertBatch(ctx context.Context, vectorStoreID string, items []vectorstore.Item) ([]*store.EmbeddingRecord, error)
	Search(ctx context.Context, req vectorstore.SearchRequest) (*vectorstore.SearchResult, error)
	EmbeddingHealth() *health.Metrics
}

// Compile-time interface check.
var _ Service = (*vectorstore.Service)(nil)

// Server wraps a chi router with huma API and HTTP server.
type Server struct {
	router chi.Router
	api    huma.API
	cfg    Config
	svc    Service

	done      chan struct{}
	closeOnce sync.Once
	now       func() time.Time
}

// New creates a Server with the full middleware stack and every route
// registered.
func New(cfg Config, svc Service) (*Server, error) {
	if cfg.ListenAddr == "" {
		return nil, pgvserr.New(pgvserr.CodeServerConfigInvalid, "listen address is required")
	}
	if cfg.APIKey == "" {
		return nil, pgvserr.New(pgvserr.CodeServerConfigInvalid, "api key is required")
	}
	if svc == nil {
		return nil, pgvserr.New(pgvserr.CodeServerConfigInvalid, "vector store service is required")
	}
	if err := cfg.RateLimit.Validate(); err != nil {
		return nil, err
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 60 * time.Second
	}
	if cfg.MaxBodyBytes < 0 {
		return nil, pgvserr.Errorf(pgvserr.CodeServerConfigInvalid,
			"max body bytes must not be negative (got %d)", cfg.MaxBodyBytes)
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		cfg:  cfg,
		svc:  svc,
		done: make(chan struct{}),
		now:  time.Now,
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware(cfg.RateLimit, s.done))
	r.Use(authMiddleware(cfg.APIKey))

	// Huma API with OpenAPI spec
	humaConfig := huma.DefaultConfig("OpenAI Vector Stores API", Version)
	humaConfig.Info.Description = "OpenAI-compatible vector stores backed by PostgreSQL and pgvector"
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}
	api := humachi.New(r, humaConfig)

	s.router = r
	s.api = api
	s.registerRoutes()

	return s, nil
}

// Handler returns the underlying http.Handler for testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// API returns the huma API, used to render the OpenAPI document.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background goroutines. Safe to call more than once.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Start runs the HTTP server and blocks until the context is cancelled,
// then performs graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	defer s.Close()

	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return pgvserr.Wrapf(err, pgvserr.CodeServerStartFailure, "listening on %s", s.cfg.ListenAddr)
	}

	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	slog.Info("http server listening", "addr", ln.Addr().String())

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return pgvserr.Wrap(err, pgvserr.CodeServerStartFailure, "serving http")
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return pgvserr.Wrap(err, pgvserr.CodeServerShutdownFailure, "shutting down")
	}
	slog.Info("http server stopped")

	return <-errCh
}

func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "OpenAI-Beta"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// requestLogger logs one line per request once the response is written.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		level := slog.LevelInfo
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
			"remote", r.RemoteAddr,
		)
	})
}
