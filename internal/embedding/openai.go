// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package embedding

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
	"github.com/rlquilez/litellm-pgvector/pkg/health"
)

// Config holds OpenAI-compatible embedding endpoint configuration.
type Config struct {
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int
	Timeout    time.Duration
}

// Compile-time interface checks.
var (
	_ Provider       = (*OpenAIProvider)(nil)
	_ HealthReporter = (*OpenAIProvider)(nil)
)

// OpenAIProvider implements Provider using the OpenAI embeddings API.
type OpenAIProvider struct {
	client openaisdk.Client
	config Config
	health *HealthTracker
}

// NewOpenAI creates a provider. Requests are not retried.
func NewOpenAI(cfg Config) (*OpenAIProvider, error) {
	if cfg.Model == "" {
		return nil, pgvserr.New(pgvserr.CodeEmbeddingConfigInvalid, "embedding: missing model in config")
	}
	if cfg.Dimensions <= 0 {
		return nil, pgvserr.Errorf(pgvserr.CodeEmbeddingConfigInvalid,
			"embedding: dimensions must be positive, got %d", cfg.Dimensions)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	tracker, err := NewHealthTracker(DefaultHealthCooldown)
	if err != nil {
		return nil, err
	}

	return &OpenAIProvider{
		client: openaisdk.NewClient(opts...),
		config: cfg,
		health: tracker,
	}, nil
}

func (p *OpenAIProvider) Model() string { return p.config.Model }

func (p *OpenAIProvider) Dimensions() int { return p.config.Dimensions }

func (p *OpenAIProvider) HealthMetrics() health.Metrics { return p.health.HealthMetrics() }

// Embed sends all texts in one request.
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) (*Result, error) {
	if len(texts) == 0 {
		return &Result{}, nil
	}

	start := time.Now()
	resp, err := p.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Model: openaisdk.EmbeddingModel(p.config.Model),
		Input: openaisdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})
	if err != nil {
		p.health.RecordFailure()
		fields := []pgvserr.Attr{pgvserr.FieldModel(p.config.Model)}
		var apiErr *openaisdk.Error
		if errors.As(err, &apiErr) {
			fields = append(fields, pgvserr.Field("upstream_status", apiErr.StatusCode))
		}
		return nil, pgvserr.Wrap(err, pgvserr.CodeEmbeddingProviderFailure, "generating embeddings", fields...)
	}

	if len(resp.Data) != len(texts) {
		p.health.RecordFailure()
		return nil, pgvserr.Errorf(pgvserr.CodeEmbeddingProviderFailure,
			"embedding provider returned %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	data := slices.Clone(resp.Data)
	slices.SortFunc(data, func(a, b openaisdk.Embedding) int { return int(a.Index - b.Index) })

	out := &Result{
		Vectors:      make([][]float32, len(data)),
		PromptTokens: resp.Usage.PromptTokens,
	}
	for i, d := range data {
		vec := make([]float32, len(d.Embedding))
		for j, f := range d.Embedding {
			vec[j] = float32(f)
		}
		if err := CheckVector(vec, p.config.Dimensions, pgvserr.CodeEmbeddingDimensionMismatch); err != nil {
			p.health.RecordFailure()
			return nil, pgvserr.With(err, pgvserr.FieldModel(p.config.Model), pgvserr.Field("input_index", i))
		}
		out.Vectors[i] = vec
	}

	p.health.RecordSuccess()
	slog.Debug("generated embeddings",
		"model", p.config.Model, "inputs", len(texts),
		"prompt_tokens", out.PromptTokens, "duration", time.Since(start))
	return out, nil
}
