// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

// Package embedding turns text into vectors through an OpenAI-compatible
// embeddings endpoint, typically a LiteLLM proxy.
package embedding

import (
	"context"
	"math"

	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
	"github.com/rlquilez/litellm-pgvector/pkg/health"
)

// Provider embeds text.
type Provider interface {
	// Embed returns one vector per input text, in input order. Every vector
	// has exactly Dimensions() elements.
	Embed(ctx context.Context, texts []string) (*Result, error)
	Model() string
	Dimensions() int
}

// HealthReporter is implemented by providers that track upstream health.
type HealthReporter interface {
	HealthMetrics() health.Metrics
}

// Result is the outcome of one Embed call.
type Result struct {
	Vectors [][]float32
	// PromptTokens is the upstream token usage; zero for cached vectors.
	PromptTokens int64
}

// CheckVector verifies v has dims finite elements, failing with code.
func CheckVector(v []float32, dims int, code pgvserr.Code) error {
	if len(v) != dims {
		return pgvserr.Errorf(code, "embedding has %d dimensions, expected %d", len(v), dims)
	}
	for i, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return pgvserr.Errorf(code, "embedding element %d is not a finite number", i)
		}
	}
	return nil
}
