// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package embedding_test

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlquilez/litellm-pgvector/internal/embedding"
	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// fakeEmbeddings serves /embeddings, answering each input with vectorFor.
// Data entries are returned in reverse order to exercise index sorting.
func fakeEmbeddings(t *testing.T, vectorFor func(text string) []float64) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req embeddingsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": vectorFor(req.Input[i]),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
			"usage":  map[string]any{"prompt_tokens": 3 * len(req.Input), "total_tokens": 3 * len(req.Input)},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newProvider(t *testing.T, baseURL string, dims int) *embedding.OpenAIProvider {
	t.Helper()
	p, err := embedding.NewOpenAI(embedding.Config{
		Model:      "text-embedding-3-small",
		BaseURL:    baseURL,
		APIKey:     "sk-test",
		Dimensions: dims,
	})
	require.NoError(t, err)
	return p
}

func TestOpenAIProvider_Embed(t *testing.T) {
	srv, _ := fakeEmbeddings(t, func(text string) []float64 {
		return []float64{float64(len(text)), 0.5}
	})
	p := newProvider(t, srv.URL, 2)

	res, err := p.Embed(context.Background(), []string{"a", "bbb"})
	require.NoError(t, err)
	require.Len(t, res.Vectors, 2)
	assert.Equal(t, []float32{1, 0.5}, res.Vectors[0])
	assert.Equal(t, []float32{3, 0.5}, res.Vectors[1])
	assert.Equal(t, int64(6), res.PromptTokens)
	assert.True(t, p.HealthMetrics().Available)
}

func TestOpenAIProvider_DimensionMismatch(t *testing.T) {
	srv, _ := fakeEmbeddings(t, func(string) []float64 { return []float64{1, 2, 3} })
	p := newProvider(t, srv.URL, 2)

	_, err := p.Embed(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Equal(t, pgvserr.CodeEmbeddingDimensionMismatch, pgvserr.CodeOf(err))
	assert.Equal(t, 500, pgvserr.HTTPStatus(err))

	m := p.HealthMetrics()
	assert.False(t, m.Available)
	assert.Equal(t, int64(1), m.FailureCount)
}

func TestOpenAIProvider_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream down","type":"server_error"}}`))
	}))
	t.Cleanup(srv.Close)
	p := newProvider(t, srv.URL, 2)

	_, err := p.Embed(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Equal(t, pgvserr.CodeEmbeddingProviderFailure, pgvserr.CodeOf(err))
	assert.Equal(t, http.StatusBadGateway, pgvserr.FieldsOf(err)["upstream_status"])
}

func TestOpenAIProvider_EmptyInput(t *testing.T) {
	srv, calls := fakeEmbeddings(t, func(string) []float64 { return []float64{1} })
	p := newProvider(t, srv.URL, 1)

	res, err := p.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Vectors)
	assert.Equal(t, int32(0), calls.Load())
}

func TestNewOpenAI_InvalidConfig(t *testing.T) {
	_, err := embedding.NewOpenAI(embedding.Config{Dimensions: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model")
	assert.True(t, pgvserr.IsInvalidInput(err))

	_, err = embedding.NewOpenAI(embedding.Config{Model: "m"})
	require.Error(t, err)
	assert.Equal(t, pgvserr.CodeEmbeddingConfigInvalid, pgvserr.CodeOf(err))
}

func TestCheckVector(t *testing.T) {
	code := pgvserr.CodeVectorStoreRequestInvalid
	assert.NoError(t, embedding.CheckVector([]float32{1, 2}, 2, code))

	err := embedding.CheckVector([]float32{1}, 2, code)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2")
	assert.Equal(t, code, pgvserr.CodeOf(err))

	assert.Error(t, embedding.CheckVector([]float32{1, float32(math.NaN())}, 2, code))
	assert.Error(t, embedding.CheckVector([]float32{1, float32(math.Inf(1))}, 2, code))
}
