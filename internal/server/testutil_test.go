// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rlquilez/litellm-pgvector/internal/embedding"
	"github.com/rlquilez/litellm-pgvector/internal/server"
	"github.com/rlquilez/litellm-pgvector/internal/store/storetest"
	"github.com/rlquilez/litellm-pgvector/internal/vectorstore"
)

const (
	testAPIKey = "test-key"
	testDims   = 3
)

// axisEmbedder embeds every text onto the first axis unless mapped.
// Zero dims means testDims.
type axisEmbedder struct {
	dims    int
	vectors map[string][]float32
}

func (e *axisEmbedder) Model() string { return "axis" }

func (e *axisEmbedder) Dimensions() int {
	if e.dims == 0 {
		return testDims
	}
	return e.dims
}

func (e *axisEmbedder) Embed(_ context.Context, texts []string) (*embedding.Result, error) {
	res := &embedding.Result{PromptTokens: int64(len(texts))}
	for _, t := range texts {
		v, ok := e.vectors[t]
		if !ok {
			v = make([]float32, e.Dimensions())
			v[0] = 1
		}
		res.Vectors = append(res.Vectors, v)
	}
	return res, nil
}

type testEnv struct {
	srv *server.Server
	mem *storetest.Memory
	emb *axisEmbedder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, server.Config{})
}

func newTestEnvWithConfig(t *testing.T, cfg server.Config) *testEnv {
	t.Helper()
	return newTestEnvWithDims(t, cfg, testDims)
}

func newTestEnvWithDims(t *testing.T, cfg server.Config, dims int) *testEnv {
	t.Helper()
	mem := storetest.NewMemory()
	emb := &axisEmbedder{dims: dims, vectors: map[string][]float32{}}
	svc, err := vectorstore.New(mem, emb)
	require.NoError(t, err)

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "127.0.0.1:0"
	}
	if cfg.APIKey == "" {
		cfg.APIKey = testAPIKey
	}
	srv, err := server.New(cfg, svc)
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, mem: mem, emb: emb}
}

// do sends an authenticated JSON request and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

// decode unmarshals a response body into a generic map.
func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func mustCreateStore(t *testing.T, e *testEnv, name string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/v1/vector_stores", map[string]any{"name": name})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)["id"].(string)
}
