// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

// defaultHTTPClient is the HTTP client used by commands that talk to a
// running server. Overridden in tests.
var defaultHTTPClient = &http.Client{
	Timeout: 5 * time.Second,
}

// apiClient provides HTTP access to a running pgvs server.
type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// newAPIClient creates a client targeting the given host:port address.
func newAPIClient(addr, apiKey string) *apiClient {
	return &apiClient{
		baseURL: "http://" + addr,
		apiKey:  apiKey,
		http:    defaultHTTPClient,
	}
}

// getJSON performs a GET request and decodes the JSON response into dest.
// A refused connection yields CodeCLIServerNotRunning.
func (c *apiClient) getJSON(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return pgvserr.Errorf(pgvserr.CodeCLIRequestFailure, "building request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isDialError(err) {
			return pgvserr.New(pgvserr.CodeCLIServerNotRunning, "server is not running (connection refused)")
		}
		return pgvserr.Errorf(pgvserr.CodeCLIRequestFailure, "request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return pgvserr.Errorf(pgvserr.CodeCLIRequestFailure, "server returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pgvserr.Errorf(pgvserr.CodeCLIResponseInvalid, "invalid response: %w", err)
	}
	return nil
}

// isDialError returns true if err is a net dial error (connection refused, etc.).
func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}
