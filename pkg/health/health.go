// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

// Package health holds the serializable health types shared by the server
// and the CLI.
package health

import "time"

// StatusHealthy is the status reported by a live server.
const StatusHealthy = "healthy"

// Metrics is a point-in-time snapshot of an upstream dependency's health.
type Metrics struct {
	FailureCount  int64      `json:"failure_count"`
	LastFailureAt *time.Time `json:"last_failure_at,omitempty"`
	CooldownUntil *time.Time `json:"cooldown_until,omitempty"`
	Available     bool       `json:"available"`
}

// Report is the body of GET /health. Timestamp is unix seconds.
type Report struct {
	Status    string   `json:"status"`
	Timestamp int64    `json:"timestamp"`
	Embedding *Metrics `json:"embedding,omitempty"`
}
