// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package store

import "time"

// StatusCompleted is the only status a vector store is created with.
const StatusCompleted = "completed"

// ExpiryAnchorLastActiveAt is the only supported expiry anchor.
const ExpiryAnchorLastActiveAt = "last_active_at"

// FileCounts is the fixed-shape aggregate of ingested items in a vector store.
type FileCounts struct {
	InProgress int64 `json:"in_progress"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	Cancelled  int64 `json:"cancelled"`
	Total      int64 `json:"total"`
}

// ExpiresAfter is the expiration policy of a vector store.
type ExpiresAfter struct {
	Anchor string `json:"anchor"`
	Days   int    `json:"days"`
}

// VectorStore is a named collection of embedding records with usage aggregates.
type VectorStore struct {
	ID           string
	Name         string
	CreatedAt    time.Time
	UsageBytes   int64
	FileCounts   FileCounts
	Status       string
	ExpiresAfter *ExpiresAfter
	ExpiresAt    *time.Time
	LastActiveAt *time.Time
	Metadata     map[string]any
}

// NewVectorStore carries the caller-supplied fields of a store to create.
type NewVectorStore struct {
	Name         string
	ExpiresAfter *ExpiresAfter
	Metadata     map[string]any
}

// EmbeddingRecord is one embedded chunk of content owned by a vector store.
// ID and CreatedAt are assigned on insert.
type EmbeddingRecord struct {
	ID            string
	VectorStoreID string
	Content       string
	Embedding     []float32
	Metadata      map[string]any
	CreatedAt     time.Time
}

// SearchQuery describes a nearest-neighbour search inside one vector store.
type SearchQuery struct {
	VectorStoreID string
	Embedding     []float32
	// Filters are exact-match equality constraints on metadata keys, ANDed together.
	Filters map[string]any
	Limit   int
}

// SearchHit is a single ranked search result.
type SearchHit struct {
	ID       string
	Content  string
	Metadata map[string]any
	// Distance is the raw cosine distance in [0, 2].
	Distance float64
	// Score is the normalized similarity in [0, 1].
	Score float64
}

// ListOpts controls cursor pagination over vector stores.
// After and Before are store IDs; at most one may be set.
type ListOpts struct {
	Limit  int
	After  string
	Before string
}

// Page is one page of vector stores, newest first.
type Page struct {
	Stores  []*VectorStore
	HasMore bool
}
