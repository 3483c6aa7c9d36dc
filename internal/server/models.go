// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package server

import (
	"time"

	"github.com/rlquilez/litellm-pgvector/internal/store"
	"github.com/rlquilez/litellm-pgvector/internal/vectorstore"
	"github.com/rlquilez/litellm-pgvector/pkg/health"
)

// Request bodies accept unknown fields so OpenAI clients that send extra
// parameters keep working. Semantic validation happens in the service and
// answers 400.

// ExpiresAfter is the expiration policy of a vector store.
type ExpiresAfter struct {
	Anchor string `json:"anchor" required:"false" doc:"Timestamp the policy counts from; only last_active_at"`
	Days   int    `json:"days" required:"false" doc:"Days after the anchor until the store expires, 1-365"`
}

// FileCounts is the ingest aggregate of a vector store.
type FileCounts struct {
	InProgress int64 `json:"in_progress"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
	Cancelled  int64 `json:"cancelled"`
	Total      int64 `json:"total"`
}

// VectorStoreObject is the OpenAI-compatible vector store representation.
type VectorStoreObject struct {
	ID           string         `json:"id" doc:"Vector store ID"`
	Object       string         `json:"object" example:"vector_store"`
	CreatedAt    int64          `json:"created_at" doc:"Unix seconds"`
	Name         string         `json:"name"`
	UsageBytes   int64          `json:"usage_bytes" doc:"Total bytes of stored content"`
	FileCounts   FileCounts     `json:"file_counts"`
	Status       string         `json:"status" example:"completed"`
	ExpiresAfter *ExpiresAfter  `json:"expires_after,omitempty"`
	ExpiresAt    *int64         `json:"expires_at,omitempty" doc:"Unix seconds"`
	LastActiveAt *int64         `json:"last_active_at,omitempty" doc:"Unix seconds"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type createVectorStoreInput struct {
	Body struct {
		_                struct{}       `json:"-" additionalProperties:"true"`
		Name             string         `json:"name" required:"false" doc:"Vector store name"`
		FileIDs          []string       `json:"file_ids,omitempty" doc:"Accepted for compatibility; files are not ingested"`
		ExpiresAfter     *ExpiresAfter  `json:"expires_after,omitempty"`
		ChunkingStrategy map[string]any `json:"chunking_strategy,omitempty" doc:"Accepted for compatibility; ignored"`
		Metadata         map[string]any `json:"metadata,omitempty"`
	}
}

type vectorStoreOutput struct {
	Body VectorStoreObject
}

type listVectorStoresInput struct {
	Limit  int    `query:"limit" doc:"Page size, 1-100 (default 20)"`
	After  string `query:"after" doc:"Return stores created before this store ID"`
	Before string `query:"before" doc:"Return stores created after this store ID"`
}

type listVectorStoresOutput struct {
	Body struct {
		Object  string              `json:"object" example:"list"`
		Data    []VectorStoreObject `json:"data"`
		FirstID *string             `json:"first_id"`
		LastID  *string             `json:"last_id"`
		HasMore bool                `json:"has_more"`
	}
}

type getVectorStoreInput struct {
	ID string `path:"id" doc:"Vector store ID"`
}

type searchInput struct {
	ID   string `path:"id" doc:"Vector store ID"`
	Body struct {
		_              struct{}       `json:"-" additionalProperties:"true"`
		Query          string         `json:"query" required:"false" doc:"Text to search for"`
		Limit          int            `json:"limit,omitempty" doc:"Maximum results, capped at 100 (default 20)"`
		MaxNumResults  int            `json:"max_num_results,omitempty" doc:"OpenAI alias of limit"`
		Filters        map[string]any `json:"filters,omitempty" doc:"Exact-match metadata filters, ANDed"`
		ReturnMetadata *bool          `json:"return_metadata,omitempty" doc:"Include metadata in results (default true)"`
	}
}

// SearchResult is one ranked hit.
type SearchResult struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Score    float64        `json:"score" minimum:"0" maximum:"1"`
	Metadata map[string]any `json:"metadata,omitzero" doc:"Present only when return_metadata is true"`
}

// Usage reports token consumption.
type Usage struct {
	TotalTokens int64 `json:"total_tokens"`
}

type searchOutput struct {
	Body struct {
		Object string         `json:"object" example:"vector_store.search"`
		Data   []SearchResult `json:"data"`
		Usage  Usage          `json:"usage"`
	}
}

// EmbeddingInput is one item to ingest.
type EmbeddingInput struct {
	_         struct{}       `json:"-" additionalProperties:"true"`
	Content   string         `json:"content" required:"false"`
	Embedding []float32      `json:"embedding,omitempty" doc:"Pre-computed vector; generated from content when omitted"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// EmbeddingObject is a stored embedding record, without its vector.
type EmbeddingObject struct {
	ID            string         `json:"id"`
	Object        string         `json:"object" example:"embedding"`
	VectorStoreID string         `json:"vector_store_id"`
	Content       string         `json:"content"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     int64          `json:"created_at" doc:"Unix seconds"`
}

type createEmbeddingInput struct {
	ID   string `path:"id" doc:"Vector store ID"`
	Body EmbeddingInput
}

type embeddingOutput struct {
	Body EmbeddingObject
}

type createEmbeddingBatchInput struct {
	ID   string `path:"id" doc:"Vector store ID"`
	Body struct {
		_          struct{}         `json:"-" additionalProperties:"true"`
		Embeddings []EmbeddingInput `json:"embeddings" required:"false"`
	}
}

type embeddingBatchOutput struct {
	Body struct {
		Object  string            `json:"object" example:"embedding.batch"`
		Data    []EmbeddingObject `json:"data"`
		Created int64             `json:"created" doc:"Unix seconds"`
	}
}

type healthOutput struct {
	Body health.Report
}

func toVectorStoreObject(vs *store.VectorStore) VectorStoreObject {
	out := VectorStoreObject{
		ID:           vs.ID,
		Object:       "vector_store",
		CreatedAt:    vs.CreatedAt.Unix(),
		Name:         vs.Name,
		UsageBytes:   vs.UsageBytes,
		FileCounts:   FileCounts(vs.FileCounts),
		Status:       vs.Status,
		ExpiresAt:    unixPtr(vs.ExpiresAt),
		LastActiveAt: unixPtr(vs.LastActiveAt),
		Metadata:     vs.Metadata,
	}
	if vs.ExpiresAfter != nil {
		out.ExpiresAfter = &ExpiresAfter{Anchor: vs.ExpiresAfter.Anchor, Days: vs.ExpiresAfter.Days}
	}
	return out
}

func toEmbeddingObject(rec *store.EmbeddingRecord) EmbeddingObject {
	return EmbeddingObject{
		ID:            rec.ID,
		Object:        "embedding",
		VectorStoreID: rec.VectorStoreID,
		Content:       rec.Content,
		Metadata:      rec.Metadata,
		CreatedAt:     rec.CreatedAt.Unix(),
	}
}

func toItem(in EmbeddingInput) vectorstore.Item {
	return vectorstore.Item{
		Content:   in.Content,
		Embedding: in.Embedding,
		Metadata:  in.Metadata,
	}
}

func unixPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	u := t.Unix()
	return &u
}
