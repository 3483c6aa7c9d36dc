// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

// Package storetest provides an in-memory store.Backend for tests of the
// layers above the database. It mirrors the Postgres backend's observable
// behaviour: cursor pagination, ingest accounting and cosine ranking.
package storetest

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rlquilez/litellm-pgvector/internal/store"
	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

// Compile-time interface checks.
var (
	_ store.Backend               = (*Memory)(nil)
	_ store.VectorStoreRepository = (*memoryStores)(nil)
	_ store.EmbeddingRepository   = (*memoryEmbeddings)(nil)
)

// Calls counts repository invocations so tests can assert short-circuits.
type Calls struct {
	Create, Get, Exists, List, RecordIngest int
	Insert, InsertBatch, Search             int
}

// Memory is a goroutine-safe in-memory Backend.
type Memory struct {
	mu      sync.Mutex
	now     time.Time
	stores  map[string]*store.VectorStore
	records map[string][]*store.EmbeddingRecord
	calls   Calls

	// Err, when set, is returned by every repository call.
	Err error
}

// NewMemory returns an empty backend whose clock starts at a fixed instant
// and advances one second per write.
func NewMemory() *Memory {
	return &Memory{
		now:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		stores:  map[string]*store.VectorStore{},
		records: map[string][]*store.EmbeddingRecord{},
	}
}

func (m *Memory) VectorStores() store.VectorStoreRepository { return (*memoryStores)(m) }

func (m *Memory) Embeddings() store.EmbeddingRepository { return (*memoryEmbeddings)(m) }

func (m *Memory) Ping(context.Context) error { return m.Err }

func (m *Memory) Close() error { return nil }

// Calls returns a snapshot of the call counters.
func (m *Memory) Calls() Calls {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Records returns the records stored in a vector store.
func (m *Memory) Records(vectorStoreID string) []*store.EmbeddingRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.records[vectorStoreID])
}

func (m *Memory) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

type memoryStores Memory

func (s *memoryStores) Create(_ context.Context, in store.NewVectorStore) (*store.VectorStore, error) {
	m := (*Memory)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Create++
	if m.Err != nil {
		return nil, m.Err
	}

	now := m.tick()
	vs := &store.VectorStore{
		ID:           uuid.NewString(),
		Name:         in.Name,
		CreatedAt:    now,
		Status:       store.StatusCompleted,
		ExpiresAfter: in.ExpiresAfter,
		LastActiveAt: &now,
		Metadata:     maps.Clone(in.Metadata),
	}
	if in.ExpiresAfter != nil {
		exp := now.AddDate(0, 0, in.ExpiresAfter.Days)
		vs.ExpiresAt = &exp
	}
	m.stores[vs.ID] = vs
	return clone(vs), nil
}

func (s *memoryStores) Get(_ context.Context, id string) (*store.VectorStore, error) {
	m := (*Memory)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Get++
	if m.Err != nil {
		return nil, m.Err
	}

	vs, ok := m.stores[id]
	if !ok {
		return nil, notFound(id)
	}
	return clone(vs), nil
}

func (s *memoryStores) Exists(_ context.Context, id string) (bool, error) {
	m := (*Memory)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Exists++
	if m.Err != nil {
		return false, m.Err
	}

	_, ok := m.stores[id]
	return ok, nil
}

func (s *memoryStores) List(_ context.Context, opts store.ListOpts) (*store.Page, error) {
	m := (*Memory)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.List++
	if m.Err != nil {
		return nil, m.Err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	all := slices.Collect(maps.Values(m.stores))
	slices.SortFunc(all, func(a, b *store.VectorStore) int {
		return -cmpStore(a, b)
	})

	cursorID := cmp.Or(opts.After, opts.Before)
	var cursor *store.VectorStore
	if cursorID != "" {
		var ok bool
		if cursor, ok = m.stores[cursorID]; !ok {
			return nil, pgvserr.Errorf(pgvserr.CodeStoreCursorInvalid, "cursor %q does not name a vector store", cursorID)
		}
	}

	limit := store.ClampListLimit(opts.Limit)
	var window []*store.VectorStore
	switch {
	case opts.After != "":
		for _, vs := range all {
			if cmpStore(vs, cursor) < 0 {
				window = append(window, vs)
			}
		}
	case opts.Before != "":
		// Closest to the cursor first, as the ascending SQL scan would see them.
		for i := len(all) - 1; i >= 0; i-- {
			if cmpStore(all[i], cursor) > 0 {
				window = append(window, all[i])
			}
		}
	default:
		window = all
	}

	page := &store.Page{HasMore: len(window) > limit}
	if page.HasMore {
		window = window[:limit]
	}
	if opts.Before != "" {
		slices.Reverse(window)
	}
	for _, vs := range window {
		page.Stores = append(page.Stores, clone(vs))
	}
	return page, nil
}

func (s *memoryStores) RecordIngest(_ context.Context, id string, contentLengths []int) error {
	m := (*Memory)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.RecordIngest++
	if m.Err != nil {
		return m.Err
	}
	return m.recordIngestLocked(id, contentLengths)
}

func (m *Memory) recordIngestLocked(id string, contentLengths []int) error {
	if len(contentLengths) == 0 {
		return nil
	}
	vs, ok := m.stores[id]
	if !ok {
		return notFound(id)
	}

	n := int64(len(contentLengths))
	vs.FileCounts.Completed += n
	vs.FileCounts.Total += n
	for _, l := range contentLengths {
		vs.UsageBytes += int64(l)
	}
	now := m.tick()
	vs.LastActiveAt = &now
	if vs.ExpiresAfter != nil {
		exp := now.AddDate(0, 0, vs.ExpiresAfter.Days)
		vs.ExpiresAt = &exp
	}
	return nil
}

type memoryEmbeddings Memory

func (e *memoryEmbeddings) Insert(_ context.Context, rec *store.EmbeddingRecord) error {
	m := (*Memory)(e)
	m.mu.Lock()
	m.calls.Insert++
	m.mu.Unlock()
	return e.insert(rec.VectorStoreID, []*store.EmbeddingRecord{rec})
}

func (e *memoryEmbeddings) InsertBatch(_ context.Context, vectorStoreID string, recs []*store.EmbeddingRecord) error {
	m := (*Memory)(e)
	m.mu.Lock()
	m.calls.InsertBatch++
	m.mu.Unlock()
	if len(recs) == 0 {
		return pgvserr.New(pgvserr.CodeStoreInsertInvalid, "batch must contain at least one embedding")
	}
	return e.insert(vectorStoreID, recs)
}

func (e *memoryEmbeddings) insert(vectorStoreID string, recs []*store.EmbeddingRecord) error {
	m := (*Memory)(e)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.stores[vectorStoreID]; !ok {
		return notFound(vectorStoreID)
	}

	now := m.tick()
	lengths := make([]int, len(recs))
	for i, rec := range recs {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		rec.VectorStoreID = vectorStoreID
		rec.CreatedAt = now
		lengths[i] = rec.ContentLength()

		stored := *rec
		stored.Embedding = slices.Clone(rec.Embedding)
		stored.Metadata = maps.Clone(rec.Metadata)
		m.records[vectorStoreID] = append(m.records[vectorStoreID], &stored)
	}
	return m.recordIngestLocked(vectorStoreID, lengths)
}

func (e *memoryEmbeddings) Search(_ context.Context, q store.SearchQuery) ([]store.SearchHit, error) {
	m := (*Memory)(e)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Search++
	if m.Err != nil {
		return nil, m.Err
	}

	want := make(map[string]string, len(q.Filters))
	for k, v := range q.Filters {
		if k == "" {
			return nil, pgvserr.New(pgvserr.CodeStoreSearchFilterInvalid, "filter key must not be empty")
		}
		text, err := scalarText(v)
		if err != nil {
			return nil, pgvserr.Wrapf(err, pgvserr.CodeStoreSearchFilterInvalid, "filter %q", k)
		}
		want[k] = text
	}

	var hits []store.SearchHit
	for _, rec := range m.records[q.VectorStoreID] {
		if !matches(rec.Metadata, want) {
			continue
		}
		d := cosineDistance(q.Embedding, rec.Embedding)
		hits = append(hits, store.SearchHit{
			ID:       rec.ID,
			Content:  rec.Content,
			Metadata: maps.Clone(rec.Metadata),
			Distance: d,
			Score:    store.Score(d),
		})
	}
	// Postgres orders NaN after every number.
	slices.SortStableFunc(hits, func(a, b store.SearchHit) int {
		return cmp.Compare(sortKey(a.Distance), sortKey(b.Distance))
	})

	if limit := store.ClampSearchLimit(q.Limit); len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func matches(metadata map[string]any, want map[string]string) bool {
	for k, v := range want {
		got, ok := metadata[k]
		if !ok {
			return false
		}
		text, err := scalarText(got)
		if err != nil || text != v {
			return false
		}
	}
	return true
}

func scalarText(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.NaN()
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return math.NaN()
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

func sortKey(d float64) float64 {
	if math.IsNaN(d) {
		return math.Inf(1)
	}
	return d
}

func cmpStore(a, b *store.VectorStore) int {
	return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
}

func clone(vs *store.VectorStore) *store.VectorStore {
	out := *vs
	out.Metadata = maps.Clone(vs.Metadata)
	return &out
}

func notFound(id string) error {
	return pgvserr.New(pgvserr.CodeStoreVectorStoreNotFound, "vector store not found", pgvserr.FieldVectorStoreID(id))
}
