// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package embedding

import (
	"context"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/rlquilez/litellm-pgvector/pkg/health"
)

// Compile-time interface check.
var _ Provider = (*CachedProvider)(nil)

// CachedProvider memoizes vectors per (model, text) in an expiring LRU.
// Only texts that miss are sent upstream.
type CachedProvider struct {
	next  Provider
	cache *expirable.LRU[string, []float32]
}

// NewCached wraps next with a cache of size entries. A ttl of zero keeps
// entries until they are evicted by size.
func NewCached(next Provider, size int, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		next:  next,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

func (c *CachedProvider) Model() string { return c.next.Model() }

func (c *CachedProvider) Dimensions() int { return c.next.Dimensions() }

// HealthMetrics reports the wrapped provider's health, or an always
// available snapshot when it does not track any.
func (c *CachedProvider) HealthMetrics() health.Metrics {
	if hr, ok := c.next.(HealthReporter); ok {
		return hr.HealthMetrics()
	}
	return health.Metrics{Available: true}
}

// Len reports the number of cached vectors.
func (c *CachedProvider) Len() int { return c.cache.Len() }

func (c *CachedProvider) Embed(ctx context.Context, texts []string) (*Result, error) {
	out := &Result{Vectors: make([][]float32, len(texts))}

	var (
		missTexts []string
		missIdx   []int
	)
	for i, text := range texts {
		if v, ok := c.cache.Get(c.key(text)); ok {
			out.Vectors[i] = slices.Clone(v)
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	res, err := c.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, v := range res.Vectors {
		out.Vectors[missIdx[j]] = v
		c.cache.Add(c.key(missTexts[j]), slices.Clone(v))
	}
	out.PromptTokens = res.PromptTokens
	return out, nil
}

func (c *CachedProvider) key(text string) string {
	return c.next.Model() + "\x00" + text
}
