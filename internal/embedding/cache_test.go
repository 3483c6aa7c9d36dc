// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package embedding_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlquilez/litellm-pgvector/internal/embedding"
)

type countingProvider struct {
	calls  int
	inputs [][]string
}

func (p *countingProvider) Model() string   { return "m" }
func (p *countingProvider) Dimensions() int { return 1 }

func (p *countingProvider) Embed(_ context.Context, texts []string) (*embedding.Result, error) {
	p.calls++
	p.inputs = append(p.inputs, texts)
	res := &embedding.Result{PromptTokens: int64(len(texts))}
	for _, t := range texts {
		res.Vectors = append(res.Vectors, []float32{float32(len(t))})
	}
	return res, nil
}

func TestCachedProvider_OnlyMissesGoUpstream(t *testing.T) {
	inner := &countingProvider{}
	c := embedding.NewCached(inner, 10, time.Minute)
	ctx := context.Background()

	res, err := c.Embed(ctx, []string{"aa"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{2}}, res.Vectors)
	assert.Equal(t, int64(1), res.PromptTokens)

	res, err = c.Embed(ctx, []string{"bbb", "aa"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{3}, {2}}, res.Vectors)
	assert.Equal(t, [][]string{{"aa"}, {"bbb"}}, inner.inputs)

	res, err = c.Embed(ctx, []string{"aa"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.PromptTokens, "cache hits report no token usage")
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 2, c.Len())
}

func TestCachedProvider_ReturnsCopies(t *testing.T) {
	c := embedding.NewCached(&countingProvider{}, 10, 0)
	ctx := context.Background()

	res, err := c.Embed(ctx, []string{"x"})
	require.NoError(t, err)
	res.Vectors[0][0] = 99

	res, err = c.Embed(ctx, []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, float32(1), res.Vectors[0][0])
}

func TestCachedProvider_Health(t *testing.T) {
	c := embedding.NewCached(&countingProvider{}, 1, 0)
	assert.True(t, c.HealthMetrics().Available)
	assert.Equal(t, "m", c.Model())
	assert.Equal(t, 1, c.Dimensions())
}

func TestHealthTracker_Cooldown(t *testing.T) {
	h, err := embedding.NewHealthTracker(time.Minute)
	require.NoError(t, err)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h.SetNowFunc(func() time.Time { return now })

	h.RecordFailure()
	m := h.HealthMetrics()
	assert.False(t, m.Available)
	require.NotNil(t, m.CooldownUntil)
	assert.Equal(t, now.Add(time.Minute), *m.CooldownUntil)

	now = now.Add(2 * time.Minute)
	assert.True(t, h.HealthMetrics().Available)

	h.RecordSuccess()
	m = h.HealthMetrics()
	assert.Nil(t, m.CooldownUntil)
	assert.Equal(t, int64(1), m.FailureCount)

	_, err = embedding.NewHealthTracker(0)
	assert.Error(t, err)
}
