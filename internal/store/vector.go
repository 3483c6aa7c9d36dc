// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package store

import "math"

const (
	DefaultListLimit   = 20
	MaxListLimit       = 100
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100

	// DefaultVectorDimensions matches OpenAI text-embedding-ada-002.
	DefaultVectorDimensions = 1536
)

// ClampListLimit returns the effective page size for ListOpts.Limit: zero
// means the default, anything else is clamped to [1, MaxListLimit].
func ClampListLimit(limit int) int {
	if limit == 0 {
		return DefaultListLimit
	}
	return max(1, min(limit, MaxListLimit))
}

// ClampSearchLimit returns the effective result cap for a search.
// Non-positive limits mean "use the default".
func ClampSearchLimit(limit int) int {
	return clamp(limit, DefaultSearchLimit, MaxSearchLimit)
}

func clamp(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, maxLimit)
}

// Score converts a cosine distance in [0, 2] into a similarity in [0, 1].
// Identical directions score 1, opposite directions score 0.
func Score(distance float64) float64 {
	if math.IsNaN(distance) {
		return 0
	}
	return math.Min(1, math.Max(0, 1-distance/2))
}
