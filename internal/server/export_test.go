// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package server

import "time"

// SetNow overrides the server clock for testing.
func (s *Server) SetNow(fn func() time.Time) {
	s.now = fn
}
