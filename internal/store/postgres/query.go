// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package postgres

import (
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// query accumulates SQL text and its positional arguments.
// Only identifiers from a validated store.Schema are written as text;
// every request-supplied value goes through arg.
type query struct {
	sb   strings.Builder
	args []any
}

// arg records v and returns its placeholder.
func (q *query) arg(v any) string {
	q.args = append(q.args, v)
	return "$" + strconv.Itoa(len(q.args))
}

func (q *query) write(parts ...string) *query {
	for _, p := range parts {
		q.sb.WriteString(p)
	}
	return q
}

func (q *query) String() string { return q.sb.String() }

func (q *query) Args() []any { return q.args }

// ident quotes a trusted identifier.
func ident(name string) string {
	return pq.QuoteIdentifier(name)
}
