// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/rlquilez/litellm-pgvector/internal/store"
	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

type searchRow struct {
	ID       string  `db:"id"`
	Content  string  `db:"content"`
	Metadata []byte  `db:"metadata"`
	Distance float64 `db:"distance"`
}

// Search returns the records of q.VectorStoreID nearest to q.Embedding by
// cosine distance, filtered by exact metadata matches.
func (r *EmbeddingRepository) Search(ctx context.Context, sq store.SearchQuery) ([]store.SearchHit, error) {
	q, err := buildSearchQuery(r.schema, sq)
	if err != nil {
		return nil, err
	}

	var rows []searchRow
	if err := r.db.SelectContext(ctx, &rows, q.String(), q.Args()...); err != nil {
		return nil, classify(err, pgvserr.CodeStoreQueryFailure, "searching embeddings",
			pgvserr.FieldVectorStoreID(sq.VectorStoreID))
	}

	hits := make([]store.SearchHit, 0, len(rows))
	for _, row := range rows {
		hit := store.SearchHit{
			ID:       row.ID,
			Content:  row.Content,
			Distance: row.Distance,
			Score:    store.Score(row.Distance),
		}
		if err := unmarshalJSON(row.Metadata, &hit.Metadata); err != nil {
			return nil, pgvserr.Wrap(err, pgvserr.CodeStoreQueryFailure, "decoding metadata",
				pgvserr.FieldVectorStoreID(sq.VectorStoreID))
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// buildSearchQuery renders the similarity query. Filter keys are sorted so
// equal queries produce identical SQL.
func buildSearchQuery(schema store.Schema, sq store.SearchQuery) (*query, error) {
	if len(sq.Embedding) == 0 {
		return nil, pgvserr.New(pgvserr.CodeVectorStoreRequestInvalid, "query embedding is empty",
			pgvserr.FieldVectorStoreID(sq.VectorStoreID))
	}
	f := schema.Fields

	q := &query{}
	vec := q.arg(encodeVector(sq.Embedding))
	q.write(`SELECT `,
		ident(f.ID), ` AS id, `,
		ident(f.Content), ` AS content, `,
		ident(f.Metadata), ` AS metadata, (`,
		ident(f.Embedding), ` <=> `, vec, `::vector) AS distance FROM `,
		ident(schema.EmbeddingsTable),
		` WHERE `, ident(f.VectorStoreID), ` = `, q.arg(sq.VectorStoreID))

	for _, key := range slices.Sorted(maps.Keys(sq.Filters)) {
		if key == "" {
			return nil, pgvserr.New(pgvserr.CodeStoreSearchFilterInvalid, "filter key must not be empty")
		}
		val, err := filterText(sq.Filters[key])
		if err != nil {
			return nil, pgvserr.Wrapf(err, pgvserr.CodeStoreSearchFilterInvalid, "filter %q", key)
		}
		q.write(` AND `, ident(f.Metadata), ` ->> `, q.arg(key), ` = `, q.arg(val))
	}

	q.write(` ORDER BY distance ASC LIMIT `, q.arg(store.ClampSearchLimit(sq.Limit)))
	return q, nil
}

// filterText renders a filter value the way Postgres' ->> renders the
// matching JSON scalar, so equality works for strings, numbers and booleans.
func filterText(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), nil
	case json.Number:
		return t.String(), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case nil:
		return "", fmt.Errorf("null values are not supported")
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}
