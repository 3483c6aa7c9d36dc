// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlquilez/litellm-pgvector/internal/store"
	"github.com/rlquilez/litellm-pgvector/internal/store/postgres"
	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

func TestCheckDimensions(t *testing.T) {
	tests := []struct {
		name     string
		rows     *sqlmock.Rows
		wantCode pgvserr.Code
	}{
		{"matching size", sqlmock.NewRows([]string{"atttypmod"}).AddRow(1536), ""},
		{"unsized column", sqlmock.NewRows([]string{"atttypmod"}).AddRow(-1), ""},
		{"table not created yet", sqlmock.NewRows([]string{"atttypmod"}), ""},
		{"size mismatch", sqlmock.NewRows([]string{"atttypmod"}).AddRow(768), pgvserr.CodeStoreSchemaInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, mock := newMockBackend(t)
			mock.ExpectQuery(`SELECT atttypmod FROM pg_attribute`).
				WithArgs(`"embeddings"`, "embedding").
				WillReturnRows(tt.rows)

			err := postgres.CheckDimensions(context.Background(), b.DB(), store.DefaultSchema(), 1536)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, pgvserr.HasCode(err, tt.wantCode))
			assert.Contains(t, err.Error(), "vector(768)")
		})
	}
}

func TestCheckDimensions_QueryError(t *testing.T) {
	b, mock := newMockBackend(t)
	mock.ExpectQuery(`SELECT atttypmod FROM pg_attribute`).WillReturnError(errors.New("boom"))

	err := postgres.CheckDimensions(context.Background(), b.DB(), store.DefaultSchema(), 1536)
	require.Error(t, err)
	assert.True(t, pgvserr.HasCode(err, pgvserr.CodeStoreDatabaseFailure))
}
