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

func TestMigrate_RejectsCustomSchema(t *testing.T) {
	b, _ := newMockBackend(t)
	schema := store.DefaultSchema()
	schema.EmbeddingsTable = "chunks"

	err := postgres.Migrate(context.Background(), b.DB(), schema)
	require.Error(t, err)
	assert.True(t, pgvserr.HasCode(err, pgvserr.CodeStoreMigrateFailure))
}

func TestStatus_ReturnsConnectionAndKeepsPoolOpen(t *testing.T) {
	b, mock := newMockBackend(t)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT CURRENT_DATABASE\(\)`).WillReturnError(errors.New("boom"))

	_, err := postgres.Status(ctx, b.DB())
	require.Error(t, err)
	assert.True(t, pgvserr.HasCode(err, pgvserr.CodeStoreMigrateFailure))
	assert.Zero(t, b.DB().Stats().InUse)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("vs_1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := b.VectorStores().Exists(ctx, "vs_1")
	require.NoError(t, err)
	assert.True(t, ok)
}
