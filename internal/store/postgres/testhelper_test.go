// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package postgres_test

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/rlquilez/litellm-pgvector/internal/store"
	"github.com/rlquilez/litellm-pgvector/internal/store/postgres"
)

// newMockBackend returns a Backend over sqlmock and verifies every
// expectation was met when the test ends.
func newMockBackend(t *testing.T) (*postgres.Backend, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db := sqlx.NewDb(mockDB, "sqlmock")
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return postgres.NewWithDB(db, store.DefaultSchema()), mock
}

var vectorStoreColumns = []string{
	"id", "name", "file_counts", "status", "usage_bytes",
	"expires_after", "expires_at", "last_active_at", "metadata", "created_at",
}
