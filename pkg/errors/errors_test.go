// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// New / Errorf
// ---------------------------------------------------------------------------

func TestNewIncludesCodeAndFields(t *testing.T) {
	err := pgvserr.New(
		pgvserr.CodeStoreVectorStoreNotFound,
		"vector store not found",
		pgvserr.FieldVectorStoreID("vs-123"),
		pgvserr.Field("table", "vector_stores"),
	)

	require.Error(t, err)
	assert.Equal(t, pgvserr.CodeStoreVectorStoreNotFound, pgvserr.CodeOf(err))
	assert.True(t, pgvserr.HasCode(err, pgvserr.CodeStoreVectorStoreNotFound))

	fields := pgvserr.FieldsOf(err)
	assert.Equal(t, "vs-123", fields["vector_store_id"])
	assert.Equal(t, "vector_stores", fields["table"])
}

func TestErrorfWrapsInnerError(t *testing.T) {
	inner := stderrors.New("connection reset")
	err := pgvserr.Errorf(pgvserr.CodeStoreDatabaseFailure, "inserting store: %w", inner)
	require.Error(t, err)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, pgvserr.CodeStoreDatabaseFailure, pgvserr.CodeOf(err))
	assert.Contains(t, err.Error(), "inserting store")
}

// ---------------------------------------------------------------------------
// Wrap / Wrapf / With
// ---------------------------------------------------------------------------

func TestWrapPreservesWrappedErrorAndCode(t *testing.T) {
	root := stderrors.New("no rows")
	err := pgvserr.Wrap(root, pgvserr.CodeStoreVectorStoreNotFound, "loading store",
		pgvserr.FieldVectorStoreID("vs-42"))

	require.Error(t, err)
	assert.ErrorIs(t, err, root)
	assert.True(t, pgvserr.IsNotFound(err))
	assert.Equal(t, "vs-42", pgvserr.FieldsOf(err)["vector_store_id"])
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, pgvserr.Wrap(nil, pgvserr.CodeServerInternalFailure, "ignored"))
	assert.NoError(t, pgvserr.Wrapf(nil, pgvserr.CodeServerInternalFailure, "ignored %s", "arg"))
	assert.NoError(t, pgvserr.With(nil, pgvserr.FieldModel("m")))
}

func TestWrapfFormatsAndPreservesChain(t *testing.T) {
	root := stderrors.New("timeout")
	err := pgvserr.Wrapf(root, pgvserr.CodeEmbeddingProviderFailure, "embedding with %s", "text-embedding-3-small")

	assert.ErrorIs(t, err, root)
	assert.Equal(t, pgvserr.CodeEmbeddingProviderFailure, pgvserr.CodeOf(err))
	assert.Contains(t, err.Error(), "embedding with text-embedding-3-small")
}

func TestWithAddsContextWithoutChangingCode(t *testing.T) {
	base := pgvserr.New(pgvserr.CodeStoreQueryFailure, "query failed")
	withCtx := pgvserr.With(base, pgvserr.FieldTable("embeddings"))

	assert.Equal(t, pgvserr.CodeStoreQueryFailure, pgvserr.CodeOf(withCtx))
	assert.Equal(t, "embeddings", pgvserr.FieldsOf(withCtx)["table"])
}

func TestWithOnPlainErrorDefaultsToInternalCode(t *testing.T) {
	err := pgvserr.With(stderrors.New("plain"), pgvserr.Field("k", "v"))
	assert.Equal(t, pgvserr.CodeServerInternalFailure, pgvserr.CodeOf(err))
}

func TestCodeOfReturnsInnermostCodedError(t *testing.T) {
	inner := pgvserr.New(pgvserr.CodeStoreVectorStoreNotFound, "missing")
	outer := pgvserr.Wrap(inner, pgvserr.CodeStoreDatabaseFailure, "searching")
	assert.Equal(t, pgvserr.CodeStoreVectorStoreNotFound, pgvserr.CodeOf(outer))
	assert.Equal(t, http.StatusNotFound, pgvserr.HTTPStatus(outer))
}

func TestCodeOfPlainAndNil(t *testing.T) {
	assert.Equal(t, pgvserr.Code(""), pgvserr.CodeOf(nil))
	assert.Equal(t, pgvserr.Code(""), pgvserr.CodeOf(stderrors.New("plain")))
	assert.Nil(t, pgvserr.FieldsOf(nil))
	assert.Nil(t, pgvserr.FieldsOf(stderrors.New("plain")))
}

func TestFieldsWithEmptyKeyAreIgnored(t *testing.T) {
	err := pgvserr.New(pgvserr.CodeStoreQueryFailure, "x", pgvserr.Field("", "dropped"), pgvserr.Field("kept", 1))
	fields := pgvserr.FieldsOf(err)
	assert.NotContains(t, fields, "")
	assert.Equal(t, 1, fields["kept"])
}

// ---------------------------------------------------------------------------
// Classification
// ---------------------------------------------------------------------------

func TestClassificationAndStatusMapping(t *testing.T) {
	tests := []struct {
		code   pgvserr.Code
		status int
	}{
		{pgvserr.CodeStoreVectorStoreNotFound, http.StatusNotFound},
		{pgvserr.CodeStoreSearchFilterInvalid, http.StatusBadRequest},
		{pgvserr.CodeStoreCursorInvalid, http.StatusBadRequest},
		{pgvserr.CodeStoreInsertInvalid, http.StatusBadRequest},
		{pgvserr.CodeVectorStoreRequestInvalid, http.StatusBadRequest},
		{pgvserr.CodeConfigValidateInvalidValue, http.StatusBadRequest},
		{pgvserr.CodeConfigParseInvalidFormat, http.StatusBadRequest},
		{pgvserr.CodeServerAuthUnauthorized, http.StatusUnauthorized},
		{pgvserr.CodeEmbeddingProviderFailure, http.StatusInternalServerError},
		{pgvserr.CodeEmbeddingDimensionMismatch, http.StatusInternalServerError},
		{pgvserr.CodeStoreDatabaseFailure, http.StatusInternalServerError},
		{pgvserr.CodeStoreQueryFailure, http.StatusInternalServerError},
		{pgvserr.CodeServerInternalFailure, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := pgvserr.New(tt.code, "boom")
			assert.Equal(t, tt.status, pgvserr.HTTPStatus(err))
		})
	}
}

func TestHTTPStatusPlainErrorReturnsInternalServerError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, pgvserr.HTTPStatus(nil))
	assert.Equal(t, http.StatusInternalServerError, pgvserr.HTTPStatus(fmt.Errorf("plain")))
}

func TestJoinCombinesErrors(t *testing.T) {
	a := stderrors.New("a")
	b := stderrors.New("b")
	err := pgvserr.Join(a, b)

	require.Error(t, err)
	assert.ErrorIs(t, err, a)
	assert.ErrorIs(t, err, b)
	assert.Equal(t, pgvserr.CodeServerInternalFailure, pgvserr.CodeOf(err))
	assert.NoError(t, pgvserr.Join())
}
