// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package postgres

import (
	"errors"

	"github.com/lib/pq"

	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

// Postgres SQLSTATE codes that map to caller errors rather than failures.
const (
	sqlStateForeignKeyViolation pq.ErrorCode = "23503"
	sqlStateInvalidTextRepr     pq.ErrorCode = "22P02"
	sqlStateInvalidParameter    pq.ErrorCode = "22023"
	sqlStateDataException       pq.ErrorCode = "22000" // pgvector: different vector dimensions
	sqlStateDatatypeMismatch    pq.ErrorCode = "42804"
)

// classify wraps a database error with a code derived from its SQLSTATE.
// fallback is used for anything that is not a recognised caller error.
func classify(err error, fallback pgvserr.Code, msg string, fields ...pgvserr.Attr) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case sqlStateForeignKeyViolation:
			return pgvserr.Wrap(err, pgvserr.CodeStoreVectorStoreNotFound, msg, fields...)
		case sqlStateInvalidTextRepr, sqlStateInvalidParameter, sqlStateDataException, sqlStateDatatypeMismatch:
			return pgvserr.Wrap(err, pgvserr.CodeStoreInsertInvalid, msg, fields...)
		}
	}
	return pgvserr.Wrap(err, fallback, msg, fields...)
}
