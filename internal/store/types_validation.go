// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package store

import (
	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

const maxExpiryDays = 365

// Validate checks the expiration policy is one the backend can apply.
func (e ExpiresAfter) Validate() error {
	if e.Anchor != ExpiryAnchorLastActiveAt {
		return pgvserr.Errorf(pgvserr.CodeStoreInsertInvalid,
			"expires_after.anchor must be %q, got %q", ExpiryAnchorLastActiveAt, e.Anchor)
	}
	if e.Days < 1 || e.Days > maxExpiryDays {
		return pgvserr.Errorf(pgvserr.CodeStoreInsertInvalid,
			"expires_after.days must be between 1 and %d, got %d", maxExpiryDays, e.Days)
	}
	return nil
}

// Validate checks the pagination options are usable.
func (o ListOpts) Validate() error {
	if o.After != "" && o.Before != "" {
		return pgvserr.New(pgvserr.CodeStoreCursorInvalid, "only one of after and before may be set")
	}
	return nil
}

// ContentLength is the byte length a record contributes to usage_bytes.
func (r *EmbeddingRecord) ContentLength() int {
	return len(r.Content)
}
