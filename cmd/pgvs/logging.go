// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package main

import (
	"io"
	"log/slog"
	"strings"

	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

// newLogger builds the process logger. verbose forces debug level.
func newLogger(w io.Writer, format, level string, verbose bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, pgvserr.Errorf(pgvserr.CodeConfigValidateInvalidValue, "log.level %q: %w", level, err)
	}
	if verbose {
		lvl = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, pgvserr.Errorf(pgvserr.CodeConfigValidateInvalidValue,
			"log.format must be one of [text, json], got %q", format)
	}
}
