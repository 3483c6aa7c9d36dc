// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package config

import (
	_ "embed"
	"log/slog"
	"os"
	"path/filepath"

	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

//go:embed pgvs.yaml.default
var DefaultConfigYAML []byte

// DefaultConfigPath returns ~/.config/pgvs/pgvs.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", pgvserr.Errorf(pgvserr.CodeConfigLoadReadFailure, "resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "pgvs", "pgvs.yaml"), nil
}

// WriteDefault writes the commented default config to path. It refuses to
// overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return pgvserr.Errorf(pgvserr.CodeConfigLoadReadFailure, "config %s already exists", path)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return pgvserr.Errorf(pgvserr.CodeConfigLoadReadFailure, "creating config directory %s: %w", dir, err)
	}

	// The file carries the API key and database password.
	if err := os.WriteFile(path, DefaultConfigYAML, 0o600); err != nil {
		return pgvserr.Errorf(pgvserr.CodeConfigLoadReadFailure, "writing config %s: %w", path, err)
	}

	slog.Info("created default config", "path", path)
	return nil
}
