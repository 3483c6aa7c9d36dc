// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rlquilez/litellm-pgvector/internal/config"
	"github.com/rlquilez/litellm-pgvector/internal/store/postgres"
	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the bundled database migrations",
		Long: "Create the pgvector extension and the vector_stores and embeddings tables. " +
			"Only the default table and column names are supported; custom schemas are managed externally.",
		RunE: runMigrateUp,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the applied migration version",
		RunE:  runMigrateStatus,
	})

	return cmd
}

// openStorage connects to the database using only the storage sections of
// the configuration.
func openStorage(ctx context.Context) (*postgres.Backend, *config.Config, error) {
	cfg, err := config.Decode(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.ValidateStorage(); err != nil {
		return nil, nil, err
	}

	backend, err := postgres.Open(ctx, *cfg.StorageConfig())
	if err != nil {
		return nil, nil, pgvserr.Wrap(err, pgvserr.CodeCLISetupFailure, "connecting to database")
	}
	return backend, cfg, nil
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	backend, cfg, err := openStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	if err := postgres.Migrate(cmd.Context(), backend.DB(), cfg.StorageConfig().Schema); err != nil {
		return err
	}

	status, err := postgres.Status(cmd.Context(), backend.DB())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Database schema at version %d\n", status.Version)
	return err
}

func runMigrateStatus(cmd *cobra.Command, _ []string) error {
	backend, _, err := openStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	status, err := postgres.Status(cmd.Context(), backend.DB())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), formatMigrationStatus(status))
	return err
}

func formatMigrationStatus(s *postgres.MigrationStatus) string {
	switch {
	case !s.Applied:
		return "No migrations applied (run 'pgvs migrate')"
	case s.Dirty:
		return fmt.Sprintf("Version %d (dirty: a migration failed part way, fix the schema and force the version)", s.Version)
	default:
		return fmt.Sprintf("Version %d", s.Version)
	}
}
