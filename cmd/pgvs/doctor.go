// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package main

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rlquilez/litellm-pgvector/internal/config"
	"github.com/rlquilez/litellm-pgvector/internal/embedding"
	"github.com/rlquilez/litellm-pgvector/internal/server"
	"github.com/rlquilez/litellm-pgvector/internal/store/postgres"
	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

const doctorTimeout = 10 * time.Second

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostics",
		Long:  "Check configuration, database connectivity and schema, the embedding endpoint, and a running server.",
		RunE:  runDoctor,
	}

	cmd.Flags().String("address", "127.0.0.1:8000", "server address to check")

	return cmd
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	addr, _ := cmd.Flags().GetString("address")

	ctx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
	defer cancel()

	cfg, cfgErr := config.Decode(viper.GetViper())

	checks := []struct {
		name string
		fn   func() string
	}{
		{"Binary", checkBinary},
		{"Config", func() string { return checkConfig(cfg, cfgErr) }},
		{"Database", func() string { return checkDatabase(ctx, cfg) }},
		{"Embedding", func() string { return checkEmbedding(ctx, cfg) }},
		{"Server", func() string { return checkServer(cmd, addr) }},
	}

	for _, c := range checks {
		if _, err := fmt.Fprintf(w, "%-20s %s\n", c.name+":", c.fn()); err != nil {
			return err
		}
	}

	return nil
}

func checkBinary() string {
	return fmt.Sprintf("pgvs %s (%s/%s, %s)", server.Version, runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func checkConfig(cfg *config.Config, decodeErr error) string {
	if decodeErr != nil {
		return fmt.Sprintf("error: %s", decodeErr)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Sprintf("invalid: %s (and %d more)", errs[0], len(errs)-1)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		return fmt.Sprintf("ok, loaded from %s", used)
	}
	return "ok, defaults and environment only"
}

func checkDatabase(ctx context.Context, cfg *config.Config) string {
	if cfg == nil {
		return "skipped (config unreadable)"
	}
	if err := cfg.ValidateStorage(); err != nil {
		return "skipped (database settings invalid)"
	}

	backend, err := postgres.Open(ctx, *cfg.StorageConfig())
	if err != nil {
		return fmt.Sprintf("unreachable: %s", err)
	}
	defer func() { _ = backend.Close() }()

	status, err := postgres.Status(ctx, backend.DB())
	if err != nil {
		return fmt.Sprintf("connected, migration status unknown: %s", err)
	}
	return "connected, " + formatMigrationStatus(status)
}

func checkEmbedding(ctx context.Context, cfg *config.Config) string {
	if cfg == nil {
		return "skipped (config unreadable)"
	}

	provider, err := embedding.NewOpenAI(embeddingConfig(cfg.Embedding))
	if err != nil {
		return fmt.Sprintf("misconfigured: %s", err)
	}

	res, err := provider.Embed(ctx, []string{"pgvs doctor"})
	if err != nil {
		if pgvserr.HasCode(err, pgvserr.CodeEmbeddingDimensionMismatch) {
			return fmt.Sprintf("model %s does not produce %d dimensions", provider.Model(), provider.Dimensions())
		}
		return fmt.Sprintf("error: %s", err)
	}
	return fmt.Sprintf("ok, %s returns %d dimensions (%d tokens)", provider.Model(), len(res.Vectors[0]), res.PromptTokens)
}

func checkServer(cmd *cobra.Command, addr string) string {
	report, err := fetchHealth(cmd, addr)
	if err != nil {
		if pgvserr.HasCode(err, pgvserr.CodeCLIServerNotRunning) {
			return fmt.Sprintf("not running at %s (run 'pgvs serve')", addr)
		}
		return fmt.Sprintf("error: %s", err)
	}
	return fmt.Sprintf("%s at %s", report.Status, addr)
}
