// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the vector store API server",
		Long:  "Load configuration, connect to PostgreSQL and the embedding endpoint, and serve the HTTP API.",
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	cmd.Flags().Bool("migrate", false, "apply database migrations before serving")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := viper.GetViper()
	if err := v.BindPFlag("server.listen", cmd.Flags().Lookup("listen")); err != nil {
		return pgvserr.Errorf(pgvserr.CodeCLISetupFailure, "binding listen flag: %w", err)
	}
	if err := v.BindPFlag("database.auto_migrate", cmd.Flags().Lookup("migrate")); err != nil {
		return pgvserr.Errorf(pgvserr.CodeCLISetupFailure, "binding migrate flag: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := WireApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "pgvs listening on %s\n", cfg.Server.Listen); err != nil {
		return err
	}
	return app.Start(ctx)
}
