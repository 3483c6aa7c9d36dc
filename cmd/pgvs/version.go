// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rlquilez/litellm-pgvector/internal/server"
)

// Build-time variables set via ldflags. The version itself lives in
// server.Version so the OpenAPI document reports it too.
var (
	commit = "unknown"
	date   = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print pgvs version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "pgvs %s (commit: %s, built: %s)\n", server.Version, commit, date)
			return err
		},
	}
}
