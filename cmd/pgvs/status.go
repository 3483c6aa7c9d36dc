// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
	"github.com/rlquilez/litellm-pgvector/pkg/health"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show server status",
		Long:  "Query a running server's /health endpoint and display its status.",
		RunE:  runStatus,
	}

	cmd.Flags().String("address", "127.0.0.1:8000", "server address to check")

	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("address")
	out := cmd.OutOrStdout()

	report, err := fetchHealth(cmd, addr)
	if err != nil {
		if pgvserr.HasCode(err, pgvserr.CodeCLIServerNotRunning) {
			_, _ = fmt.Fprintf(out, "Server at %s is not running (connection refused)\n", addr)
			return nil
		}
		_, _ = fmt.Fprintf(out, "Server at %s: %s\n", addr, err)
		return nil
	}

	_, _ = fmt.Fprintf(out, "Server at %s: %s (as of %s)\n",
		addr, report.Status, time.Unix(report.Timestamp, 0).UTC().Format(time.RFC3339))
	if report.Embedding != nil {
		_, _ = fmt.Fprintf(out, "Embedding provider: %s\n", describeEmbedding(report.Embedding))
	}
	return nil
}

func fetchHealth(cmd *cobra.Command, addr string) (*health.Report, error) {
	var report health.Report
	if err := newAPIClient(addr, "").getJSON(cmd.Context(), "/health", &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func describeEmbedding(m *health.Metrics) string {
	if m.Available {
		if m.FailureCount > 0 {
			return fmt.Sprintf("available (%d recent failures)", m.FailureCount)
		}
		return "available"
	}
	if m.CooldownUntil != nil {
		return fmt.Sprintf("unavailable until %s (%d failures)", m.CooldownUntil.UTC().Format(time.RFC3339), m.FailureCount)
	}
	return fmt.Sprintf("unavailable (%d failures)", m.FailureCount)
}
