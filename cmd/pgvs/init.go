// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rlquilez/litellm-pgvector/internal/config"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a commented default config file",
		Long:  "Write the default pgvs.yaml to path, or to ~/.config/pgvs/pgvs.yaml when no path is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInit,
	}

	cmd.Flags().Bool("force", false, "overwrite an existing file")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}

	if err := config.WriteDefault(path, force); err != nil {
		return err
	}

	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\nSet server.api_key and database.url, then run 'pgvs migrate' and 'pgvs serve'.\n", path)
	return err
}
