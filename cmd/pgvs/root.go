// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 litellm-pgvector Contributors

package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rlquilez/litellm-pgvector/internal/config"
	pgvserr "github.com/rlquilez/litellm-pgvector/pkg/errors"
)

// NewRootCmd creates the root pgvs command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pgvs",
		Short: "pgvs: OpenAI-compatible vector stores on PostgreSQL",
		Long: "pgvs serves the OpenAI vector stores API over PostgreSQL with pgvector, " +
			"embedding text through any OpenAI-compatible endpoint such as a LiteLLM proxy.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initViper(cmd)
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newInitCmd(),
		newServeCmd(),
		newMigrateCmd(),
		newStatusCmd(),
		newDoctorCmd(),
		newVersionCmd(),
	)

	return root
}

// initViper sets up the global Viper with defaults, env bindings, flag
// bindings, and optional config file so the standard precedence
// (flag > env > file > defaults) is handled uniformly. It also installs the
// default slog logger.
func initViper(cmd *cobra.Command) error {
	v := viper.GetViper()

	config.SetDefaults(v)
	config.BindEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return pgvserr.Errorf(pgvserr.CodeConfigLoadReadFailure, "reading config file: %w", err)
		}
	} else {
		// SetConfigType is omitted so viper does not match the bare ./pgvs binary.
		v.SetConfigName("pgvs")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/pgvs")
		v.AddConfigPath("/etc/pgvs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return pgvserr.Errorf(pgvserr.CodeConfigLoadReadFailure, "reading config: %w", err)
			}
		}
	}

	if err := v.BindPFlag("verbose", cmd.Root().PersistentFlags().Lookup("verbose")); err != nil {
		return pgvserr.Errorf(pgvserr.CodeCLISetupFailure, "binding verbose flag: %w", err)
	}

	logger, err := newLogger(cmd.ErrOrStderr(), v.GetString("log.format"), v.GetString("log.level"), v.GetBool("verbose"))
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if used := v.ConfigFileUsed(); used != "" {
		slog.Debug("loaded config file", "path", used)
	}
	return nil
}

// loadConfig decodes and validates the configuration resolved by initViper.
func loadConfig() (*config.Config, error) {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return nil, err
	}
	config.WarnInsecurePermissions(viper.ConfigFileUsed())
	return cfg, nil
}
