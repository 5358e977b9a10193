// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/folio/internal/artifact"
	"github.com/tomtom215/folio/internal/config"
	"github.com/tomtom215/folio/internal/logging"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app carries state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	corpusIn   string
	corpusOut  string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "folio",
		Short: "Build and query semantic book recommendation artifacts",
		Long: `folio builds the artifacts the recommendation server reads:

  corpus   join book metadata with the most helpful reviews
  embed    encode the corpus in resumable batches (chunks/)
  merge    concatenate chunks into embeddings.bin and ids.bin
  index    build index.bin from embeddings.bin
  build    run every stage in order

and inspects or queries them locally.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (overrides CONFIG_PATH)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	root.AddCommand(
		newCorpusCmd(a),
		newEmbedCmd(a),
		newMergeCmd(a),
		newIndexCmd(a),
		newBuildCmd(a),
		newInspectCmd(a),
		newRecommendCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	if a.configPath != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, a.configPath); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}

	lc := cfg.Logging.Logger()
	lc.Output = cmd.ErrOrStderr()
	logging.Init(lc)

	a.cfg = cfg
	return nil
}

// openStore opens the configured artifact store. The caller closes it.
func (a *app) openStore() (artifact.Store, error) {
	s, err := artifact.Open(a.cfg.Artifacts.Backend, a.cfg.Artifacts.Path)
	if err != nil {
		return nil, fmt.Errorf("open artifact store %s: %w", a.cfg.Artifacts.Path, err)
	}
	return s, nil
}

func closeStore(s artifact.Store) {
	if err := s.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing artifact store")
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("folio version %s\n", version)
		},
	}
}
