// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-triage CLI. The pipeline is
// two checkpointed loops plus a local store: fetch paginates the arXiv
// search API into a CSV, classify labels each row through a chat-completions
// API, and store indexes the results in SQLite for querying.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-triage/internal/logging"
	"github.com/pdiddy/paper-triage/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logger is the process-wide structured logger, configured in the root
// command's PersistentPreRunE.
var logger zerolog.Logger

// rootCmd is the base command for the paper-triage CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-triage",
	Short: "Fetch and classify arXiv papers with checkpointed, resumable loops",
	Long: `paper-triage extracts academic papers from the arXiv search API and
classifies them with a chat-completions API, writing checkpointed CSV files.

Each stage is a subcommand: fetch paginates a search query into a CSV of
papers, classify labels every paper with three answer lines (NAS, sound
type, architecture), and store indexes either CSV in a local SQLite
database with full-text search. Both loops snapshot progress atomically and
resume from the last snapshot after an interruption.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; environment variables win either way.
		godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s

		logger = logging.New(os.Stderr, viper.GetString("log_level"))
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paper-triage.yaml or ~/.config/paper-triage/config.yaml)")
	rootCmd.PersistentFlags().String("log_level", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log_level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-triage")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-triage"))
		}
	}

	viper.SetEnvPrefix("PAPER_TRIAGE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	// SIGINT/SIGTERM cancel the context; the loops flush their checkpoint
	// before returning, so at most the work since the last snapshot is lost.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
