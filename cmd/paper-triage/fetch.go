// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-triage/internal/fetch"
	"github.com/pdiddy/paper-triage/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "paper-triage/0.1"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Extract papers from the arXiv search API into a CSV",
	Long: `Fetch paginates the arXiv search API for a query, accumulating unique
records page by page with a fixed delay between requests. Progress is
snapshotted every N pages; rerunning the command resumes from the snapshot
instead of starting at offset zero. The result is a CSV with columns
id, title, abstract plus a YAML run summary.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("query", "", "arXiv search query (required)")
	fetchCmd.Flags().Int("checkpoint_freq", 10, "pages fetched between checkpoint writes")
	fetchCmd.Flags().String("output_dir", "./data", "directory for the CSV, checkpoint, and summary")
	fetchCmd.Flags().Int("max_results", 20000, "maximum number of records to fetch")
	fetchCmd.Flags().Int("page_size", 100, "results per API page")
	fetchCmd.Flags().Float64("delay_seconds", 10.0, "fixed delay between page requests and retry attempts, in seconds")
	fetchCmd.Flags().Int("num_retries", 5, "total attempt budget per page")
	fetchCmd.MarkFlagRequired("query")

	// Flags override config file values; config supplies defaults.
	viper.BindPFlag("fetch.checkpoint_freq", fetchCmd.Flags().Lookup("checkpoint_freq"))
	viper.BindPFlag("fetch.output_dir", fetchCmd.Flags().Lookup("output_dir"))
	viper.BindPFlag("fetch.max_results", fetchCmd.Flags().Lookup("max_results"))
	viper.BindPFlag("fetch.page_size", fetchCmd.Flags().Lookup("page_size"))
	viper.BindPFlag("fetch.delay_seconds", fetchCmd.Flags().Lookup("delay_seconds"))
	viper.BindPFlag("fetch.num_retries", fetchCmd.Flags().Lookup("num_retries"))

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	delay := time.Duration(viper.GetFloat64("fetch.delay_seconds") * float64(time.Second))

	cfg := types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   defaultTimeout,
			UserAgent: defaultUserAgent,
		},
		Query:          query,
		PageSize:       viper.GetInt("fetch.page_size"),
		MaxResults:     viper.GetInt("fetch.max_results"),
		Delay:          delay,
		NumRetries:     viper.GetInt("fetch.num_retries"),
		CheckpointFreq: viper.GetInt("fetch.checkpoint_freq"),
		OutputDir:      viper.GetString("fetch.output_dir"),
	}

	src := &fetch.ArxivClient{
		Client:     &http.Client{Timeout: cfg.Timeout},
		UserAgent:  cfg.UserAgent,
		NumRetries: cfg.NumRetries,
		RetryDelay: cfg.Delay,
	}

	_, err := fetch.Run(cmd.Context(), src, cfg, logger, os.Stdout)
	return err
}
