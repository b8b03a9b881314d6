// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-triage/internal/csvio"
	"github.com/pdiddy/paper-triage/internal/store"
	"github.com/pdiddy/paper-triage/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the local SQLite paper database",
	Long: `Store indexes fetched or classified CSVs in a local SQLite database with
full-text search over titles and abstracts. Ingest is idempotent: rows are
keyed by arXiv ID and re-ingesting updates them in place.`,
}

var storeIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load a fetched or classified CSV into the database",
	RunE:  runStoreIngest,
}

var storeQueryCmd = &cobra.Command{
	Use:   "query [terms...]",
	Short: "Search stored papers by full text and labels",
	RunE:  runStoreQuery,
}

func init() {
	storeCmd.PersistentFlags().String("db", "data/papers.db", "SQLite database file")
	viper.BindPFlag("store.db_path", storeCmd.PersistentFlags().Lookup("db"))

	storeIngestCmd.Flags().String("input_csv", "", "CSV to ingest (required)")
	storeIngestCmd.MarkFlagRequired("input_csv")

	storeQueryCmd.Flags().String("nas", "", "filter by NAS label (YES or NO)")
	storeQueryCmd.Flags().String("sound_type", "", "filter by sound type (music, speech, sound effects)")
	storeQueryCmd.Flags().Int("max_results", 20, "maximum number of results")
	storeQueryCmd.Flags().Bool("json", false, "output results as JSON")
	viper.BindPFlag("store.max_results", storeQueryCmd.Flags().Lookup("max_results"))

	storeCmd.AddCommand(storeIngestCmd)
	storeCmd.AddCommand(storeQueryCmd)
	rootCmd.AddCommand(storeCmd)
}

func openStore() (*store.Store, error) {
	return store.Open(types.StoreConfig{
		DBPath:     viper.GetString("store.db_path"),
		MaxResults: viper.GetInt("store.max_results"),
	})
}

func runStoreIngest(cmd *cobra.Command, args []string) error {
	inputCSV, _ := cmd.Flags().GetString("input_csv")

	rows, classified, err := csvio.ReadAny(inputCSV)
	if err != nil {
		return err
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	summary, err := s.Ingest(cmd.Context(), rows)
	if err != nil {
		return err
	}

	schema := "fetched"
	if classified {
		schema = "classified"
	}
	fmt.Fprintf(os.Stdout, "Ingested %d %s row(s): %d inserted, %d updated\n",
		summary.Total(), schema, summary.Inserted, summary.Updated)
	return nil
}

func runStoreQuery(cmd *cobra.Command, args []string) error {
	nas, _ := cmd.Flags().GetString("nas")
	soundType, _ := cmd.Flags().GetString("sound_type")
	asJSON, _ := cmd.Flags().GetBool("json")

	opts := store.QueryOptions{
		Text:       strings.Join(args, " "),
		NAS:        nas,
		SoundType:  soundType,
		MaxResults: viper.GetInt("store.max_results"),
	}
	if opts.IsEmpty() {
		// An empty query lists the most recent papers up to the limit.
		logger.Debug().Msg("empty query, listing recent papers")
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := s.Query(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if asJSON {
		return store.FormatJSON(results, os.Stdout)
	}
	store.FormatTable(results, os.Stdout)
	return nil
}
