// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paper-triage/internal/classify"
	"github.com/pdiddy/paper-triage/internal/csvio"
	"github.com/pdiddy/paper-triage/internal/secrets"
	"github.com/pdiddy/paper-triage/pkg/types"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Label fetched papers through a chat-completions API",
	Long: `Classify reads the fetcher's CSV, deduplicates it by title, and sends one
inference request per paper built from an instruction template plus the
paper's title and abstract. The answer must carry three labeled lines
(NAS, Sound Type, Architecture); an answer that does not is logged and the
row is emitted with empty labels. Output and a resume index are
snapshotted every N records, and a rerun skips papers already classified.

The API credential comes from the OPENAI_API_KEY environment variable or
the .secrets/openai-api-key file.`,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().String("input_csv", "", "path to the fetcher's output CSV (required)")
	classifyCmd.Flags().String("prompt_file", "prompts/classify.txt", "path to the instruction template")
	classifyCmd.Flags().Int("checkpoint_freq", 10, "records classified between checkpoint writes")
	classifyCmd.Flags().String("checkpoint_file", "checkpoint.json", "path of the resume-index checkpoint")
	classifyCmd.Flags().String("csv_file", "papers_classified.csv", "path of the classified output CSV")
	classifyCmd.Flags().Float64("sleep_time", 0.3, "fixed delay between inference calls and retry attempts, in seconds")
	classifyCmd.Flags().Int("num_retries", 3, "total attempt budget per inference call")
	classifyCmd.Flags().String("model", classify.DefaultModel, "chat model identifier")
	classifyCmd.MarkFlagRequired("input_csv")

	viper.BindPFlag("classify.prompt_file", classifyCmd.Flags().Lookup("prompt_file"))
	viper.BindPFlag("classify.checkpoint_freq", classifyCmd.Flags().Lookup("checkpoint_freq"))
	viper.BindPFlag("classify.checkpoint_file", classifyCmd.Flags().Lookup("checkpoint_file"))
	viper.BindPFlag("classify.csv_file", classifyCmd.Flags().Lookup("csv_file"))
	viper.BindPFlag("classify.sleep_time", classifyCmd.Flags().Lookup("sleep_time"))
	viper.BindPFlag("classify.num_retries", classifyCmd.Flags().Lookup("num_retries"))
	viper.BindPFlag("classify.model", classifyCmd.Flags().Lookup("model"))

	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	apiKey := secrets.Resolve("OPENAI_API_KEY", "openai-api-key", loadedSecrets)
	if apiKey == "" {
		return fmt.Errorf("no API credential: set OPENAI_API_KEY or create .secrets/openai-api-key")
	}

	inputCSV, _ := cmd.Flags().GetString("input_csv")
	sleep := time.Duration(viper.GetFloat64("classify.sleep_time") * float64(time.Second))

	cfg := types.ClassifyConfig{
		AIConfig: types.AIConfig{
			Model:      viper.GetString("classify.model"),
			APIKey:     apiKey,
			NumRetries: viper.GetInt("classify.num_retries"),
		},
		SleepTime:      sleep,
		CheckpointFreq: viper.GetInt("classify.checkpoint_freq"),
		CheckpointFile: viper.GetString("classify.checkpoint_file"),
		CSVFile:        viper.GetString("classify.csv_file"),
		PromptFile:     viper.GetString("classify.prompt_file"),
	}

	prompt, err := classify.LoadPrompt(cfg.PromptFile)
	if err != nil {
		return err
	}

	records, err := csvio.ReadRecords(inputCSV)
	if err != nil {
		return err
	}
	records = classify.Dedup(records)
	fmt.Fprintf(os.Stdout, "Total unique papers: %d\n", len(records))

	backend := &classify.OpenAIBackend{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		Client:     &http.Client{Timeout: defaultTimeout},
		NumRetries: cfg.NumRetries,
		RetryDelay: cfg.SleepTime,
	}

	_, err = classify.Run(cmd.Context(), backend, records, prompt, cfg, logger, os.Stdout)
	return err
}
