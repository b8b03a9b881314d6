// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-triage/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for the fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Query is the arXiv search query (e.g. "cat:eess.AS AND submittedDate:[2020 TO 2021]").
	Query string `json:"query" yaml:"query"`

	// PageSize is the number of results requested per API page.
	PageSize int `json:"page_size" yaml:"page_size"`

	// MaxResults caps the total number of records fetched.
	MaxResults int `json:"max_results" yaml:"max_results"`

	// Delay is the fixed pause between successive page requests, and
	// between retry attempts for the same page.
	Delay time.Duration `json:"delay" yaml:"delay"`

	// NumRetries is the total attempt budget per page. When every attempt
	// for a page fails the run aborts.
	NumRetries int `json:"num_retries" yaml:"num_retries"`

	// CheckpointFreq is the number of pages fetched between checkpoint writes.
	CheckpointFreq int `json:"checkpoint_freq" yaml:"checkpoint_freq"`

	// OutputDir is the directory receiving the checkpoint, the output CSV,
	// and the run summary.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// AIConfig holds shared settings for stages that call a chat-completions API.
type AIConfig struct {
	// Model is the model identifier (e.g. "gpt-4o-mini-2024-07-18").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// NumRetries is the total attempt budget for a single inference call.
	NumRetries int `json:"num_retries" yaml:"num_retries"`
}

// ClassifyConfig holds settings for the classification stage.
type ClassifyConfig struct {
	AIConfig `yaml:",inline"`

	// SleepTime is the fixed pause between inference calls, and between
	// retry attempts for the same call.
	SleepTime time.Duration `json:"sleep_time" yaml:"sleep_time"`

	// CheckpointFreq is the number of records classified between checkpoint writes.
	CheckpointFreq int `json:"checkpoint_freq" yaml:"checkpoint_freq"`

	// CheckpointFile is the path of the resume-index checkpoint.
	CheckpointFile string `json:"checkpoint_file" yaml:"checkpoint_file"`

	// CSVFile is the path of the classified output CSV.
	CSVFile string `json:"csv_file" yaml:"csv_file"`

	// PromptFile is the path of the instruction template.
	PromptFile string `json:"prompt_file" yaml:"prompt_file"`
}

// StoreConfig holds settings for the local paper store.
type StoreConfig struct {
	// DBPath is the SQLite database file (e.g. "data/papers.db").
	DBPath string `json:"db_path" yaml:"db_path"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Fetch    FetchConfig    `json:"fetch" yaml:"fetch"`
	Classify ClassifyConfig `json:"classify" yaml:"classify"`
	Store    StoreConfig    `json:"store" yaml:"store"`
}
