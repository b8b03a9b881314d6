//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// runBinary executes the built CLI with the given arguments.
func runBinary(args ...string) error {
	cmd := exec.Command(filepath.Join(binDir, binName), args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	return cmd.Run()
}

// Fetch downloads papers for the query in the QUERY environment variable.
func Fetch() error {
	mg.Deps(Build)
	query := os.Getenv("QUERY")
	if query == "" {
		return fmt.Errorf("set QUERY to the arXiv search query, e.g. QUERY='all:\"sound effects\"' mage fetch")
	}
	return runBinary("fetch", "--query", query)
}

// Classify labels the fetched papers through the chat-completions API.
func Classify() error {
	mg.Deps(Build)
	return runBinary("classify",
		"--input_csv", filepath.Join("data", "papers.csv"),
		"--checkpoint_file", filepath.Join("data", "checkpoint.json"),
		"--csv_file", filepath.Join("data", "papers_classified.csv"))
}

// Ingest loads the classified CSV into the local SQLite database.
func Ingest() error {
	mg.Deps(Build)
	return runBinary("store", "ingest",
		"--input_csv", filepath.Join("data", "papers_classified.csv"))
}
