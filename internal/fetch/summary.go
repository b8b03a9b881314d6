// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"fmt"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-triage/internal/checkpoint"
)

// Summary is the on-disk record of a completed fetch run. It lets the
// researcher see what a CSV contains without re-running the query.
type Summary struct {
	Query             string    `yaml:"query"`
	Total             int       `yaml:"total"`
	Pages             int       `yaml:"pages"`
	DuplicatesRemoved int       `yaml:"duplicates_removed"`
	Resumed           bool      `yaml:"resumed"`
	Timestamp         time.Time `yaml:"timestamp"`
}

// WriteSummary saves the run summary to a YAML file.
func WriteSummary(path, query string, res Result) error {
	s := Summary{
		Query:             query,
		Total:             len(res.Records),
		Pages:             res.Pages,
		DuplicatesRemoved: res.Duplicates,
		Resumed:           res.Resumed,
		Timestamp:         time.Now().UTC(),
	}

	data, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	if err := checkpoint.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}
