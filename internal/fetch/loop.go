// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch implements the checkpointed paginated fetch loop over the
// arXiv search API. The loop advances an offset cursor page by page,
// deduplicates records by arXiv ID, snapshots progress to disk every N
// pages, and resumes from the snapshot when one exists.
package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-triage/internal/checkpoint"
	"github.com/pdiddy/paper-triage/internal/csvio"
	"github.com/pdiddy/paper-triage/pkg/types"
)

// Source abstracts the paged search endpoint so tests can supply a fake.
// ArxivClient is the production implementation.
type Source interface {
	Page(ctx context.Context, query string, offset, pageSize int) ([]types.Record, error)
}

// Files written under the output directory.
const (
	CheckpointFile = "fetch-checkpoint.json"
	OutputFile     = "papers.csv"
	SummaryFile    = "fetch-summary.yaml"
)

// Accumulator carries fetch progress through the loop. It is handed to the
// checkpoint writer as-is; there is no other mutable fetch state.
type Accumulator struct {
	// Offset is the start index of the next page to request.
	Offset int

	// Records holds every unique record fetched so far, in fetch order.
	Records []types.Record

	// Duplicates counts records dropped because their ID was already seen.
	Duplicates int

	seen map[string]bool
}

// NewAccumulator returns an empty accumulator starting at offset zero.
func NewAccumulator() *Accumulator {
	return &Accumulator{seen: make(map[string]bool)}
}

// restore rebuilds an accumulator from a checkpoint snapshot.
func restore(state checkpoint.FetchState) *Accumulator {
	a := NewAccumulator()
	a.Offset = state.Offset
	for _, r := range state.Records {
		if a.seen[r.ID] {
			continue
		}
		a.seen[r.ID] = true
		a.Records = append(a.Records, r)
	}
	return a
}

// Add appends records whose ID has not been seen yet and returns the number
// actually added.
func (a *Accumulator) Add(records []types.Record) int {
	added := 0
	for _, r := range records {
		if a.seen[r.ID] {
			a.Duplicates++
			continue
		}
		a.seen[r.ID] = true
		a.Records = append(a.Records, r)
		added++
	}
	return added
}

// state converts the accumulator to its durable form.
func (a *Accumulator) state(query string) checkpoint.FetchState {
	return checkpoint.FetchState{
		Query:     query,
		Offset:    a.Offset,
		Records:   a.Records,
		UpdatedAt: time.Now().UTC(),
	}
}

// Result summarizes a completed fetch run.
type Result struct {
	Records    []types.Record
	Pages      int
	Duplicates int
	Resumed    bool
}

// Run drives the fetch loop until MaxResults records are accumulated or the
// endpoint returns an empty page, then writes the output CSV and a run
// summary. On a fatal page error the accumulator is flushed to the
// checkpoint before returning, so completed pages are never lost.
func Run(ctx context.Context, src Source, cfg types.FetchConfig, log zerolog.Logger, w io.Writer) (Result, error) {
	if err := validate(cfg); err != nil {
		return Result{}, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating output directory: %w", err)
	}

	ckptPath := filepath.Join(cfg.OutputDir, CheckpointFile)
	outPath := filepath.Join(cfg.OutputDir, OutputFile)

	acc, resumed, err := loadOrStart(ckptPath, cfg.Query)
	if err != nil {
		return Result{}, err
	}
	if resumed {
		log.Info().Int("offset", acc.Offset).Int("records", len(acc.Records)).
			Msg("resuming from checkpoint")
	}

	pages := 0
	for len(acc.Records) < cfg.MaxResults {
		// Fixed pause between successive page requests, success or not.
		if pages > 0 && cfg.Delay > 0 {
			select {
			case <-ctx.Done():
				flush(ckptPath, acc, cfg.Query, log)
				return Result{}, ctx.Err()
			case <-time.After(cfg.Delay):
			}
		}

		page, err := src.Page(ctx, cfg.Query, acc.Offset, cfg.PageSize)
		if err != nil {
			flush(ckptPath, acc, cfg.Query, log)
			return Result{}, fmt.Errorf("fetching page at offset %d: %w", acc.Offset, err)
		}
		if len(page) == 0 {
			log.Info().Int("offset", acc.Offset).Msg("empty page, stopping")
			break
		}

		if room := cfg.MaxResults - len(acc.Records); len(page) > room {
			page = page[:room]
		}

		added := acc.Add(page)
		acc.Offset += cfg.PageSize
		pages++

		log.Info().Int("page", pages).Int("added", added).
			Int("total", len(acc.Records)).Msg("page fetched")

		if pages%cfg.CheckpointFreq == 0 {
			if err := checkpoint.Save(ckptPath, acc.state(cfg.Query)); err != nil {
				flush(ckptPath, acc, cfg.Query, log)
				return Result{}, fmt.Errorf("writing checkpoint: %w", err)
			}
			log.Debug().Int("records", len(acc.Records)).Msg("checkpoint written")
		}
	}

	// Final snapshot, output CSV, and run summary.
	if err := checkpoint.Save(ckptPath, acc.state(cfg.Query)); err != nil {
		return Result{}, fmt.Errorf("writing final checkpoint: %w", err)
	}
	if err := csvio.WriteRecords(outPath, acc.Records); err != nil {
		return Result{}, fmt.Errorf("writing output CSV: %w", err)
	}

	res := Result{
		Records:    acc.Records,
		Pages:      pages,
		Duplicates: acc.Duplicates,
		Resumed:    resumed,
	}

	if err := WriteSummary(filepath.Join(cfg.OutputDir, SummaryFile), cfg.Query, res); err != nil {
		log.Warn().Err(err).Msg("summary write failed")
	}

	fmt.Fprintf(w, "Fetched %d record(s) over %d page(s)", len(res.Records), res.Pages)
	if res.Duplicates > 0 {
		fmt.Fprintf(w, " (%d duplicate(s) dropped)", res.Duplicates)
	}
	fmt.Fprintf(w, "\nOutput: %s\n", outPath)
	return res, nil
}

// loadOrStart loads the checkpoint at path or starts a fresh accumulator.
// A checkpoint written by a different query is a configuration error: the
// operator must remove it rather than mix result sets.
func loadOrStart(path, query string) (*Accumulator, bool, error) {
	var state checkpoint.FetchState
	found, err := checkpoint.Load(path, &state)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return NewAccumulator(), false, nil
	}
	if state.Query != query {
		return nil, false, fmt.Errorf(
			"checkpoint %s was written by query %q, not %q: remove it to start over",
			path, state.Query, query)
	}
	return restore(state), true, nil
}

// flush writes the accumulator to the checkpoint on the fatal-error path.
func flush(path string, acc *Accumulator, query string, log zerolog.Logger) {
	if err := checkpoint.Save(path, acc.state(query)); err != nil {
		log.Error().Err(err).Msg("checkpoint flush failed")
		return
	}
	log.Info().Int("records", len(acc.Records)).Msg("partial progress checkpointed")
}

func validate(cfg types.FetchConfig) error {
	if cfg.Query == "" {
		return fmt.Errorf("query must not be empty")
	}
	if cfg.PageSize < 1 {
		return fmt.Errorf("page_size must be at least 1")
	}
	if cfg.MaxResults < 1 {
		return fmt.Errorf("max_results must be at least 1")
	}
	if cfg.CheckpointFreq < 1 {
		return fmt.Errorf("checkpoint_freq must be at least 1")
	}
	return nil
}
