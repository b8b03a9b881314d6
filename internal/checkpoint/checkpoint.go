// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package checkpoint persists loop progress as atomic JSON snapshots so an
// interrupted run resumes from the last snapshot instead of starting over.
// Snapshots are written to a temporary file, fsynced, and renamed over the
// previous snapshot: a crash mid-write never corrupts the last good state.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pdiddy/paper-triage/pkg/types"
)

// FetchState is the durable snapshot of the paginated fetch loop: the
// query that produced it, the offset of the next page to request, and
// every record accumulated so far.
type FetchState struct {
	Query     string         `json:"query"`
	Offset    int            `json:"offset"`
	Records   []types.Record `json:"records"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ClassifyState is the durable snapshot of the classification loop: the
// count of input records already processed. Rows themselves live in the
// output CSV, written under the same atomic discipline.
type ClassifyState struct {
	Index     int       `json:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Save marshals state to path atomically, overwriting any previous snapshot.
func Save(path string, state any) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}
	return WriteFileAtomic(path, append(data, '\n'))
}

// Load unmarshals the snapshot at path into state. It returns false with a
// nil error when no snapshot exists.
func Load(path string, state any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading checkpoint %s: %w", path, err)
	}
	if err := json.Unmarshal(data, state); err != nil {
		return false, fmt.Errorf("decoding checkpoint %s: %w", path, err)
	}
	return true, nil
}

// WriteFileAtomic writes data to path via a temporary file in the same
// directory followed by a rename.
func WriteFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("syncing %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
