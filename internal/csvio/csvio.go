// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package csvio reads and writes the pipeline's two CSV schemas: the
// fetched-paper schema (id,title,abstract) and the classified schema with
// the three label columns appended. Readers map columns by header name so
// column order is not significant; writers always emit the canonical order.
package csvio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/paper-triage/internal/checkpoint"
	"github.com/pdiddy/paper-triage/pkg/types"
)

// Canonical headers.
var (
	recordHeader     = []string{"id", "title", "abstract"}
	classifiedHeader = []string{"id", "title", "abstract", "NAS", "sound_type", "architecture"}
)

// WriteRecords writes records to path in the fetched-paper schema. The file
// is replaced atomically so a crash mid-write cannot truncate an existing one.
func WriteRecords(path string, records []types.Record) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(recordHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range records {
		if err := w.Write([]string{r.ID, r.Title, r.Abstract}); err != nil {
			return fmt.Errorf("writing record %s: %w", r.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}

	return checkpoint.WriteFileAtomic(path, buf.Bytes())
}

// WriteClassified writes rows to path in the classified schema, atomically.
func WriteClassified(path string, rows []types.ClassifiedRecord) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(classifiedHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range rows {
		row := []string{r.ID, r.Title, r.Abstract, r.NAS, r.SoundType, r.Architecture}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing record %s: %w", r.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}

	return checkpoint.WriteFileAtomic(path, buf.Bytes())
}

// ReadRecords reads a fetched-paper CSV. Extra columns are ignored; a file
// missing any of the three required columns is a malformed-input error.
func ReadRecords(path string) ([]types.Record, error) {
	rows, err := readByHeader(path, recordHeader)
	if err != nil {
		return nil, err
	}

	records := make([]types.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, types.Record{
			ID:       row["id"],
			Title:    row["title"],
			Abstract: row["abstract"],
		})
	}
	return records, nil
}

// ReadClassified reads a classified CSV.
func ReadClassified(path string) ([]types.ClassifiedRecord, error) {
	rows, err := readByHeader(path, classifiedHeader)
	if err != nil {
		return nil, err
	}

	records := make([]types.ClassifiedRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, types.ClassifiedRecord{
			Record: types.Record{
				ID:       row["id"],
				Title:    row["title"],
				Abstract: row["abstract"],
			},
			Classification: types.Classification{
				NAS:          row["NAS"],
				SoundType:    row["sound_type"],
				Architecture: row["architecture"],
			},
		})
	}
	return records, nil
}

// ReadAny reads either schema, returning classified records with zero-valued
// labels when the file carries only the fetched-paper columns.
func ReadAny(path string) ([]types.ClassifiedRecord, bool, error) {
	classified, err := ReadClassified(path)
	if err == nil {
		return classified, true, nil
	}

	records, rerr := ReadRecords(path)
	if rerr != nil {
		return nil, false, err
	}

	rows := make([]types.ClassifiedRecord, 0, len(records))
	for _, r := range records {
		rows = append(rows, types.ClassifiedRecord{Record: r})
	}
	return rows, false, nil
}

// readByHeader parses path and returns one name→value map per data row.
// Every column in required must be present in the header.
func readByHeader(path string, required []string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("%s: missing required column %q", path, name)
		}
	}

	var rows []map[string]string
	for line := 2; ; line++ {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}

		row := make(map[string]string, len(required))
		for _, name := range required {
			i := index[name]
			if i >= len(fields) {
				return nil, fmt.Errorf("%s line %d: missing field %q", path, line, name)
			}
			row[name] = fields[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}
