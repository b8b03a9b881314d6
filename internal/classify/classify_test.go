// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-triage/internal/checkpoint"
	"github.com/pdiddy/paper-triage/internal/csvio"
	"github.com/pdiddy/paper-triage/pkg/types"
)

const testPrompt = "Answer with three lines:\nNAS: YES or NO\nSound Type: ...\nArchitecture: ...\n"

// mockBackend replies per record title and records every message it saw.
type mockBackend struct {
	replies  map[string]string // title -> reply
	failFor  map[string]error  // title -> error
	messages []string
}

func (m *mockBackend) Complete(_ context.Context, message string) (string, error) {
	m.messages = append(m.messages, message)
	for title, err := range m.failFor {
		if strings.Contains(message, "title: "+title+"\n") {
			return "", err
		}
	}
	for title, reply := range m.replies {
		if strings.Contains(message, "title: "+title+"\n") {
			return reply, nil
		}
	}
	return "NAS: NO\nSound Type: speech\nArchitecture: unknown", nil
}

func classifyCfg(dir string) types.ClassifyConfig {
	return types.ClassifyConfig{
		CheckpointFreq: 1,
		CheckpointFile: filepath.Join(dir, "checkpoint.json"),
		CSVFile:        filepath.Join(dir, "classified.csv"),
	}
}

func inputRecords(n int) []types.Record {
	records := make([]types.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, types.Record{
			ID:       fmt.Sprintf("2301.%05d", i),
			Title:    fmt.Sprintf("paper %d", i),
			Abstract: fmt.Sprintf("abstract %d", i),
		})
	}
	return records
}

func TestRunClassifiesEveryRecordOnce(t *testing.T) {
	dir := t.TempDir()
	backend := &mockBackend{replies: map[string]string{
		"paper 0": "NAS: YES\nSound Type: sound effects\nArchitecture: GAN",
	}}

	records := inputRecords(4)
	summary, err := Run(context.Background(), backend, records, testPrompt, classifyCfg(dir), zerolog.Nop(), io.Discard)
	require.NoError(t, err)

	// One inference call per record, template plus metadata in each message.
	require.Len(t, backend.messages, 4)
	assert.True(t, strings.HasPrefix(backend.messages[0], testPrompt))
	assert.Contains(t, backend.messages[0], "title: paper 0\nabstract: abstract 0\n")

	assert.Equal(t, 4, summary.Classified)
	assert.Equal(t, 0, summary.Unparsed)

	rows, err := csvio.ReadClassified(filepath.Join(dir, "classified.csv"))
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "YES", rows[0].NAS)
	assert.Equal(t, "sound effects", rows[0].SoundType)
	assert.Equal(t, "GAN", rows[0].Architecture)
	assert.Equal(t, "Not specified", rows[1].Architecture)
}

// Unparseable answers must produce a row with empty labels and must not
// stop the batch.
func TestRunEmitsEmptyLabelsForUnparsedAnswer(t *testing.T) {
	dir := t.TempDir()
	backend := &mockBackend{replies: map[string]string{
		"paper 1": "I cannot classify this paper.",
	}}

	records := inputRecords(3)
	summary, err := Run(context.Background(), backend, records, testPrompt, classifyCfg(dir), zerolog.Nop(), io.Discard)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Classified)
	assert.Equal(t, 1, summary.Unparsed)

	rows, err := csvio.ReadClassified(filepath.Join(dir, "classified.csv"))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2301.00001", rows[1].ID)
	assert.True(t, rows[1].Classification.IsZero())
	assert.False(t, rows[2].Classification.IsZero())
}

func TestRunFatalErrorFlushesProgress(t *testing.T) {
	dir := t.TempDir()
	backend := &mockBackend{failFor: map[string]error{
		"paper 2": fmt.Errorf("after 3 attempt(s): HTTP 500"),
	}}

	cfg := classifyCfg(dir)
	cfg.CheckpointFreq = 100 // no periodic snapshot before the failure

	records := inputRecords(4)
	_, err := Run(context.Background(), backend, records, testPrompt, cfg, zerolog.Nop(), io.Discard)
	require.Error(t, err)

	var state checkpoint.ClassifyState
	found, err := checkpoint.Load(cfg.CheckpointFile, &state)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, state.Index)

	rows, err := csvio.ReadClassified(cfg.CSVFile)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRunResumesPastClassifiedRecords(t *testing.T) {
	dir := t.TempDir()
	cfg := classifyCfg(dir)
	records := inputRecords(4)

	// First run dies on the third record.
	backend := &mockBackend{failFor: map[string]error{"paper 2": fmt.Errorf("boom")}}
	_, err := Run(context.Background(), backend, records, testPrompt, cfg, zerolog.Nop(), io.Discard)
	require.Error(t, err)

	// Restart: only the remaining records are sent to the backend.
	backend2 := &mockBackend{}
	summary, err := Run(context.Background(), backend2, records, testPrompt, cfg, zerolog.Nop(), io.Discard)
	require.NoError(t, err)
	assert.Len(t, backend2.messages, 2)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 2, summary.Classified)

	rows, err := csvio.ReadClassified(cfg.CSVFile)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	for i, row := range rows {
		assert.Equal(t, records[i].ID, row.ID)
	}
}

// The output CSV and the resume index are two separate writes; a crash
// between them leaves the CSV one batch ahead of the index. The restart
// must re-classify from the index without duplicating the extra rows.
func TestRunResumeDropsRowsAheadOfCheckpoint(t *testing.T) {
	dir := t.TempDir()
	cfg := classifyCfg(dir)
	records := inputRecords(3)

	// Crash state: two rows on disk, index persisted as one.
	crashed := []types.ClassifiedRecord{
		{Record: records[0], Classification: types.Classification{NAS: "NO", SoundType: "speech", Architecture: "Not specified"}},
		{Record: records[1], Classification: types.Classification{NAS: "NO", SoundType: "speech", Architecture: "Not specified"}},
	}
	require.NoError(t, csvio.WriteClassified(cfg.CSVFile, crashed))
	require.NoError(t, checkpoint.Save(cfg.CheckpointFile, checkpoint.ClassifyState{Index: 1}))

	backend := &mockBackend{}
	summary, err := Run(context.Background(), backend, records, testPrompt, cfg, zerolog.Nop(), io.Discard)
	require.NoError(t, err)
	assert.Len(t, backend.messages, 2)
	assert.Equal(t, 1, summary.Skipped)

	rows, err := csvio.ReadClassified(cfg.CSVFile)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	ids := make(map[string]int)
	for _, row := range rows {
		ids[row.ID]++
	}
	for id, n := range ids {
		assert.Equalf(t, 1, n, "id %s appears %d times", id, n)
	}
}

// The mirror-image inconsistency: index ahead of the CSV. There is no
// trustworthy prefix to keep, so the run starts over.
func TestRunResumeRestartsWhenCSVBehindCheckpoint(t *testing.T) {
	dir := t.TempDir()
	cfg := classifyCfg(dir)
	records := inputRecords(3)

	short := []types.ClassifiedRecord{
		{Record: records[0], Classification: types.Classification{NAS: "NO", SoundType: "speech", Architecture: "Not specified"}},
	}
	require.NoError(t, csvio.WriteClassified(cfg.CSVFile, short))
	require.NoError(t, checkpoint.Save(cfg.CheckpointFile, checkpoint.ClassifyState{Index: 2}))

	backend := &mockBackend{}
	summary, err := Run(context.Background(), backend, records, testPrompt, cfg, zerolog.Nop(), io.Discard)
	require.NoError(t, err)
	assert.Len(t, backend.messages, 3)
	assert.Equal(t, 0, summary.Skipped)

	rows, err := csvio.ReadClassified(cfg.CSVFile)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestRunCompletedCheckpointMakesRerunANoop(t *testing.T) {
	dir := t.TempDir()
	cfg := classifyCfg(dir)
	records := inputRecords(2)

	backend := &mockBackend{}
	_, err := Run(context.Background(), backend, records, testPrompt, cfg, zerolog.Nop(), io.Discard)
	require.NoError(t, err)

	backend2 := &mockBackend{}
	summary, err := Run(context.Background(), backend2, records, testPrompt, cfg, zerolog.Nop(), io.Discard)
	require.NoError(t, err)
	assert.Empty(t, backend2.messages)
	assert.Equal(t, 2, summary.Skipped)
}

func TestDedup(t *testing.T) {
	records := []types.Record{
		{ID: "1", Title: "Neural Foley"},
		{ID: "2", Title: "neural  foley"}, // same title modulo case/spacing
		{ID: "1", Title: "Different Title"},
		{ID: "3", Title: "Another Paper"},
	}

	unique := Dedup(records)
	require.Len(t, unique, 2)
	assert.Equal(t, "1", unique[0].ID)
	assert.Equal(t, "3", unique[1].ID)
}

func TestLoadPrompt(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.txt")
	require.NoError(t, os.WriteFile(good, []byte(testPrompt), 0o644))
	prompt, err := LoadPrompt(good)
	require.NoError(t, err)
	assert.Equal(t, testPrompt, prompt)

	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("Classify the paper.\nNAS: ...\n"), 0o644))
	_, err = LoadPrompt(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sound Type:")

	_, err = LoadPrompt(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
