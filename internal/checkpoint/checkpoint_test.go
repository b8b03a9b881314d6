// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package checkpoint

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-triage/pkg/types"
)

func TestSaveLoadFetchState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fetch-checkpoint.json")

	in := FetchState{
		Query:  "cat:eess.AS",
		Offset: 200,
		Records: []types.Record{
			{ID: "2301.07041", Title: "A Paper", Abstract: "About audio."},
			{ID: "2301.07042", Title: "Another Paper", Abstract: "More audio."},
		},
		UpdatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, Save(path, in))

	var out FetchState
	found, err := Load(path, &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, in, out)
}

func TestLoadMissingReturnsNotFound(t *testing.T) {
	var out ClassifyState
	found, err := Load(filepath.Join(t.TempDir(), "absent.json"), &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLoadCorruptFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var out ClassifyState
	_, err := Load(path, &out)
	assert.Error(t, err)
}

func TestSaveOverwritesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "classify-checkpoint.json")

	require.NoError(t, Save(path, ClassifyState{Index: 10}))
	require.NoError(t, Save(path, ClassifyState{Index: 20}))

	var out ClassifyState
	found, err := Load(path, &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 20, out.Index)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "classify-checkpoint.json", entries[0].Name())
}
