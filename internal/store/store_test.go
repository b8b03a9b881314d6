// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-triage/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StoreConfig{DBPath: filepath.Join(t.TempDir(), "papers.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRows() []types.ClassifiedRecord {
	return []types.ClassifiedRecord{
		{
			Record: types.Record{
				ID:        "2301.07041",
				Title:     "Neural Foley Synthesis",
				Abstract:  "We synthesize footstep sounds with a GAN.",
				Published: time.Date(2023, 1, 17, 12, 0, 0, 0, time.UTC),
				Authors:   []string{"Ada Author"},
			},
			Classification: types.Classification{NAS: "YES", SoundType: "sound effects", Architecture: "GAN"},
		},
		{
			Record: types.Record{
				ID:       "2302.00001",
				Title:    "A Survey of Speech Synthesis",
				Abstract: "We review text-to-speech systems.",
			},
			Classification: types.Classification{NAS: "YES", SoundType: "speech", Architecture: "Transformer"},
		},
		{
			Record: types.Record{
				ID:       "2303.00002",
				Title:    "Graph Databases at Scale",
				Abstract: "Nothing to do with audio.",
			},
			Classification: types.Classification{NAS: "NO", SoundType: "speech", Architecture: "Not specified"},
		},
	}
}

func TestIngestAndCount(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	summary, err := s.Ingest(ctx, sampleRows())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Inserted)
	assert.Equal(t, 0, summary.Updated)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestIngestIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Ingest(ctx, sampleRows())
	require.NoError(t, err)

	summary, err := s.Ingest(ctx, sampleRows())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Inserted)
	assert.Equal(t, 3, summary.Updated)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestIngestClassifiedOverwritesPlainRow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	plain := []types.ClassifiedRecord{
		{Record: types.Record{ID: "2301.07041", Title: "Neural Foley Synthesis", Abstract: "Footsteps."}},
	}
	_, err := s.Ingest(ctx, plain)
	require.NoError(t, err)

	_, err = s.Ingest(ctx, sampleRows()[:1])
	require.NoError(t, err)

	results, err := s.Query(ctx, QueryOptions{NAS: "YES"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "GAN", results[0].Architecture)
}

func TestQueryFullText(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Ingest(ctx, sampleRows())
	require.NoError(t, err)

	results, err := s.Query(ctx, QueryOptions{Text: "footstep"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "2301.07041", results[0].ID)
	assert.Equal(t, []string{"Ada Author"}, results[0].Authors)
	assert.Equal(t, time.Date(2023, 1, 17, 12, 0, 0, 0, time.UTC), results[0].Published)
}

func TestQueryStructuredFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Ingest(ctx, sampleRows())
	require.NoError(t, err)

	results, err := s.Query(ctx, QueryOptions{NAS: "yes", SoundType: "speech"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "2302.00001", results[0].ID)

	results, err = s.Query(ctx, QueryOptions{NAS: "NO"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "2303.00002", results[0].ID)
}

func TestQueryRespectsMaxResults(t *testing.T) {
	s, err := Open(types.StoreConfig{
		DBPath:     filepath.Join(t.TempDir(), "papers.db"),
		MaxResults: 1,
	})
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	_, err = s.Ingest(ctx, sampleRows())
	require.NoError(t, err)

	results, err := s.Query(ctx, QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
