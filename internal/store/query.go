// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/paper-triage/pkg/types"
)

// QueryOptions holds parameters for paper queries.
type QueryOptions struct {
	// Text is the FTS5 full-text search string over title and abstract.
	Text string

	// NAS filters by the yes/no label when set ("YES" or "NO").
	NAS string

	// SoundType filters rows whose sound_type contains the given value.
	SoundType string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Text == "" && q.NAS == "" && q.SoundType == ""
}

// QueryResult is a stored paper with its full-text rank (zero for
// structured-only queries).
type QueryResult struct {
	types.ClassifiedRecord
	Rank float64
}

// Query searches the store. Full-text queries are ranked by relevance;
// structured-only queries are sorted by publication date then ID.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Text != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT p.id, p.title, p.abstract, p.published, p.authors, p.comment,
				p.nas, p.sound_type, p.architecture, papers_fts.rank
			FROM papers_fts
			JOIN papers p ON p.rowid = papers_fts.rowid
			WHERE papers_fts MATCH ?`)
		args = append(args, opts.Text)
	} else {
		qb.WriteString(
			`SELECT p.id, p.title, p.abstract, p.published, p.authors, p.comment,
				p.nas, p.sound_type, p.architecture, 0 AS rank
			FROM papers p
			WHERE 1=1`)
	}

	if opts.NAS != "" {
		qb.WriteString(` AND p.nas = ?`)
		args = append(args, strings.ToUpper(opts.NAS))
	}
	if opts.SoundType != "" {
		qb.WriteString(` AND p.sound_type LIKE ?`)
		args = append(args, "%"+strings.ToLower(opts.SoundType)+"%")
	}

	if useFTS {
		qb.WriteString(` ORDER BY papers_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY p.published DESC, p.id`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			r         QueryResult
			published sql.NullString
			authors   sql.NullString
		)
		if err := rows.Scan(
			&r.ID, &r.Title, &r.Abstract, &published, &authors, &r.Comment,
			&r.NAS, &r.SoundType, &r.Architecture, &r.Rank,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if published.Valid && published.String != "" {
			if t, perr := time.Parse(time.RFC3339, published.String); perr == nil {
				r.Published = t
			}
		}
		if authors.Valid && authors.String != "" && authors.String != "null" {
			if err := json.Unmarshal([]byte(authors.String), &r.Authors); err != nil {
				return nil, fmt.Errorf("decoding authors for %s: %w", r.ID, err)
			}
		}

		results = append(results, r)
	}
	return results, rows.Err()
}

// FormatTable writes query results as a human-readable table to w.
func FormatTable(results []QueryResult, w io.Writer) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-12s  %-56s  %-4s  %-22s  %s\n",
		"ID", "Title", "NAS", "Sound Type", "Architecture")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for _, r := range results {
		title := r.Title
		if len(title) > 56 {
			title = title[:53] + "..."
		}
		fmt.Fprintf(w, "%-12s  %-56s  %-4s  %-22s  %s\n",
			r.ID, title, r.NAS, r.SoundType, r.Architecture)
	}
	fmt.Fprintf(w, "\n%d result(s)\n", len(results))
}

// FormatJSON writes query results as indented JSON to w.
func FormatJSON(results []QueryResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
