// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists fetched and classified papers in a SQLite database
// with a full-text index over titles and abstracts, so a researcher can
// query a harvest without re-reading CSVs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-triage/pkg/types"
)

const defaultMaxResults = 20

// Store manages the paper database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// Open opens or creates the SQLite database described by cfg, creating the
// schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("store db_path must not be empty")
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			title TEXT,
			abstract TEXT,
			published TEXT,
			authors TEXT,
			comment TEXT,
			nas TEXT,
			sound_type TEXT,
			architecture TEXT,
			ingested_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_nas ON papers(nas)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='papers_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE papers_fts USING fts5(title, abstract, content=papers, content_rowid=rowid)`,
		`CREATE TRIGGER papers_ai AFTER INSERT ON papers BEGIN
			INSERT INTO papers_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
		END`,
		`CREATE TRIGGER papers_ad AFTER DELETE ON papers BEGIN
			INSERT INTO papers_fts(papers_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
		END`,
		`CREATE TRIGGER papers_au AFTER UPDATE ON papers BEGIN
			INSERT INTO papers_fts(papers_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
			INSERT INTO papers_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// IngestSummary holds counts from an ingest run.
type IngestSummary struct {
	Inserted int
	Updated  int
}

// Total returns the number of rows processed.
func (s IngestSummary) Total() int {
	return s.Inserted + s.Updated
}

// Ingest upserts rows keyed by arXiv ID, so re-ingesting a CSV is
// idempotent and a classified CSV overwrites the labels of a previously
// ingested plain one.
func (s *Store) Ingest(ctx context.Context, rows []types.ClassifiedRecord) (IngestSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO papers (id, title, abstract, published, authors, comment, nas, sound_type, architecture, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			abstract = excluded.abstract,
			published = excluded.published,
			authors = excluded.authors,
			comment = excluded.comment,
			nas = excluded.nas,
			sound_type = excluded.sound_type,
			architecture = excluded.architecture,
			ingested_at = excluded.ingested_at`)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	var summary IngestSummary
	now := time.Now().UTC().Format(time.RFC3339)

	for _, row := range rows {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT count(*) FROM papers WHERE id = ?`, row.ID,
		).Scan(&exists); err != nil {
			return summary, fmt.Errorf("checking %s: %w", row.ID, err)
		}

		authors, err := json.Marshal(row.Authors)
		if err != nil {
			return summary, fmt.Errorf("encoding authors for %s: %w", row.ID, err)
		}

		published := ""
		if !row.Published.IsZero() {
			published = row.Published.UTC().Format(time.RFC3339)
		}

		if _, err := stmt.ExecContext(ctx,
			row.ID, row.Title, row.Abstract, published, string(authors), row.Comment,
			row.NAS, row.SoundType, row.Architecture, now,
		); err != nil {
			return summary, fmt.Errorf("upserting %s: %w", row.ID, err)
		}

		if exists > 0 {
			summary.Updated++
		} else {
			summary.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing: %w", err)
	}
	return summary, nil
}

// Count returns the number of papers in the store.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM papers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}
