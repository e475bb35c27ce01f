// Package urlstore persists discovered article URLs and run metadata in
// SQLite so deduplication can span crawl runs.
package urlstore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store manages the seen-URL index and run records.
type Store struct {
	db *sql.DB
}

// Run describes one collector run.
type Run struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt *time.Time
	PageStart  int
	PageEnd    int
	URLCount   int
}

// Open opens (or creates) the store at the given database path.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the tables if they don't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS urls (
		url TEXT PRIMARY KEY,
		page INTEGER NOT NULL,
		run_id TEXT NOT NULL,
		discovered_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		page_start INTEGER NOT NULL,
		page_end INTEGER NOT NULL,
		url_count INTEGER DEFAULT 0
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginRun records the start of a collector run.
func (s *Store) BeginRun(runID uuid.UUID, pageStart, pageEnd int) error {
	query := `INSERT INTO runs (run_id, started_at, page_start, page_end) VALUES (?, ?, ?, ?)`
	_, err := s.db.Exec(query, runID.String(), time.Now().Format(time.RFC3339), pageStart, pageEnd)
	if err != nil {
		return fmt.Errorf("failed to record run start: %w", err)
	}
	return nil
}

// FinishRun records the end of a collector run and its final URL count.
func (s *Store) FinishRun(runID uuid.UUID, urlCount int) error {
	query := `UPDATE runs SET finished_at = ?, url_count = ? WHERE run_id = ?`
	_, err := s.db.Exec(query, time.Now().Format(time.RFC3339), urlCount, runID.String())
	if err != nil {
		return fmt.Errorf("failed to record run finish: %w", err)
	}
	return nil
}

// GetRun returns one run record.
func (s *Store) GetRun(runID uuid.UUID) (*Run, error) {
	var run Run
	var started string
	var finished sql.NullString
	query := `SELECT started_at, finished_at, page_start, page_end, url_count FROM runs WHERE run_id = ?`
	err := s.db.QueryRow(query, runID.String()).
		Scan(&started, &finished, &run.PageStart, &run.PageEnd, &run.URLCount)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	run.RunID = runID
	if t, err := time.Parse(time.RFC3339, started); err == nil {
		run.StartedAt = t
	}
	if finished.Valid {
		if t, err := time.Parse(time.RFC3339, finished.String); err == nil {
			run.FinishedAt = &t
		}
	}
	return &run, nil
}

// MarkIfNew inserts the URL if it has never been seen and reports whether
// the insert happened. A URL already present in the index (from this run or
// a previous one) returns false.
func (s *Store) MarkIfNew(url string, page int, runID uuid.UUID) (bool, error) {
	query := `INSERT OR IGNORE INTO urls (url, page, run_id, discovered_at) VALUES (?, ?, ?, ?)`
	result, err := s.db.Exec(query, url, page, runID.String(), time.Now().Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("failed to mark URL: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check insert result: %w", err)
	}
	return n > 0, nil
}

// Known reports whether the URL is already in the index.
func (s *Store) Known(url string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM urls WHERE url = ?`, url).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query URL: %w", err)
	}
	return count > 0, nil
}

// CountURLs returns the number of URLs in the index.
func (s *Store) CountURLs() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM urls`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count URLs: %w", err)
	}
	return count, nil
}
