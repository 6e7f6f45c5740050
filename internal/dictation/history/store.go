// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     history
// Description: SQLite-backed session history store
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Record is one completed dictation session
type Record struct {
	ID           string        `json:"id"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Transcript   string        `json:"transcript"`
	RawText      string        `json:"raw_text,omitempty"`
	Polished     bool          `json:"polished"`
	BatchMode    bool          `json:"batch_mode"`
	Chunks       int           `json:"chunks"`
	FailedChunks int           `json:"failed_chunks"`
	Provider     string        `json:"provider"`
	Model        string        `json:"model"`
	Language     string        `json:"language"`
}

// Config holds history store configuration
type Config struct {
	// Path is the SQLite database file
	Path string
}

// DefaultConfig returns default history configuration
func DefaultConfig() Config {
	return Config{
		Path: "./data/history.db",
	}
}

// Store persists completed sessions to SQLite
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (or creates) the history database
func Open(cfg Config) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL")
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

// initSchema creates the sessions table
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		transcript TEXT NOT NULL DEFAULT '',
		raw_text TEXT NOT NULL DEFAULT '',
		polished INTEGER NOT NULL DEFAULT 0,
		batch_mode INTEGER NOT NULL DEFAULT 0,
		chunks INTEGER NOT NULL DEFAULT 0,
		failed_chunks INTEGER NOT NULL DEFAULT 0,
		provider TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Save stores one session record
func (s *Store) Save(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		return fmt.Errorf("record ID is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, started_at, duration_ms, transcript, raw_text,
			polished, batch_mode, chunks, failed_chunks, provider, model, language)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.StartedAt, rec.Duration.Milliseconds(), rec.Transcript, rec.RawText,
		rec.Polished, rec.BatchMode, rec.Chunks, rec.FailedChunks,
		rec.Provider, rec.Model, rec.Language)

	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Get retrieves one session by ID, or nil when not found
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, duration_ms, transcript, raw_text,
			polished, batch_mode, chunks, failed_chunks, provider, model, language
		FROM sessions WHERE id = ?
	`, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// Recent returns the most recent sessions, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, duration_ms, transcript, raw_text,
			polished, batch_mode, chunks, failed_chunks, provider, model, language
		FROM sessions ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// Delete removes one session by ID
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Count returns the number of stored sessions
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n)
	return n, err
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// scanner abstracts sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*Record, error) {
	var rec Record
	var durationMs int64

	err := row.Scan(&rec.ID, &rec.StartedAt, &durationMs, &rec.Transcript, &rec.RawText,
		&rec.Polished, &rec.BatchMode, &rec.Chunks, &rec.FailedChunks,
		&rec.Provider, &rec.Model, &rec.Language)
	if err != nil {
		return nil, err
	}

	rec.Duration = time.Duration(durationMs) * time.Millisecond
	return &rec, nil
}
