// Package sqlite persists the run ledger in an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"portfoliocalc/internal/runlog"
)

var _ runlog.Store = (*Store)(nil)

// DefaultPath is used when no path is configured.
const DefaultPath = "portfoliocalc-runs.db"

// Store writes one row per run with the full record as a JSON payload.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the ledger at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		state TEXT NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Append inserts rec. A second record with the same ID is rejected.
func (s *Store) Append(ctx context.Context, rec runlog.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("append run: empty id")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", rec.ID, err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO runs(id,started_at,state,payload) VALUES(?,?,?,?)`,
		rec.ID, rec.StartedAt.UTC().Format(time.RFC3339Nano), rec.State, payload); err != nil {
		return fmt.Errorf("insert run %s: %w", rec.ID, err)
	}
	return nil
}

// Get loads one record.
func (s *Store) Get(ctx context.Context, id string) (runlog.Record, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM runs WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return runlog.Record{}, fmt.Errorf("%w: %s", runlog.ErrNotFound, id)
	}
	if err != nil {
		return runlog.Record{}, fmt.Errorf("select run %s: %w", id, err)
	}
	var rec runlog.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return runlog.Record{}, fmt.Errorf("decode run %s: %w", id, err)
	}
	return rec, nil
}

// Recent returns the newest records first.
func (s *Store) Recent(ctx context.Context, limit int) ([]runlog.Record, error) {
	query := `SELECT payload FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []runlog.Record
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var rec runlog.Record
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
