// Package memory provides an in-process run ledger for tests and one-off
// runs that do not need history.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"portfoliocalc/internal/runlog"
)

var _ runlog.Store = (*Store)(nil)

// Store keeps records in a slice guarded by a mutex.
type Store struct {
	mu      sync.RWMutex
	records []runlog.Record
	closed  bool
}

// NewStore returns an empty ledger.
func NewStore() *Store { return &Store{} }

var errClosed = errors.New("ledger closed")

// Append stores a copy of rec. IDs must be unique.
func (s *Store) Append(_ context.Context, rec runlog.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("append run: empty id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	for _, existing := range s.records {
		if existing.ID == rec.ID {
			return fmt.Errorf("append run %s: duplicate id", rec.ID)
		}
	}
	s.records = append(s.records, cloneRecord(rec))
	return nil
}

// Get returns the record with the given id.
func (s *Store) Get(_ context.Context, id string) (runlog.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.ID == id {
			return cloneRecord(rec), nil
		}
	}
	return runlog.Record{}, fmt.Errorf("%w: %s", runlog.ErrNotFound, id)
}

// Recent returns the newest records first.
func (s *Store) Recent(_ context.Context, limit int) ([]runlog.Record, error) {
	s.mu.RLock()
	out := make([]runlog.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, cloneRecord(rec))
	}
	s.mu.RUnlock()
	return runlog.Newest(out, limit), nil
}

// Close marks the store closed; later appends fail.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func cloneRecord(rec runlog.Record) runlog.Record {
	rec.Stages = slices.Clone(rec.Stages)
	rec.Warnings = slices.Clone(rec.Warnings)
	return rec
}
