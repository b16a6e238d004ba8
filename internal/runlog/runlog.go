// Package runlog records every pipeline run attempt, successful or not, so an
// operator can see which backup belongs to which run.
package runlog

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrNotFound is returned by Get for unknown run IDs.
var ErrNotFound = errors.New("run not found")

// Driver identifies a ledger backend.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Record is one run attempt.
type Record struct {
	ID          string        `json:"id"`
	Label       string        `json:"label,omitempty"`
	State       string        `json:"state"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
	DatasetPath string        `json:"dataset_path"`
	BackupKey   string        `json:"backup_key,omitempty"`
	Rows        int           `json:"rows"`
	Stages      []StageTiming `json:"stages,omitempty"`
	Warnings    []string      `json:"warnings,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// StageTiming is how long one stage took.
type StageTiming struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

// Duration is the wall time of the run.
func (r Record) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store persists run records. Records are append-only.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	// Recent returns up to limit records, newest first. A limit of zero or
	// less returns every record.
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// Newest sorts records newest first and truncates to limit. Ties on start
// time are broken by ID so the order is stable.
func Newest(records []Record, limit int) []Record {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].StartedAt.Equal(records[j].StartedAt) {
			return records[i].StartedAt.After(records[j].StartedAt)
		}
		return records[i].ID > records[j].ID
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}
