// Package persistence selects a run-ledger backend.
package persistence

import (
	"context"
	"fmt"

	"portfoliocalc/internal/infra/persistence/memory"
	"portfoliocalc/internal/infra/persistence/postgres"
	"portfoliocalc/internal/infra/persistence/sqlite"
	"portfoliocalc/internal/runlog"
)

// Settings choose and locate the ledger.
type Settings struct {
	Driver      runlog.Driver `yaml:"driver"`
	SQLitePath  string        `yaml:"sqlite_path"`
	PostgresDSN string        `yaml:"postgres_dsn"`
}

// Open returns the ledger named by s.Driver. An empty driver means sqlite.
func Open(ctx context.Context, s Settings) (runlog.Store, error) {
	switch s.Driver {
	case runlog.DriverMemory:
		return memory.NewStore(), nil
	case runlog.DriverSQLite, "":
		return sqlite.NewStore(s.SQLitePath)
	case runlog.DriverPostgres:
		return postgres.NewStore(ctx, s.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown ledger driver %q", s.Driver)
	}
}
