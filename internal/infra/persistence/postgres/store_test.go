package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"portfoliocalc/internal/infra/persistence/postgres/testutil"
	"portfoliocalc/internal/runlog"
)

func openStub(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(driverName, dsn string) (*sql.DB, error) {
		if driverName != defaultDriver {
			t.Fatalf("unexpected driver %s", driverName)
		}
		return db, nil
	})
	t.Cleanup(restore)
	s, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s, conn
}

func TestNewStoreCreatesRunsTable(t *testing.T) {
	_, conn := openStub(t)
	var sawDDL bool
	for _, stmt := range conn.Execs {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE IF NOT EXISTS RUNS") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected runs DDL, got execs: %v", conn.Execs)
	}
}

func TestAppendAndRecent(t *testing.T) {
	ctx := context.Background()
	s, conn := openStub(t)
	base := time.Date(2026, 7, 4, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		rec := runlog.Record{ID: id, State: "committed", StartedAt: base.Add(time.Duration(i) * time.Minute), Rows: i}
		if err := s.Append(ctx, rec); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}
	if len(conn.Tables["runs"]) != 3 {
		t.Fatalf("expected 3 stored rows, got %d", len(conn.Tables["runs"]))
	}
	got, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 || got[0].ID != "third" || got[1].ID != "second" {
		t.Fatalf("unexpected recent: %+v", got)
	}
	rec, err := s.Get(ctx, "first")
	if err != nil || rec.ID != "first" {
		t.Fatalf("get first: %+v %v", rec, err)
	}
	if _, err := s.Get(ctx, "absent"); !errors.Is(err, runlog.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendSurfacesDriverFailures(t *testing.T) {
	ctx := context.Background()
	s, conn := openStub(t)
	conn.FailCommit = true
	if err := s.Append(ctx, runlog.Record{ID: "c", State: "failed"}); err == nil || !strings.Contains(err.Error(), "commit") {
		t.Fatalf("expected commit failure, got %v", err)
	}
	conn.FailCommit = false
	conn.FailBegin = true
	if err := s.Append(ctx, runlog.Record{ID: "b", State: "failed"}); err == nil {
		t.Fatalf("expected begin failure")
	}
	if err := s.Append(ctx, runlog.Record{}); err == nil {
		t.Fatalf("expected empty id rejection")
	}
}

func TestNewStorePingFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(context.Background(), "postgres://x"); err == nil || !strings.Contains(err.Error(), "ping") {
		t.Fatalf("expected ping error, got %v", err)
	}
}
