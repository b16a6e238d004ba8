package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"portfoliocalc/internal/infra/persistence/memory"
	"portfoliocalc/internal/infra/persistence/sqlite"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Settings{Driver: "memory"})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := s.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", s)
	}

	path := filepath.Join(t.TempDir(), "runs.db")
	s, err = Open(ctx, Settings{SQLitePath: path})
	if err != nil {
		t.Fatalf("open default: %v", err)
	}
	defer func() { _ = s.Close() }()
	lite, ok := s.(*sqlite.Store)
	if !ok || lite.Path() != path {
		t.Fatalf("expected sqlite store at %s, got %T", path, s)
	}

	if _, err := Open(ctx, Settings{Driver: "oracle"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
