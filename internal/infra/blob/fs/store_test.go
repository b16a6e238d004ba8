package fs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"portfoliocalc/internal/blob/core"
)

func TestPutIsWriteOnce(t *testing.T) {
	ctx := context.Background()
	st, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	info, err := st.Put(ctx, "portfolio_data_backup_1.csv", strings.NewReader("a,b\n1,2\n"), core.PutOptions{ContentType: "text/csv"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 8 || len(info.Checksum) != 64 {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := st.Put(ctx, "portfolio_data_backup_1.csv", strings.NewReader("clobber"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	got, rc, err := st.Get(ctx, "portfolio_data_backup_1.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	body, _ := io.ReadAll(rc)
	if string(body) != "a,b\n1,2\n" {
		t.Fatalf("content changed: %q", body)
	}
	if got.Checksum != info.Checksum || got.ContentType != "text/csv" {
		t.Fatalf("sidecar mismatch %+v", got)
	}
}

func TestPutLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	st, err := New(root)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.Put(context.Background(), "k.csv", bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(root)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), tempPrefix) {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestPutHonoursCancelledContext(t *testing.T) {
	st, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := st.Put(ctx, "k.csv", strings.NewReader("data"), core.PutOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if _, err := st.Head(context.Background(), "k.csv"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("cancelled put must not publish, got %v", err)
	}
}

func TestSanitizeKey(t *testing.T) {
	for _, bad := range []string{"", "  ", "/etc/passwd", "../x", "a/../../x", "x.csv.meta", ".upload-123"} {
		if _, err := sanitizeKey(bad); !errors.Is(err, core.ErrInvalidKey) {
			t.Fatalf("key %q should be rejected, got %v", bad, err)
		}
	}
	got, err := sanitizeKey("nested/./x.csv")
	if err != nil || got != "nested/x.csv" {
		t.Fatalf("clean key: %q %v", got, err)
	}
}

func TestListSkipsSidecarsAndFallsBackToStat(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	st, err := New(root)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"b.csv", "nested/a.csv"} {
		if _, err := st.Put(ctx, k, strings.NewReader(k), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "manual.csv"), []byte("hand copied"), 0o600); err != nil {
		t.Fatal(err)
	}
	infos, err := st.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("expected 3 entries, got %+v", infos)
	}
	if infos[0].Key != "b.csv" || infos[1].Key != "manual.csv" || infos[2].Key != "nested/a.csv" {
		t.Fatalf("unexpected order %+v", infos)
	}
	if infos[1].Size != int64(len("hand copied")) {
		t.Fatalf("stat fallback size %d", infos[1].Size)
	}
	nested, err := st.List(ctx, "nested/")
	if err != nil || len(nested) != 1 {
		t.Fatalf("prefix list %+v err=%v", nested, err)
	}
}

func TestHeadAndGetMissing(t *testing.T) {
	st, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.Head(context.Background(), "missing.csv"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("head: %v", err)
	}
	if _, _, err := st.Get(context.Background(), "missing.csv"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get: %v", err)
	}
}
