package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"portfoliocalc/internal/blob/core"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	st := New()
	if st.Driver() != core.DriverMemory {
		t.Fatalf("driver %s", st.Driver())
	}
	meta := map[string]string{"run": "r1"}
	info, err := st.Put(ctx, "a.csv", strings.NewReader("abc"), core.PutOptions{Metadata: meta})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	meta["run"] = "mutated"
	if info.Metadata["run"] != "r1" {
		t.Fatalf("metadata aliased caller map")
	}
	if _, err := st.Put(ctx, "a.csv", strings.NewReader("zzz"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if _, err := st.Put(ctx, " ", strings.NewReader("zzz"), core.PutOptions{}); !errors.Is(err, core.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	_, rc, err := st.Get(ctx, "a.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	if string(body) != "abc" {
		t.Fatalf("body %q", body)
	}
	if _, err := st.Head(ctx, "b.csv"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("head missing: %v", err)
	}
	if _, _, err := st.Get(ctx, "b.csv"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get missing: %v", err)
	}
	_, _ = st.Put(ctx, "b.csv", strings.NewReader("b"), core.PutOptions{})
	infos, _ := st.List(ctx, "")
	if len(infos) != 2 || infos[0].Key != "a.csv" {
		t.Fatalf("list %+v", infos)
	}
}
