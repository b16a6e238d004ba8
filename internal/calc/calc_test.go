package calc

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"portfoliocalc/internal/dataset"
	"portfoliocalc/internal/pipeline"
)

// row is a map-backed pipeline.Row. Values are given as cell text so tests
// read like the CSV they stand for.
type row map[string]string

func (r row) Value(col string) dataset.Value {
	cell, ok := r[col]
	if !ok {
		return dataset.Null()
	}
	return dataset.String(cell)
}

func (r row) Float(col string) (float64, bool) { return r.Value(col).Float() }
func (r row) Text(col string) string           { return r.Value(col).Text() }

type rows []row

func (rs rows) Len() int               { return len(rs) }
func (rs rows) Row(i int) pipeline.Row { return rs[i] }

// with returns a copy of r with vals merged in.
func (r row) with(vals pipeline.Values) row {
	out := make(row, len(r)+len(vals))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range vals {
		if v.IsNull() {
			delete(out, k)
			continue
		}
		out[k] = v.Text()
	}
	return out
}

func compute(t *testing.T, s pipeline.Stage, r row) pipeline.Values {
	t.Helper()
	vals, err := s.Compute(r)
	require.NoError(t, err)
	return vals
}

func prepared[S interface {
	pipeline.Stage
	pipeline.Preparer
}](t *testing.T, s S, peers ...row) S {
	t.Helper()
	require.NoError(t, s.Prepare(context.Background(), rows(peers)))
	return s
}

func f(vals pipeline.Values, col string) (float64, bool) {
	v, ok := vals[col]
	if !ok {
		return 0, false
	}
	return v.Float()
}

func ftoa(v float64) string { return fmt.Sprint(v) }

// computeAll runs every stage in order over r.
func computeAll(t *testing.T, r row, peers ...row) row {
	t.Helper()
	if len(peers) == 0 {
		peers = []row{r}
	}
	for _, s := range Stages(Options{}) {
		if p, ok := s.(pipeline.Preparer); ok {
			require.NoError(t, p.Prepare(context.Background(), rows(peers)))
		}
		r = r.with(compute(t, s, r))
	}
	return r
}
