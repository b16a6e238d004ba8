package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"portfoliocalc/internal/dataset"
)

type funcStage struct {
	name    string
	inputs  []string
	outputs []string
	fn      func(Row) (Values, error)
	prepare func(context.Context, Rows) error
}

func (s *funcStage) Name() string                  { return s.name }
func (s *funcStage) Inputs() []string              { return s.inputs }
func (s *funcStage) Outputs() []string             { return s.outputs }
func (s *funcStage) Compute(r Row) (Values, error) { return s.fn(r) }

func stage(name string, in, out []string) *funcStage {
	return &funcStage{name: name, inputs: in, outputs: out, fn: func(Row) (Values, error) { return nil, nil }}
}

type preparingStage struct {
	*funcStage
}

func (s preparingStage) Prepare(ctx context.Context, rows Rows) error {
	return s.prepare(ctx, rows)
}

// doubler writes 2×in into out, leaving out absent when in is absent.
func doubler(name, in, out string) *funcStage {
	return &funcStage{name: name, inputs: []string{in}, outputs: []string{out}, fn: func(r Row) (Values, error) {
		v, ok := r.Float(in)
		if !ok {
			return nil, nil
		}
		return Values{out: dataset.Number(v * 2)}, nil
	}}
}

func table(t *testing.T, rows int) *dataset.Table {
	t.Helper()
	tbl, err := dataset.New("id", "x")
	require.NoError(t, err)
	for i := 0; i < rows; i++ {
		x := fmt.Sprint(i)
		if i%7 == 3 {
			x = ""
		}
		require.NoError(t, tbl.AppendRow([]string{fmt.Sprintf("B%04d", i), x}))
	}
	return tbl
}

func csvBody(rows int) string {
	var b strings.Builder
	b.WriteString("id,x\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "B%d,%d\n", i, i+1)
	}
	return b.String()
}
