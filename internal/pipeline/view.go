package pipeline

import (
	"fmt"

	"portfoliocalc/internal/dataset"
)

// columnSet is a stage's declared columns.
type columnSet map[string]struct{}

func newColumnSet(cols []string) columnSet {
	s := make(columnSet, len(cols))
	for _, c := range cols {
		s[c] = struct{}{}
	}
	return s
}

func (s columnSet) has(c string) bool {
	_, ok := s[c]
	return ok
}

// scopedRow restricts a table row to a stage's inputs. The first undeclared
// read is remembered and turned into a StageComputeError by the executor.
type scopedRow struct {
	row     dataset.Row
	allowed columnSet
	stray   string
}

func (r *scopedRow) check(col string) bool {
	if r.allowed.has(col) {
		return true
	}
	if r.stray == "" {
		r.stray = col
	}
	return false
}

func (r *scopedRow) Value(col string) dataset.Value {
	if !r.check(col) {
		return dataset.Null()
	}
	return r.row.Value(col)
}

func (r *scopedRow) Float(col string) (float64, bool) {
	if !r.check(col) {
		return 0, false
	}
	return r.row.Float(col)
}

func (r *scopedRow) Text(col string) string {
	if !r.check(col) {
		return ""
	}
	return r.row.Text(col)
}

func (r *scopedRow) err() error {
	if r.stray == "" {
		return nil
	}
	return fmt.Errorf("%w: read %q", ErrUndeclaredColumn, r.stray)
}

// scopedRows is the Rows view handed to Preparer. Undeclared reads are
// collected across every row.
type scopedRows struct {
	table   *dataset.Table
	allowed columnSet
	stray   string
}

func (s *scopedRows) Len() int { return s.table.RowCount() }

func (s *scopedRows) Row(i int) Row {
	return &preparedRow{scopedRow: scopedRow{row: s.table.Row(i), allowed: s.allowed}, parent: s}
}

type preparedRow struct {
	scopedRow
	parent *scopedRows
}

func (r *preparedRow) note() {
	if r.stray != "" && r.parent.stray == "" {
		r.parent.stray = r.stray
	}
}

func (r *preparedRow) Value(col string) dataset.Value {
	v := r.scopedRow.Value(col)
	r.note()
	return v
}

func (r *preparedRow) Float(col string) (float64, bool) {
	f, ok := r.scopedRow.Float(col)
	r.note()
	return f, ok
}

func (r *preparedRow) Text(col string) string {
	t := r.scopedRow.Text(col)
	r.note()
	return t
}

func (s *scopedRows) err() error {
	if s.stray == "" {
		return nil
	}
	return fmt.Errorf("%w: read %q while preparing", ErrUndeclaredColumn, s.stray)
}
