// Package dataset holds the building table in memory and moves it to and from
// the delimited text file it lives in between runs.
package dataset

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownColumn   = errors.New("unknown column")
	ErrRowOutOfRange   = errors.New("row index out of range")
	ErrDuplicateColumn = errors.New("duplicate column")
)

// Table is a row-oriented table addressed by column name. Cells keep their
// on-disk text so that an unmodified load/save cycle reproduces every field.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// New constructs an empty table with the given header.
func New(columns ...string) (*Table, error) {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		if _, dup := t.index[c]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}
		t.index[c] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	return t, nil
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int { return len(t.rows) }

// ColumnNames returns the header in file order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether name is part of the header.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// AddColumn appends name to the header, leaving every row's cell absent.
// Adding an existing column is a no-op.
func (t *Table) AddColumn(name string) {
	if _, ok := t.index[name]; ok {
		return
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], "")
	}
}

// AppendRow adds a row whose fields follow the header order.
func (t *Table) AppendRow(fields []string) error {
	if len(fields) != len(t.columns) {
		return fmt.Errorf("row has %d fields, header has %d", len(fields), len(t.columns))
	}
	row := make([]string, len(fields))
	copy(row, fields)
	t.rows = append(t.rows, row)
	return nil
}

// DeleteRow removes row i. The pipeline itself never removes rows.
func (t *Table) DeleteRow(i int) error {
	if i < 0 || i >= len(t.rows) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, i)
	}
	t.rows = append(t.rows[:i], t.rows[i+1:]...)
	return nil
}

// Row returns a read view of row i.
func (t *Table) Row(i int) Row { return Row{t: t, i: i} }

// Set writes v into row i, column col.
func (t *Table) Set(i int, col string, v Value) error {
	c, ok := t.index[col]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, col)
	}
	if i < 0 || i >= len(t.rows) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, i)
	}
	t.rows[i][c] = v.Text()
	return nil
}

// Column returns every value of col in row order, or nil when the column is
// missing.
func (t *Table) Column(col string) []Value {
	c, ok := t.index[col]
	if !ok {
		return nil
	}
	out := make([]Value, len(t.rows))
	for i, row := range t.rows {
		out[i] = parseCell(row[c])
	}
	return out
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	cp := &Table{
		columns: t.ColumnNames(),
		index:   make(map[string]int, len(t.index)),
		rows:    make([][]string, len(t.rows)),
	}
	for k, v := range t.index {
		cp.index[k] = v
	}
	for i, row := range t.rows {
		cp.rows[i] = append([]string(nil), row...)
	}
	return cp
}

// Row is a read-only handle on one table row.
type Row struct {
	t *Table
	i int
}

// Index returns the row position inside its table.
func (r Row) Index() int { return r.i }

// Value returns the cell at col. Columns missing from the header read as null.
func (r Row) Value(col string) Value {
	c, ok := r.t.index[col]
	if !ok {
		return Value{}
	}
	return parseCell(r.t.rows[r.i][c])
}

// Float is shorthand for r.Value(col).Float().
func (r Row) Float(col string) (float64, bool) { return r.Value(col).Float() }

// Text returns the raw cell text, or "" when absent.
func (r Row) Text(col string) string { return r.Value(col).Text() }
