// Package pipeline runs calculator stages over the dataset in a statically
// checked dependency order and wraps the run in the backup, validate and
// commit protocol.
package pipeline

import (
	"context"

	"portfoliocalc/internal/dataset"
)

// Row is the read side of one dataset row as seen by a stage. Reads are
// limited to the stage's declared inputs.
type Row interface {
	Value(col string) dataset.Value
	Float(col string) (float64, bool)
	Text(col string) string
}

// Rows gives a stage read access to every row, again limited to its inputs.
type Rows interface {
	Len() int
	Row(i int) Row
}

// Values maps output columns to the values a stage computed for one row.
// Declared outputs missing from the map are written as absent.
type Values map[string]dataset.Value

// Stage is a pure row-level calculator. Compute must not read columns outside
// Inputs, must not write columns outside Outputs, and must return the same
// Values for the same row every time it is called.
type Stage interface {
	Name() string
	Inputs() []string
	Outputs() []string
	Compute(row Row) (Values, error)
}

// Preparer is implemented by stages that derive dataset-wide lookups (peer
// medians and the like) from their inputs before any row is computed.
type Preparer interface {
	Prepare(ctx context.Context, rows Rows) error
}
