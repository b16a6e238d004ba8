package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingProducer marks an input that no input column and no earlier
	// stage provides.
	ErrMissingProducer = errors.New("missing producer")
	// ErrDuplicateProducer marks a column written by more than one stage, or
	// a stage output that shadows an input column.
	ErrDuplicateProducer = errors.New("duplicate producer")
	// ErrCycle marks stages whose dependencies loop.
	ErrCycle = errors.New("dependency cycle")
	// ErrUndeclaredColumn marks a read or write outside a stage's declared
	// columns.
	ErrUndeclaredColumn = errors.New("undeclared column")
)

// DependencyError reports a stage order that cannot run. It is raised before
// any row is touched.
type DependencyError struct {
	Stage  string
	Column string
	Kind   error
}

func (e *DependencyError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("stage %s: %v", e.Stage, e.Kind)
	}
	return fmt.Sprintf("stage %s: %v for column %q", e.Stage, e.Kind, e.Column)
}

func (e *DependencyError) Unwrap() error { return e.Kind }

// StageComputeError reports a calculator failure on one row. It aborts the
// run; the dataset file is not written.
type StageComputeError struct {
	Stage      string
	Row        int
	BuildingID string
	Err        error
}

func (e *StageComputeError) Error() string {
	id := ""
	if e.BuildingID != "" {
		id = " (" + e.BuildingID + ")"
	}
	return fmt.Sprintf("stage %s row %d%s: %v", e.Stage, e.Row, id, e.Err)
}

func (e *StageComputeError) Unwrap() error { return e.Err }

// TransitionError reports a state change the run protocol forbids.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("disallowed transition %s -> %s", e.From, e.To)
}
