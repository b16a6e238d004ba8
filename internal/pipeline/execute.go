package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"portfoliocalc/internal/dataset"
)

// ExecOptions tune Execute.
type ExecOptions struct {
	// Workers bounds row-level parallelism inside a stage. Zero means
	// GOMAXPROCS; one computes rows sequentially.
	Workers int
	// IDColumn names the column quoted in StageComputeError.
	IDColumn string
	Logger   *zap.Logger
	// Observe is called after each stage completes.
	Observe func(stage string, d time.Duration)
}

func (o ExecOptions) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// rowChunk is how many rows one goroutine computes at a time.
const rowChunk = 512

// Execute runs every stage of the plan over t in order. Each stage sees the
// table as left by the stages before it. Results of a stage are applied only
// after every row computed successfully, so a failing stage leaves its
// columns untouched in t.
//
// Cancellation is checked between chunks of rowChunk rows, not per row: a
// chunk already started runs to completion. A stage interrupted by ctx
// returns ctx.Err() and writes nothing back to t; stages that finished
// before it keep their columns.
func (p *Plan) Execute(ctx context.Context, t *dataset.Table, opts ExecOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, s := range p.stages {
		start := time.Now()
		if err := p.executeStage(ctx, s, t, opts); err != nil {
			return err
		}
		d := time.Since(start)
		logger.Debug("stage complete", zap.String("stage", s.Name()), zap.Int("rows", t.RowCount()), zap.Duration("elapsed", d))
		if opts.Observe != nil {
			opts.Observe(s.Name(), d)
		}
	}
	return nil
}

func (p *Plan) executeStage(ctx context.Context, s Stage, t *dataset.Table, opts ExecOptions) error {
	inputs := newColumnSet(s.Inputs())
	outputs := s.Outputs()
	declared := newColumnSet(outputs)

	if prep, ok := s.(Preparer); ok {
		view := &scopedRows{table: t, allowed: inputs}
		if err := prep.Prepare(ctx, view); err != nil {
			return &StageComputeError{Stage: s.Name(), Row: -1, Err: fmt.Errorf("prepare: %w", err)}
		}
		if err := view.err(); err != nil {
			return &StageComputeError{Stage: s.Name(), Row: -1, Err: err}
		}
	}

	n := t.RowCount()
	results := make([]Values, n)
	compute := func(i int) error {
		row := &scopedRow{row: t.Row(i), allowed: inputs}
		vals, err := s.Compute(row)
		if err == nil {
			err = row.err()
		}
		if err == nil {
			for col := range vals {
				if !declared.has(col) {
					err = fmt.Errorf("%w: wrote %q", ErrUndeclaredColumn, col)
					break
				}
			}
		}
		if err != nil {
			return p.computeError(s, t, i, opts.IDColumn, err)
		}
		results[i] = vals
		return nil
	}

	if workers := opts.workers(); workers <= 1 || n <= rowChunk {
		for i := 0; i < n; i++ {
			if i%rowChunk == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			if err := compute(i); err != nil {
				return err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for lo := 0; lo < n; lo += rowChunk {
			hi := min(lo+rowChunk, n)
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				for i := lo; i < hi; i++ {
					if err := compute(i); err != nil {
						return err
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	for _, col := range outputs {
		t.AddColumn(col)
	}
	for i, vals := range results {
		for _, col := range outputs {
			v, ok := vals[col]
			if !ok {
				v = dataset.Null()
			}
			if err := t.Set(i, col, v); err != nil {
				return &StageComputeError{Stage: s.Name(), Row: i, Err: err}
			}
		}
	}
	return nil
}

func (p *Plan) computeError(s Stage, t *dataset.Table, i int, idCol string, err error) error {
	ce := &StageComputeError{Stage: s.Name(), Row: i, Err: err}
	if idCol != "" {
		ce.BuildingID = t.Row(i).Text(idCol)
	}
	return ce
}
