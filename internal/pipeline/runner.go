package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"portfoliocalc/internal/backup"
	"portfoliocalc/internal/dataset"
	"portfoliocalc/internal/metrics"
	"portfoliocalc/internal/runlog"
	"portfoliocalc/internal/validate"
)

// Runner performs the full protocol for one dataset file: load, snapshot,
// run every stage, validate, then replace the file atomically. Any fatal
// condition leaves the file on disk as it was.
type Runner struct {
	plan      *Plan
	backups   *backup.Manager
	validator *validate.Engine
	ledger    runlog.Store
	metrics   *metrics.Recorder
	textfile  string
	logger    *zap.Logger
	format    dataset.Options
	exec      ExecOptions
	now       func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithValidator replaces the default row-count and column-presence rules.
func WithValidator(e *validate.Engine) RunnerOption {
	return func(r *Runner) { r.validator = e }
}

// WithLedger records every attempt in store.
func WithLedger(store runlog.Store) RunnerOption { return func(r *Runner) { r.ledger = store } }

// WithMetrics records run metrics, writing them to textfile after each run
// when textfile is not empty.
func WithMetrics(rec *metrics.Recorder, textfile string) RunnerOption {
	return func(r *Runner) {
		r.metrics = rec
		r.textfile = textfile
	}
}

// WithFormat sets the delimited file format.
func WithFormat(f dataset.Options) RunnerOption { return func(r *Runner) { r.format = f } }

// WithWorkers bounds row parallelism.
func WithWorkers(n int) RunnerOption { return func(r *Runner) { r.exec.Workers = n } }

// WithIDColumn names the identifier column quoted in compute errors.
func WithIDColumn(col string) RunnerOption { return func(r *Runner) { r.exec.IDColumn = col } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) RunnerOption { return func(r *Runner) { r.now = now } }

// NewRunner checks the stage order against the input columns and returns a
// runner. An invalid order is a DependencyError, reported before any file is
// touched.
func NewRunner(inputs []string, stages []Stage, backups *backup.Manager, opts ...RunnerOption) (*Runner, error) {
	plan, err := New(inputs, stages...)
	if err != nil {
		return nil, err
	}
	r := &Runner{
		plan:      plan,
		backups:   backups,
		validator: validate.NewEngine(validate.NewRowCountRule(), validate.NewColumnPresenceRule()),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Plan returns the checked stage order.
func (r *Runner) Plan() *Plan { return r.plan }

// Result describes a finished run.
type Result struct {
	ID         string
	Label      string
	State      State
	BackupKey  string
	Rows       int
	Validation validate.Result
	Stages     []runlog.StageTiming
	Table      *dataset.Table
	StartedAt  time.Time
	FinishedAt time.Time
}

// Run executes the protocol against the file at path. The returned Result is
// never nil; on failure its State is StateFailed and the error says why.
func (r *Runner) Run(ctx context.Context, path, label string) (*Result, error) {
	res := &Result{ID: uuid.NewString(), Label: label, StartedAt: r.now().UTC()}
	log := r.logger.With(zap.String("run_id", res.ID), zap.String("dataset", path))
	if label != "" {
		log = log.With(zap.String("label", label))
	}

	var m Machine
	err := r.run(ctx, path, res, &m, log)
	if err != nil {
		if tErr := m.Transition(StateFailed); tErr != nil {
			log.Error("could not mark run failed", zap.Error(tErr))
		}
		log.Error("run failed", zap.String("state", m.State().String()), zap.Error(err))
	}
	res.State = m.State()
	res.FinishedAt = r.now().UTC()
	r.finish(ctx, path, res, err, log)
	return res, err
}

func (r *Runner) run(ctx context.Context, path string, res *Result, m *Machine, log *zap.Logger) error {
	table, err := dataset.LoadWith(path, r.format)
	if err != nil {
		return err
	}
	expected := table.RowCount()
	res.Rows = expected
	log.Info("dataset loaded", zap.Int("rows", expected), zap.Int("columns", len(table.ColumnNames())))

	handle, err := r.backups.Snapshot(ctx, path, map[string]string{"run_id": res.ID, "label": res.Label})
	if err != nil {
		return err
	}
	res.BackupKey = handle.Key
	if err := m.Transition(StateBackedUp); err != nil {
		return err
	}

	if err := m.Transition(StateRunning); err != nil {
		return err
	}
	exec := r.exec
	exec.Logger = log
	exec.Observe = func(stage string, d time.Duration) {
		res.Stages = append(res.Stages, runlog.StageTiming{Name: stage, Duration: d})
		r.metrics.ObserveStage(stage, d)
		log.Info("stage complete", zap.String("stage", stage), zap.Duration("elapsed", d))
	}
	if err := r.plan.Execute(ctx, table, exec); err != nil {
		return err
	}

	view := validate.View{Table: table, ExpectedRows: expected, Derived: r.derived()}
	vres, err := r.validator.Evaluate(ctx, view)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	res.Validation = vres
	res.Rows = table.RowCount()
	for _, w := range vres.Warnings() {
		log.Warn("validation warning", zap.String("rule", w.Rule), zap.String("column", w.Column), zap.String("detail", w.Message))
		r.metrics.ObserveWarning(w.Rule)
	}
	if vres.HasFatal() {
		return &validate.Failure{Violations: vres.Violations, BackupKey: res.BackupKey}
	}
	if err := m.Transition(StateValidated); err != nil {
		return err
	}

	if err := dataset.SaveWith(table, path, r.format); err != nil {
		return fmt.Errorf("commit %s: %w", path, err)
	}
	if err := m.Transition(StateCommitted); err != nil {
		return err
	}
	res.Table = table
	log.Info("run committed", zap.String("backup", res.BackupKey), zap.Int("rows", res.Rows), zap.Int("warnings", len(vres.Warnings())))
	return nil
}

func (r *Runner) derived() []string {
	var cols []string
	for _, s := range r.plan.stages {
		cols = append(cols, s.Outputs()...)
	}
	return cols
}

// finish records the attempt. Ledger and metrics failures are logged but
// never change the run outcome.
func (r *Runner) finish(ctx context.Context, path string, res *Result, runErr error, log *zap.Logger) {
	r.metrics.ObserveRun(res.State.String(), res.Rows, res.FinishedAt)
	if err := r.metrics.WriteTextfile(r.textfile); err != nil {
		log.Warn("metrics export failed", zap.Error(err))
	}
	if r.ledger == nil {
		return
	}
	rec := runlog.Record{
		ID:          res.ID,
		Label:       res.Label,
		State:       res.State.String(),
		StartedAt:   res.StartedAt,
		FinishedAt:  res.FinishedAt,
		DatasetPath: path,
		BackupKey:   res.BackupKey,
		Rows:        res.Rows,
		Stages:      res.Stages,
	}
	for _, w := range res.Validation.Warnings() {
		rec.Warnings = append(rec.Warnings, w.String())
	}
	if runErr != nil {
		rec.Error = Classify(runErr) + ": " + runErr.Error()
	}
	// The run context may already be cancelled; the attempt is still worth
	// recording.
	if err := r.ledger.Append(context.WithoutCancel(ctx), rec); err != nil {
		log.Warn("run ledger append failed", zap.Error(err))
	}
}

// Classify names the failure class of an error returned by Run or
// NewRunner, for exit messages and the run ledger.
func Classify(err error) string {
	var (
		dep  *DependencyError
		comp *StageComputeError
		bk   *backup.BackupError
		pe   *dataset.ParseError
		vf   *validate.Failure
		tr   *TransitionError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &dep):
		return "dependency"
	case errors.As(err, &pe):
		return "parse"
	case errors.As(err, &bk):
		return "backup"
	case errors.As(err, &comp):
		return "stage_compute"
	case errors.As(err, &vf):
		return "validation"
	case errors.As(err, &tr):
		return "transition"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "io"
	}
}
