package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfoliocalc/internal/backup"
	"portfoliocalc/internal/blob"
	"portfoliocalc/internal/dataset"
	"portfoliocalc/internal/infra/blob/memory"
	ledger "portfoliocalc/internal/infra/persistence/memory"
	"portfoliocalc/internal/metrics"
	"portfoliocalc/internal/validate"
)

type failingStore struct {
	*memory.Store
}

func (failingStore) Put(context.Context, string, io.Reader, blob.PutOptions) (blob.Info, error) {
	return blob.Info{}, errors.New("disk full")
}

type harness struct {
	path    string
	store   *memory.Store
	ledger  *ledger.Store
	metrics *metrics.Recorder
}

func newHarness(t *testing.T, rows int) *harness {
	t.Helper()
	path := filepath.Join(t.TempDir(), "buildings.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvBody(rows)), 0o600))
	return &harness{path: path, store: memory.New(), ledger: ledger.NewStore(), metrics: metrics.New()}
}

func (h *harness) runner(t *testing.T, store blob.Store, stages ...Stage) *Runner {
	t.Helper()
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	clock := func() time.Time { return at }
	r, err := NewRunner([]string{"id", "x"}, stages, backup.New(store, backup.WithClock(clock)),
		WithLedger(h.ledger),
		WithMetrics(h.metrics, ""),
		WithIDColumn("id"),
		WithClock(clock))
	require.NoError(t, err)
	return r
}

func (h *harness) onDisk(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile(h.path)
	require.NoError(t, err)
	return string(raw)
}

func TestRunCommitsAndRecords(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 3)
	res, err := h.runner(t, h.store, doubler("double", "x", "y")).Run(ctx, h.path, "monthly")
	require.NoError(t, err)

	assert.Equal(t, StateCommitted, res.State)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, "buildings_backup_20260203T040506Z.csv", res.BackupKey)
	assert.Equal(t, "id,x,y\nB0,1,2\nB1,2,4\nB2,3,6\n", h.onDisk(t))

	_, rc, err := h.store.Get(ctx, res.BackupKey)
	require.NoError(t, err)
	backed, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, csvBody(3), string(backed), "backup holds the pre-run file")

	rec, err := h.ledger.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "committed", rec.State)
	assert.Equal(t, "monthly", rec.Label)
	require.Len(t, rec.Stages, 1)
	assert.Equal(t, "double", rec.Stages[0].Name)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Runs.WithLabelValues("committed")))
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 20)
	_, err := h.runner(t, h.store, doubler("double", "x", "y")).Run(ctx, h.path, "")
	require.NoError(t, err)
	first := h.onDisk(t)

	// Same clock, so the second snapshot needs a suffixed key.
	res, err := h.runner(t, h.store, doubler("double", "x", "y")).Run(ctx, h.path, "")
	require.NoError(t, err)
	assert.Equal(t, first, h.onDisk(t))
	assert.Equal(t, "buildings_backup_20260203T040506Z_2.csv", res.BackupKey)
}

func TestRunBackupFailureRunsNoStage(t *testing.T) {
	h := newHarness(t, 3)
	called := false
	s := &funcStage{name: "never", inputs: []string{"x"}, outputs: []string{"y"}, fn: func(Row) (Values, error) {
		called = true
		return nil, nil
	}}
	res, err := h.runner(t, failingStore{memory.New()}, s).Run(context.Background(), h.path, "")

	var be *backup.BackupError
	require.ErrorAs(t, err, &be)
	assert.False(t, called)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, csvBody(3), h.onDisk(t))
	assert.Equal(t, "backup", Classify(err))

	recent, _ := h.ledger.Recent(context.Background(), 1)
	require.Len(t, recent, 1)
	assert.Equal(t, "failed", recent[0].State)
	assert.Contains(t, recent[0].Error, "backup")
}

func TestRunRowLossIsFatal(t *testing.T) {
	h := newHarness(t, 4)
	buggy := &funcStage{name: "buggy", inputs: []string{"x"}, outputs: []string{"y"}, fn: func(Row) (Values, error) { return nil, nil }}
	buggy.prepare = func(_ context.Context, rows Rows) error {
		// Simulates a stage that reaches past its view and drops a row.
		return rows.(*scopedRows).table.DeleteRow(0)
	}

	res, err := h.runner(t, h.store, preparingStage{buggy}).Run(context.Background(), h.path, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, validate.ErrRowCountChanged)
	var vf *validate.Failure
	require.ErrorAs(t, err, &vf)
	assert.Equal(t, res.BackupKey, vf.BackupKey)
	assert.Contains(t, err.Error(), res.BackupKey)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, csvBody(4), h.onDisk(t), "dataset must not be committed")
}

func TestRunComputeErrorLeavesFileUntouched(t *testing.T) {
	h := newHarness(t, 3)
	bad := &funcStage{name: "bad", inputs: []string{"x"}, outputs: []string{"y"}, fn: func(Row) (Values, error) {
		return nil, errors.New("nope")
	}}
	res, err := h.runner(t, h.store, bad).Run(context.Background(), h.path, "")
	var ce *StageComputeError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "B0", ce.BuildingID)
	assert.Equal(t, StateFailed, res.State)
	assert.NotEmpty(t, res.BackupKey)
	assert.Equal(t, csvBody(3), h.onDisk(t))
}

func TestRunParseErrorTakesNoBackup(t *testing.T) {
	h := newHarness(t, 1)
	require.NoError(t, os.WriteFile(h.path, []byte("id,x\n\"B0,1\n"), 0o600))
	res, err := h.runner(t, h.store, doubler("double", "x", "y")).Run(context.Background(), h.path, "")
	var pe *dataset.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Empty(t, res.BackupKey)
	infos, _ := h.store.List(context.Background(), "")
	assert.Empty(t, infos)
}

func TestNewRunnerRejectsBadOrder(t *testing.T) {
	_, err := NewRunner([]string{"x"}, []Stage{doubler("late", "y", "z"), doubler("early", "x", "y")}, backup.New(memory.New()))
	var dep *DependencyError
	require.ErrorAs(t, err, &dep)
	assert.Equal(t, "dependency", Classify(err))
}
