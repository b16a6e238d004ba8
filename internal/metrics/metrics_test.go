package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := New()
	r.ObserveRun("committed", 42, time.Unix(1700000000, 0))
	r.ObserveRun("failed", 42, time.Unix(1700000100, 0))
	r.ObserveRun("committed", 43, time.Unix(1700000200, 0))
	r.ObserveWarning("null_rate")
	r.ObserveStage("hvac_pct", 150*time.Millisecond)
	r.ObserveStage("", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Runs.WithLabelValues("committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Runs.WithLabelValues("failed")))
	assert.Equal(t, 43.0, testutil.ToFloat64(r.Rows))
	assert.Equal(t, 1700000200.0, testutil.ToFloat64(r.LastRun))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Warnings.WithLabelValues("null_rate")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.StageDuration))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.ObserveRun("committed", 1, time.Now())
	r.ObserveStage("x", time.Second)
	r.ObserveWarning("y")
	assert.Nil(t, r.Registry())
	require.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "m.prom")))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.ObserveRun("committed", 7, time.Unix(1, 0))
	path := filepath.Join(t.TempDir(), "portfoliocalc.prom")
	require.NoError(t, r.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(raw)
	assert.True(t, strings.Contains(body, `portfoliocalc_runs_total{state="committed"} 1`), body)
	assert.Contains(t, body, "portfoliocalc_dataset_rows 7")

	require.NoError(t, r.WriteTextfile(""))
}
