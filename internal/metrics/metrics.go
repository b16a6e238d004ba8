// Package metrics records pipeline run metrics in a private Prometheus
// registry and exports them for the node-exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portfoliocalc"

// Recorder holds the run metrics. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	reg *prometheus.Registry

	StageDuration *prometheus.HistogramVec
	Runs          *prometheus.CounterVec
	Rows          prometheus.Gauge
	Warnings      *prometheus.CounterVec
	LastRun       prometheus.Gauge
}

// New registers the run metrics on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each calculator stage over the whole dataset.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"stage"}),
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by final state.",
		}, []string{"state"}),
		Rows: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Rows in the dataset at the last run.",
		}),
		Warnings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_warnings_total",
			Help:      "Non-fatal validation findings by rule.",
		}, []string{"rule"}),
		LastRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// ObserveStage records one stage's duration.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil || stage == "" {
		return
	}
	r.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveRun records the final state and size of a run.
func (r *Recorder) ObserveRun(state string, rows int, finished time.Time) {
	if r == nil {
		return
	}
	r.Runs.WithLabelValues(state).Inc()
	r.Rows.Set(float64(rows))
	r.LastRun.Set(float64(finished.Unix()))
}

// ObserveWarning counts one validation warning.
func (r *Recorder) ObserveWarning(rule string) {
	if r == nil {
		return
	}
	r.Warnings.WithLabelValues(rule).Inc()
}

// WriteTextfile atomically writes the registry in text exposition format.
// An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
