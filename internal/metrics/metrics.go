// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the imputation pipeline.
//
// The package is intentionally minimal and opinionated:
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data.
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//   - It mirrors the storage abstraction pattern (storage.Sink) so the rest of
//     the codebase depends only on this interface while concrete metric
//     systems stay isolated in subpackages.
//
// The primary use case is instrumentation of the pipeline stages (validate,
// encode, transform, materialize, load) without coupling the core logic to a
// specific metrics system such as Prometheus or Datadog.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
// It is intentionally generic so we can plug in Prometheus, Datadog, etc.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep is a convenience for the common pattern:
// measure latency + success/failure per pipeline step.
//
// Typical steps are "validate", "encode", "transform", "materialize", "load".
func RecordStep(run, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"run":    run,
		"step":   step,
		"status": status,
	}

	backend.IncCounter("tsimpute_step_total", 1, lbls)
	backend.ObserveHistogram("tsimpute_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRows increments a row-level counter for the given run and kind.
//
// Typical kinds mirror the run summary fields, e.g.:
//   - "input"
//   - "output"
//   - "synthesized"
//   - "loaded"
func RecordRows(run, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("tsimpute_rows_total", float64(delta), Labels{
		"run":  run,
		"kind": kind,
	})
}

// RecordWindows increments the processed-window counter for the given run.
func RecordWindows(run string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("tsimpute_windows_total", float64(delta), Labels{
		"run": run,
	})
}
