// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// This package adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang CounterVec and SummaryVec collectors.
//   - Mapping the common pipeline labels (run, step, status) onto Prometheus
//     labels.
//   - Pushing collected metrics to a Prometheus Pushgateway instance instead
//     of exposing an HTTP scrape endpoint; imputation runs are batch jobs and
//     are usually gone before a scraper would find them.
//
// The package intentionally contains all Prometheus-specific dependencies so
// the rest of the project stays decoupled from Prometheus and can swap to
// alternative backends (e.g. Datadog) without changes to the pipeline.
package prompush

import (
	"fmt"

	"tsimpute/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	// Step-level metrics
	stepCounter  *prometheus.CounterVec // "tsimpute_step_total"
	stepDuration *prometheus.SummaryVec // "tsimpute_step_duration_seconds"

	// Row- and window-level metrics
	rowCounter    *prometheus.CounterVec // "tsimpute_rows_total"
	windowCounter prometheus.Counter     // "tsimpute_windows_total"
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name (often same as the run name).
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "tsimpute"
	}

	reg := prometheus.NewRegistry()

	// step and status are dynamic labels; the run id is the Pushgateway
	// "job" grouping key rather than a per-sample label.
	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tsimpute_step_total",
			Help: "Total number of pipeline step executions, partitioned by step and status.",
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "tsimpute_step_duration_seconds",
			Help:       "Duration of pipeline steps in seconds, partitioned by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)

	// ROW metrics: kind (input, output, synthesized, loaded, ...).
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tsimpute_rows_total",
			Help: "Row-level counts per kind (input, output, synthesized, loaded, etc.).",
		},
		[]string{"kind"},
	)

	// WINDOW metrics: simple counter per run (run is the grouping label via Pushgateway).
	windowCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tsimpute_windows_total",
			Help: "Total number of row windows processed for this run.",
		},
	)

	if err := reg.Register(stepCounter); err != nil {
		return nil, fmt.Errorf("prompush: register step counter: %w", err)
	}
	if err := reg.Register(stepDuration); err != nil {
		return nil, fmt.Errorf("prompush: register step summary: %w", err)
	}
	if err := reg.Register(rowCounter); err != nil {
		return nil, fmt.Errorf("prompush: register row counter: %w", err)
	}
	if err := reg.Register(windowCounter); err != nil {
		return nil, fmt.Errorf("prompush: register window counter: %w", err)
	}

	return &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		reg:           reg,
		stepCounter:   stepCounter,
		stepDuration:  stepDuration,
		rowCounter:    rowCounter,
		windowCounter: windowCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "tsimpute_step_total":
		if b.stepCounter == nil {
			return
		}
		step := labels["step"]
		status := labels["status"]
		b.stepCounter.WithLabelValues(step, status).Add(delta)

	case "tsimpute_rows_total":
		if b.rowCounter == nil {
			return
		}
		kind := labels["kind"]
		b.rowCounter.WithLabelValues(kind).Add(delta)

	case "tsimpute_windows_total":
		if b.windowCounter == nil {
			return
		}
		b.windowCounter.Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != "tsimpute_step_duration_seconds" || b.stepDuration == nil {
		return
	}
	step := labels["step"]
	status := labels["status"]
	b.stepDuration.WithLabelValues(step, status).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
