// This file adds a lightweight linter/validator for Job values. It performs
// static checks over a decoded Job and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Job.
//
// Path is a dotted path into the config (e.g. "input.dtype",
// "output.db.table"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue carries error severity.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// elementDTypes are the dtype names admitted for key/data columns.
var elementDTypes = map[string]struct{}{
	"int64":   {},
	"float32": {},
	"float64": {},
	"string":  {},
}

// ValidateJob performs static validation / linting of a Job.
//
// It does not mutate the job. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
//
// Example:
//
//	j, err := config.Load(path)
//	if err != nil { ... }
//	for _, iss := range config.ValidateJob(j) {
//	    fmt.Printf("%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
//	}
func ValidateJob(j Job) []Issue {
	var issues []Issue

	if strings.TrimSpace(j.Name) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "name",
			Message:  "name must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateInput(j.Input)...)
	issues = append(issues, validateState(j.State)...)
	issues = append(issues, validateOutput(j.Output)...)
	issues = append(issues, validateMetrics(j.Metrics)...)
	issues = append(issues, validateRuntime(j.Runtime)...)

	return issues
}

// validateInput validates the batch source and its column mapping.
func validateInput(in Input) []Issue {
	var issues []Issue

	switch in.Kind {
	case "csv", "arrow":
	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input.kind",
			Message:  "input.kind must not be empty",
		})
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input.kind",
			Message:  fmt.Sprintf("unknown input kind %q; supported kinds are csv and arrow", in.Kind),
		})
	}

	if strings.TrimSpace(in.Path) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input.path",
			Message:  "input.path must not be empty",
		})
	}

	if _, ok := elementDTypes[in.DType]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input.dtype",
			Message:  fmt.Sprintf("unknown dtype %q; supported dtypes are int64, float32, float64, string", in.DType),
		})
	}

	if strings.TrimSpace(in.TimeColumn) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input.time_column",
			Message:  "input.time_column must not be empty",
		})
	}
	if len(in.KeyColumns) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input.key_columns",
			Message:  "at least one key column is required",
		})
	}
	if len(in.DataColumns) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input.data_columns",
			Message:  "at least one data column is required",
		})
	}

	// Reader-specific sanity checks (kept intentionally light).
	if in.Kind == "csv" {
		if comma := in.Options.String("comma", ""); len([]rune(comma)) > 1 {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "input.options.comma",
				Message:  fmt.Sprintf("comma %q has more than one character; only the first is used", comma),
			})
		}
	}

	return issues
}

// validateState validates the archive location.
func validateState(s State) []Issue {
	if strings.TrimSpace(s.Path) == "" {
		return []Issue{{
			Severity: SeverityError,
			Path:     "state.path",
			Message:  "state.path must not be empty; the transformer restores a trained archive",
		}}
	}
	return nil
}

// validateOutput validates the destination.
func validateOutput(o Output) []Issue {
	var issues []Issue

	switch o.Kind {
	case "":
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "output.kind",
			Message:  "no output configured; results are discarded after the run summary",
		})
		return issues

	case "csv", "arrow":
		if strings.TrimSpace(o.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.path",
				Message:  fmt.Sprintf("%s output requires a non-empty path", o.Kind),
			})
		}

	case "storage":
		issues = append(issues, validateDB(o.DB)...)

	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.kind",
			Message:  fmt.Sprintf("unknown output kind %q; supported kinds are csv, arrow, storage", o.Kind),
		})
	}

	return issues
}

// validateDB validates database sink settings shared across backends.
func validateDB(db DBConfig) []Issue {
	var issues []Issue

	if strings.TrimSpace(db.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.db.kind",
			Message:  "output.db.kind must not be empty",
		})
	} else {
		// Backends register themselves at init; unknown kinds are warnings
		// for forward compatibility with out-of-tree backends.
		known := map[string]struct{}{
			"postgres": {},
			"sqlite":   {},
		}
		if _, ok := known[db.Kind]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "output.db.kind",
				Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", db.Kind),
			})
		}
	}

	if strings.TrimSpace(db.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.db.dsn",
			Message:  "output.db.dsn must not be empty",
		})
	}
	if strings.TrimSpace(db.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.db.table",
			Message:  "output.db.table must not be empty",
		})
	}
	if db.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.db.batch_size",
			Message:  "batch_size must not be negative",
		})
	}

	return issues
}

// validateMetrics validates the optional metrics backend selection.
func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch m.Backend {
	case "":
		// Metrics are optional.

	case "prometheus":
		if strings.TrimSpace(m.PushURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.push_url",
				Message:  "prometheus backend requires a Pushgateway URL",
			})
		}

	case "datadog":
		if strings.TrimSpace(m.Addr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.addr",
				Message:  "datadog backend requires a DogStatsD address",
			})
		}

	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; supported backends are prometheus and datadog", m.Backend),
		})
	}

	return issues
}

// validateRuntime validates windowing and concurrency knobs for obvious
// misconfigurations.
func validateRuntime(r Runtime) []Issue {
	var issues []Issue

	if r.WindowRows < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.window_rows",
			Message:  "window_rows must not be negative",
		})
	}
	if r.Parallelism < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.parallelism",
			Message:  "parallelism must not be negative",
		})
	}
	if r.Parallelism > 64 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.parallelism",
			Message:  fmt.Sprintf("parallelism=%d; each invocation holds a full row window in memory, expect diminishing returns", r.Parallelism),
		})
	}

	return issues
}
