// Package config defines the canonical, serializable job document for the
// imputation pipeline. It is intentionally small and explicit so that jobs
// can be loaded from disk (or other sources) and passed through the program
// without additional glue code.
//
// Design goals:
//
//  1. Stability: changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: field names in Go mirror the JSON/YAML structure used in job
//     files.
//  3. Minimalism: decoding is performed by encoding/json and yaml.v3, with a
//     light Options helper for typed access to free-form settings.
//
// Example (trimmed):
//
//	{
//	  "name":   "sensor-backfill",
//	  "input":  { "kind": "csv", "path": "readings.csv", "dtype": "float64",
//	              "time_column": "time", "key_columns": ["sensor_id"],
//	              "data_columns": ["temp", "humidity"] },
//	  "state":  { "path": "imputer.tsim" },
//	  "output": { "kind": "storage",
//	              "db": { "kind": "postgres", "dsn": "postgresql://...",
//	                      "table": "public.imputed", "auto_create_table": true } }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"tsimpute/internal/batchio"
	"tsimpute/internal/frame"
)

// Job describes one imputation run end to end. It is the top-level object
// decoded from a job file.
type Job struct {
	// Name identifies the run in logs and metrics. Required.
	Name string `json:"name" yaml:"name"`

	// Input describes where the batch comes from and how its columns map
	// onto time/keys/data.
	Input Input `json:"input" yaml:"input"`

	// State locates the trained imputer archive the transformer restores.
	State State `json:"state" yaml:"state"`

	// Output describes where materialized rows go.
	Output Output `json:"output" yaml:"output"`

	// Metrics selects an optional metrics backend.
	Metrics Metrics `json:"metrics" yaml:"metrics"`

	// Runtime controls windowing and concurrency.
	Runtime Runtime `json:"runtime" yaml:"runtime"`
}

// Input identifies the batch source.
type Input struct {
	// Kind selects the reader. Current values: "csv", "arrow".
	Kind string `json:"kind" yaml:"kind"`

	// Path is the local filesystem path to the input file.
	Path string `json:"path" yaml:"path"`

	// DType names the element type of key and data columns:
	// "int64", "float32", "float64", or "string".
	DType string `json:"dtype" yaml:"dtype"`

	// TimeColumn names the int64 timestamp column.
	TimeColumn string `json:"time_column" yaml:"time_column"`

	// KeyColumns names the group-key columns, in order.
	KeyColumns []string `json:"key_columns" yaml:"key_columns"`

	// DataColumns names the value columns, in order.
	DataColumns []string `json:"data_columns" yaml:"data_columns"`

	// Options is a free-form map interpreted by the reader.
	// For CSV the known key is: comma (string, first rune is the delimiter).
	Options Options `json:"options" yaml:"options"`
}

// Spec maps the input onto a batchio column spec.
func (in Input) Spec() (batchio.Spec, error) {
	dt, err := frame.ParseDType(in.DType)
	if err != nil {
		return batchio.Spec{}, err
	}
	return batchio.Spec{
		TimeColumn:  in.TimeColumn,
		KeyColumns:  in.KeyColumns,
		DataColumns: in.DataColumns,
		DType:       dt,
		Comma:       in.Options.Rune("comma", 0),
	}, nil
}

// State locates the trained imputer archive.
type State struct {
	// Path is the local filesystem path to the archive written by fit.
	Path string `json:"path" yaml:"path"`
}

// Output selects the sink for materialized rows.
type Output struct {
	// Kind selects the writer. Current values: "csv", "arrow", "storage".
	// Empty means results are discarded after the run summary.
	Kind string `json:"kind" yaml:"kind"`

	// Path is the destination file for the "csv" and "arrow" kinds.
	Path string `json:"path" yaml:"path"`

	// DB carries options for the "storage" kind.
	DB DBConfig `json:"db" yaml:"db"`
}

// DBConfig configures the database sink.
type DBConfig struct {
	// Kind selects the registered storage backend, e.g. "postgres", "sqlite".
	Kind string `json:"kind" yaml:"kind"`

	// DSN is the backend connection string.
	DSN string `json:"dsn" yaml:"dsn"`

	// Table is the destination table name (fully qualified where the backend
	// has schemas, e.g. "public.imputed").
	Table string `json:"table" yaml:"table"`

	// AutoCreateTable makes the run issue CREATE TABLE IF NOT EXISTS before
	// loading.
	AutoCreateTable bool `json:"auto_create_table" yaml:"auto_create_table"`

	// BatchSize is the loader flush size in rows. Zero uses the default.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// Metrics selects an optional metrics backend.
type Metrics struct {
	// Backend selects the implementation: "prometheus", "datadog", or ""
	// for none.
	Backend string `json:"backend" yaml:"backend"`

	// PushURL is the Pushgateway base URL for the "prometheus" backend.
	PushURL string `json:"push_url" yaml:"push_url"`

	// Addr is the DogStatsD address for the "datadog" backend.
	Addr string `json:"addr" yaml:"addr"`

	// Options carries backend-specific extras. For datadog the known keys
	// are: namespace (string), global_tags ([]string).
	Options Options `json:"options" yaml:"options"`
}

// Runtime controls windowing and concurrency.
type Runtime struct {
	// WindowRows caps the row count per kernel invocation. Zero processes
	// the whole batch in one window.
	WindowRows int `json:"window_rows" yaml:"window_rows"`

	// Parallelism bounds concurrent kernel invocations. Zero means 1.
	Parallelism int `json:"parallelism" yaml:"parallelism"`
}

// Load reads and decodes a job file. Paths ending in .yaml or .yml decode as
// YAML; everything else decodes as JSON.
func Load(path string) (Job, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Job{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	yml := strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
	j, err := Decode(b, yml)
	if err != nil {
		return Job{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return j, nil
}

// Decode unmarshals a job document from raw bytes.
func Decode(b []byte, asYAML bool) (Job, error) {
	var j Job
	if asYAML {
		if err := yaml.Unmarshal(b, &j); err != nil {
			return Job{}, err
		}
		return j, nil
	}
	if err := json.Unmarshal(b, &j); err != nil {
		return Job{}, err
	}
	return j, nil
}

// Options is a small helper to fetch typed values from arbitrary decoded
// maps without introducing a third-party configuration schema library. It
// purposefully performs only minimal type coercion and returns provided
// defaults when a key is absent or of an unexpected type. All accessors are
// safe on a nil map.
//
// Options is used for reader/backend-specific configuration where the shape
// varies by implementation.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. encoding/json decodes numbers as
// float64 and yaml.v3 as int, so both are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty. This is useful for single-character reader settings such
// as a CSV delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty
// map when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of
// strings (or an array of interface values containing strings). Returns nil
// when the key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// Any returns the raw value for key (which may itself be a nested
// map[string]any, []any, or primitive).
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler so that an explicitly null
// "options" object decodes to a non-nil, empty Options map. Absent fields
// stay nil, which the accessors tolerate.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for yaml.v3 documents.
func (o *Options) UnmarshalYAML(value *yaml.Node) error {
	var tmp map[string]any
	if err := value.Decode(&tmp); err != nil {
		return err
	}
	if tmp == nil {
		tmp = map[string]any{}
	}
	*o = Options(tmp)
	return nil
}
