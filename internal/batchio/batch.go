// Package batchio reads typed batches from CSV or Arrow IPC files and
// writes materialized results back out. Cell-level conversion reuses the
// rowcodec conventions: an empty CSV cell or an Arrow null is a missing
// value, so files round-trip through the same present/absent model the
// kernel uses.
package batchio

import (
	"fmt"

	"tsimpute/internal/frame"
)

// Spec names the columns of a batch file and the element type to decode
// keys/data into.
type Spec struct {
	TimeColumn  string
	KeyColumns  []string
	DataColumns []string
	DType       frame.DType

	// Comma overrides the CSV field delimiter. Zero means ','. Ignored by
	// the Arrow reader.
	Comma rune
}

func (s Spec) validate() error {
	if s.TimeColumn == "" {
		return fmt.Errorf("batchio: time column not named")
	}
	if len(s.KeyColumns) == 0 {
		return fmt.Errorf("batchio: no key columns named")
	}
	if len(s.DataColumns) == 0 {
		return fmt.Errorf("batchio: no data columns named")
	}
	switch s.DType {
	case frame.Int64, frame.Float32, frame.Float64, frame.String:
		return nil
	}
	return fmt.Errorf("batchio: dtype %s not usable for keys/data", s.DType)
}

// Batch is a decoded input batch: the three row-bearing tensors plus the
// column names they came from.
type Batch struct {
	Times *frame.Tensor // [R] int64
	Keys  *frame.Tensor // [R,K]
	Data  *frame.Tensor // [R,C]

	TimeName  string
	KeyNames  []string
	DataNames []string
}

// Rows reports R.
func (b *Batch) Rows() int64 { return b.Times.Dim(0) }

// Result is a materialized invocation output: a Batch plus the synthesized
// flag column. Writers emit the flag under the fixed name "synthesized";
// readers ignore it, so results can feed back in as batches.
type Result struct {
	Batch
	Synth *frame.Tensor // [R'] bool
}

// ColumnNames reports the output column names, padded to the tensor widths.
// Unnamed columns get key_i / value_i placeholders and an unnamed time column
// becomes "time", so every writer emits the same header for the same result.
func (r *Result) ColumnNames() (timeName string, keyNames, dataNames []string) {
	timeName = r.TimeName
	if timeName == "" {
		timeName = "time"
	}
	keyNames = columnNames("key", r.KeyNames, int(r.Keys.Dim(1)))
	dataNames = columnNames("value", r.DataNames, int(r.Data.Dim(1)))
	return timeName, keyNames, dataNames
}

// columnNames pads or truncates names to width n, inventing base_i names
// where none were recorded.
func columnNames(base string, names []string, n int) []string {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		if i < len(names) && names[i] != "" {
			out[i] = names[i]
		} else {
			out[i] = fmt.Sprintf("%s_%d", base, i)
		}
	}
	return out
}

// resolveColumns looks every spec column up in a normalized header index.
func resolveColumns(byName map[string]int, spec Spec) (timeIx int, keyIx, dataIx []int, err error) {
	if timeIx, err = findColumn(byName, spec.TimeColumn); err != nil {
		return 0, nil, nil, err
	}
	keyIx = make([]int, len(spec.KeyColumns))
	for i, name := range spec.KeyColumns {
		if keyIx[i], err = findColumn(byName, name); err != nil {
			return 0, nil, nil, err
		}
	}
	dataIx = make([]int, len(spec.DataColumns))
	for i, name := range spec.DataColumns {
		if dataIx[i], err = findColumn(byName, name); err != nil {
			return 0, nil, nil, err
		}
	}
	return timeIx, keyIx, dataIx, nil
}

// newBatch shapes decoded column slices into tensors under the spec names.
func newBatch[T frame.Element](spec Spec, times []int64, keys, data []T) (*Batch, error) {
	rows := int64(len(times))
	timesT, err := frame.FromSlice(times, rows)
	if err != nil {
		return nil, err
	}
	keysT, err := frame.FromSlice(keys, rows, int64(len(spec.KeyColumns)))
	if err != nil {
		return nil, err
	}
	dataT, err := frame.FromSlice(data, rows, int64(len(spec.DataColumns)))
	if err != nil {
		return nil, err
	}
	return &Batch{
		Times:     timesT,
		Keys:      keysT,
		Data:      dataT,
		TimeName:  spec.TimeColumn,
		KeyNames:  append([]string(nil), spec.KeyColumns...),
		DataNames: append([]string(nil), spec.DataColumns...),
	}, nil
}
