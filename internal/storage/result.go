package storage

import (
	"fmt"

	"tsimpute/internal/batchio"
	"tsimpute/internal/frame"
	"tsimpute/internal/rowcodec"
)

// ResultColumns derives the destination column list for a materialized
// result: the synthesized flag and time lead, keys follow NOT NULL, data
// columns are nullable so absent cells can land as SQL NULL.
func ResultColumns(res *batchio.Result) []Column {
	timeName, keyNames, dataNames := res.ColumnNames()
	cols := make([]Column, 0, 2+len(keyNames)+len(dataNames))
	cols = append(cols,
		Column{Name: "synthesized", DType: frame.Bool},
		Column{Name: timeName, DType: frame.Int64},
	)
	for _, n := range keyNames {
		cols = append(cols, Column{Name: n, DType: res.Keys.DType()})
	}
	for _, n := range dataNames {
		cols = append(cols, Column{Name: n, DType: res.Data.DType(), Nullable: true})
	}
	return cols
}

// ResultRows flattens a result into loader rows aligned with ResultColumns.
// Absent data cells become nil so backends store NULL.
func ResultRows(res *batchio.Result) ([][]any, error) {
	switch res.Keys.DType() {
	case frame.Int64:
		return resultRows[int64](res)
	case frame.Float32:
		return resultRows[float32](res)
	case frame.Float64:
		return resultRows[float64](res)
	case frame.String:
		return resultRows[string](res)
	}
	return nil, fmt.Errorf("storage: dtype %s not loadable", res.Keys.DType())
}

func resultRows[T frame.Element](res *batchio.Result) ([][]any, error) {
	synth, err := frame.Data[bool](res.Synth)
	if err != nil {
		return nil, err
	}
	times, err := frame.Data[int64](res.Times)
	if err != nil {
		return nil, err
	}
	keys, err := frame.Data[T](res.Keys)
	if err != nil {
		return nil, err
	}
	data, err := frame.Data[T](res.Data)
	if err != nil {
		return nil, err
	}

	kw := int(res.Keys.Dim(1))
	cw := int(res.Data.Dim(1))
	rows := make([][]any, len(synth))
	for i := range synth {
		row := make([]any, 0, 2+kw+cw)
		row = append(row, synth[i], times[i])
		for j := 0; j < kw; j++ {
			row = append(row, keys[i*kw+j])
		}
		for j := 0; j < cw; j++ {
			if v := data[i*cw+j]; rowcodec.Missing(v) {
				row = append(row, nil)
			} else {
				row = append(row, v)
			}
		}
		rows[i] = row
	}
	return rows, nil
}

// ColumnNames projects just the names, in CopyRows order.
func ColumnNames(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}
