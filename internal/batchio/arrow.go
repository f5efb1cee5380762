package batchio

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"tsimpute/internal/frame"
	"tsimpute/internal/rowcodec"
)

// arrowType maps an element tag to its Arrow type.
func arrowType(dt frame.DType) (arrow.DataType, error) {
	switch dt {
	case frame.Int64:
		return arrow.PrimitiveTypes.Int64, nil
	case frame.Float32:
		return arrow.PrimitiveTypes.Float32, nil
	case frame.Float64:
		return arrow.PrimitiveTypes.Float64, nil
	case frame.String:
		return arrow.BinaryTypes.String, nil
	}
	return nil, fmt.Errorf("batchio: dtype %s has no arrow mapping", dt)
}

// WriteArrow streams a result as a single Arrow IPC record batch. Data
// columns are nullable and absent values become nulls; the synthesized flag
// and time column lead the schema like in WriteCSV.
func WriteArrow(w io.Writer, res *Result) error {
	switch res.Keys.DType() {
	case frame.Int64:
		return writeArrow[int64](w, res)
	case frame.Float32:
		return writeArrow[float32](w, res)
	case frame.Float64:
		return writeArrow[float64](w, res)
	case frame.String:
		return writeArrow[string](w, res)
	}
	return fmt.Errorf("batchio: dtype %s not writable", res.Keys.DType())
}

func writeArrow[T frame.Element](w io.Writer, res *Result) error {
	synth, err := frame.Data[bool](res.Synth)
	if err != nil {
		return err
	}
	times, err := frame.Data[int64](res.Times)
	if err != nil {
		return err
	}
	keys, err := frame.Data[T](res.Keys)
	if err != nil {
		return err
	}
	data, err := frame.Data[T](res.Data)
	if err != nil {
		return err
	}

	elem, err := arrowType(res.Keys.DType())
	if err != nil {
		return err
	}
	kw := int(res.Keys.Dim(1))
	cw := int(res.Data.Dim(1))
	timeName, keyNames, dataNames := res.ColumnNames()

	fields := make([]arrow.Field, 0, 2+kw+cw)
	fields = append(fields,
		arrow.Field{Name: "synthesized", Type: arrow.FixedWidthTypes.Boolean},
		arrow.Field{Name: timeName, Type: arrow.PrimitiveTypes.Int64},
	)
	for _, n := range keyNames {
		fields = append(fields, arrow.Field{Name: n, Type: elem})
	}
	for _, n := range dataNames {
		fields = append(fields, arrow.Field{Name: n, Type: elem, Nullable: true})
	}
	schema := arrow.NewSchema(fields, nil)

	rb := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer rb.Release()

	sb := rb.Field(0).(*array.BooleanBuilder)
	tb := rb.Field(1).(*array.Int64Builder)
	for i := range synth {
		sb.Append(synth[i])
		tb.Append(times[i])
		for j := 0; j < kw; j++ {
			if err := appendCell(rb.Field(2+j), keys[i*kw+j], false); err != nil {
				return err
			}
		}
		for j := 0; j < cw; j++ {
			v := data[i*cw+j]
			if err := appendCell(rb.Field(2+kw+j), v, rowcodec.Missing(v)); err != nil {
				return err
			}
		}
	}

	rec := rb.NewRecordBatch()
	defer rec.Release()

	iw := ipc.NewWriter(w, ipc.WithSchema(schema))
	if err := iw.Write(rec); err != nil {
		iw.Close()
		return fmt.Errorf("batchio: write arrow record: %w", err)
	}
	if err := iw.Close(); err != nil {
		return fmt.Errorf("batchio: close arrow stream: %w", err)
	}
	return nil
}

// appendCell pushes one element onto its column builder, as a null when the
// value is absent.
func appendCell[T frame.Element](b array.Builder, v T, absent bool) error {
	if absent {
		b.AppendNull()
		return nil
	}
	switch bb := b.(type) {
	case *array.Int64Builder:
		bb.Append(any(v).(int64))
	case *array.Float32Builder:
		bb.Append(any(v).(float32))
	case *array.Float64Builder:
		bb.Append(any(v).(float64))
	case *array.StringBuilder:
		bb.Append(any(v).(string))
	default:
		return fmt.Errorf("batchio: builder %T does not take element columns", b)
	}
	return nil
}

// ReadArrow decodes a batch from an Arrow IPC stream, accumulating across
// record batches. Columns are matched by normalized name; nulls in data
// columns become missing values, nulls in time or key columns are an error.
func ReadArrow(r io.Reader, spec Spec) (*Batch, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	switch spec.DType {
	case frame.Int64:
		return readArrow[int64](r, spec)
	case frame.Float32:
		return readArrow[float32](r, spec)
	case frame.Float64:
		return readArrow[float64](r, spec)
	default:
		return readArrow[string](r, spec)
	}
}

func readArrow[T frame.Element](r io.Reader, spec Spec) (*Batch, error) {
	rd, err := ipc.NewReader(r, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, fmt.Errorf("batchio: open arrow stream: %w", err)
	}
	defer rd.Release()

	schema := rd.Schema()
	names := make([]string, schema.NumFields())
	for i := range names {
		names[i] = schema.Field(i).Name
	}
	byName, err := columnIndex(names)
	if err != nil {
		return nil, err
	}
	timeIx, keyIx, dataIx, err := resolveColumns(byName, spec)
	if err != nil {
		return nil, err
	}

	elem, err := arrowType(spec.DType)
	if err != nil {
		return nil, err
	}
	if got := schema.Field(timeIx).Type; !arrow.TypeEqual(got, arrow.PrimitiveTypes.Int64) {
		return nil, fmt.Errorf("batchio: time column %q is %s, want int64", spec.TimeColumn, got)
	}
	for i, ix := range keyIx {
		if got := schema.Field(ix).Type; !arrow.TypeEqual(got, elem) {
			return nil, fmt.Errorf("batchio: key column %q is %s, want %s", spec.KeyColumns[i], got, elem)
		}
	}
	for i, ix := range dataIx {
		if got := schema.Field(ix).Type; !arrow.TypeEqual(got, elem) {
			return nil, fmt.Errorf("batchio: data column %q is %s, want %s", spec.DataColumns[i], got, elem)
		}
	}

	var (
		times []int64
		keys  []T
		data  []T
	)
	for rd.Next() {
		rec := rd.RecordBatch()
		rows := int(rec.NumRows())
		timeCol := rec.Column(timeIx).(*array.Int64)
		for i := 0; i < rows; i++ {
			row := len(times)
			if timeCol.IsNull(i) {
				return nil, fmt.Errorf("batchio: time column %q: null at row %d", spec.TimeColumn, row)
			}
			times = append(times, timeCol.Value(i))

			for k, ix := range keyIx {
				col := rec.Column(ix)
				if col.IsNull(i) {
					return nil, fmt.Errorf("batchio: key column %q: null at row %d", spec.KeyColumns[k], row)
				}
				v, err := arrowValue[T](col, i)
				if err != nil {
					return nil, fmt.Errorf("batchio: key column %q: %w", spec.KeyColumns[k], err)
				}
				keys = append(keys, v)
			}
			for d, ix := range dataIx {
				col := rec.Column(ix)
				if col.IsNull(i) {
					v, err := rowcodec.DecodeValue[T](rowcodec.Absent())
					if err != nil {
						return nil, fmt.Errorf("batchio: data column %q, row %d: %w", spec.DataColumns[d], row, err)
					}
					data = append(data, v)
					continue
				}
				v, err := arrowValue[T](col, i)
				if err != nil {
					return nil, fmt.Errorf("batchio: data column %q: %w", spec.DataColumns[d], err)
				}
				data = append(data, v)
			}
		}
	}
	if err := rd.Err(); err != nil {
		return nil, fmt.Errorf("batchio: read arrow stream: %w", err)
	}
	return newBatch(spec, times, keys, data)
}

// arrowValue pulls one non-null element out of a column.
func arrowValue[T frame.Element](col arrow.Array, i int) (T, error) {
	var out any
	switch c := col.(type) {
	case *array.Int64:
		out = c.Value(i)
	case *array.Float32:
		out = c.Value(i)
	case *array.Float64:
		out = c.Value(i)
	case *array.String:
		out = c.Value(i)
	default:
		var zero T
		return zero, fmt.Errorf("column type %s is not an element type", col.DataType())
	}
	v, ok := out.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("column type %s does not hold %T", col.DataType(), zero)
	}
	return v, nil
}
