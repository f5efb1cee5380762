package batchio

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"tsimpute/internal/frame"
	"tsimpute/internal/rowcodec"
)

func TestArrowRoundTripFloat64(t *testing.T) {
	t.Parallel()

	res := floatResult(t)
	var buf bytes.Buffer
	if err := WriteArrow(&buf, res); err != nil {
		t.Fatalf("WriteArrow: %v", err)
	}
	b, err := ReadArrow(&buf, floatSpec())
	if err != nil {
		t.Fatalf("ReadArrow: %v", err)
	}
	if diff := cmp.Diff(column[int64](t, res.Times), column[int64](t, b.Times)); diff != "" {
		t.Errorf("times mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(column[float64](t, res.Keys), column[float64](t, b.Keys)); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(column[float64](t, res.Data), column[float64](t, b.Data), cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestArrowRoundTripString(t *testing.T) {
	t.Parallel()

	res := &Result{
		Batch: Batch{
			Times:     tens(t, []int64{0, 10}, 2),
			Keys:      tens(t, []string{"west", "east"}, 2, 1),
			Data:      tens(t, []string{"ok", ""}, 2, 1),
			TimeName:  "time",
			KeyNames:  []string{"region"},
			DataNames: []string{"note"},
		},
		Synth: tens(t, []bool{false, false}, 2),
	}
	var buf bytes.Buffer
	if err := WriteArrow(&buf, res); err != nil {
		t.Fatalf("WriteArrow: %v", err)
	}
	spec := Spec{
		TimeColumn:  "time",
		KeyColumns:  []string{"region"},
		DataColumns: []string{"note"},
		DType:       frame.String,
	}
	b, err := ReadArrow(&buf, spec)
	if err != nil {
		t.Fatalf("ReadArrow: %v", err)
	}
	if diff := cmp.Diff([]string{"ok", ""}, column[string](t, b.Data)); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestArrowRoundTripEmpty(t *testing.T) {
	t.Parallel()

	res := &Result{
		Batch: Batch{
			Times:     tens(t, []int64{}, 0),
			Keys:      tens(t, []float64{}, 0, 1),
			Data:      tens(t, []float64{}, 0, 2),
			TimeName:  "time",
			KeyNames:  []string{"sensor_id"},
			DataNames: []string{"temp", "humidity"},
		},
		Synth: tens(t, []bool{}, 0),
	}
	var buf bytes.Buffer
	if err := WriteArrow(&buf, res); err != nil {
		t.Fatalf("WriteArrow: %v", err)
	}
	b, err := ReadArrow(&buf, floatSpec())
	if err != nil {
		t.Fatalf("ReadArrow: %v", err)
	}
	if got := b.Rows(); got != 0 {
		t.Fatalf("Rows() = %d, want 0", got)
	}
}

func TestReadArrowTypeMismatch(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteArrow(&buf, floatResult(t)); err != nil {
		t.Fatalf("WriteArrow: %v", err)
	}
	spec := floatSpec()
	spec.DType = frame.String
	_, err := ReadArrow(&buf, spec)
	if err == nil {
		t.Fatal("ReadArrow: want dtype mismatch error")
	}
	if !strings.Contains(err.Error(), "want utf8") {
		t.Errorf("error %q does not mention wanted type", err)
	}
}

func TestReadArrowMissingColumn(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteArrow(&buf, floatResult(t)); err != nil {
		t.Fatalf("WriteArrow: %v", err)
	}
	spec := floatSpec()
	spec.DataColumns = []string{"temp", "pressure"}
	_, err := ReadArrow(&buf, spec)
	if err == nil || !strings.Contains(err.Error(), `column "pressure" not found`) {
		t.Fatalf("ReadArrow: got %v, want missing-column error", err)
	}
}

// writeRawArrow hand-builds an IPC stream so tests can produce shapes the
// writer never emits, like nulls in int64 or key columns.
func writeRawArrow(t *testing.T, schema *arrow.Schema, fill func(rb *array.RecordBuilder)) *bytes.Buffer {
	t.Helper()
	rb := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer rb.Release()
	fill(rb)
	rec := rb.NewRecordBatch()
	defer rec.Release()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	if err := w.Write(rec); err != nil {
		t.Fatalf("write record: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf
}

func TestReadArrowNullIntDataCell(t *testing.T) {
	t.Parallel()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "time", Type: arrow.PrimitiveTypes.Int64},
		{Name: "sensor_id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "count", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	}, nil)
	buf := writeRawArrow(t, schema, func(rb *array.RecordBuilder) {
		rb.Field(0).(*array.Int64Builder).AppendValues([]int64{0, 10}, nil)
		rb.Field(1).(*array.Int64Builder).AppendValues([]int64{7, 7}, nil)
		cb := rb.Field(2).(*array.Int64Builder)
		cb.Append(5)
		cb.AppendNull()
	})

	spec := Spec{
		TimeColumn:  "time",
		KeyColumns:  []string{"sensor_id"},
		DataColumns: []string{"count"},
		DType:       frame.Int64,
	}
	_, err := ReadArrow(buf, spec)
	if !errors.Is(err, rowcodec.ErrMissingInt) {
		t.Fatalf("ReadArrow: got %v, want ErrMissingInt", err)
	}
}

func TestReadArrowNullKey(t *testing.T) {
	t.Parallel()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "time", Type: arrow.PrimitiveTypes.Int64},
		{Name: "region", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "note", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)
	buf := writeRawArrow(t, schema, func(rb *array.RecordBuilder) {
		rb.Field(0).(*array.Int64Builder).Append(0)
		rb.Field(1).(*array.StringBuilder).AppendNull()
		rb.Field(2).(*array.StringBuilder).Append("x")
	})

	spec := Spec{
		TimeColumn:  "time",
		KeyColumns:  []string{"region"},
		DataColumns: []string{"note"},
		DType:       frame.String,
	}
	_, err := ReadArrow(buf, spec)
	if err == nil || !strings.Contains(err.Error(), "null at row 0") {
		t.Fatalf("ReadArrow: got %v, want null-key error", err)
	}
}

func TestReadArrowAccumulatesBatches(t *testing.T) {
	t.Parallel()

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "time", Type: arrow.PrimitiveTypes.Int64},
		{Name: "sensor_id", Type: arrow.PrimitiveTypes.Float64},
		{Name: "temp", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "humidity", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, nil)

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	for batch := 0; batch < 2; batch++ {
		rb := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
		rb.Field(0).(*array.Int64Builder).Append(int64(batch * 10))
		rb.Field(1).(*array.Float64Builder).Append(7)
		rb.Field(2).(*array.Float64Builder).Append(1.5)
		rb.Field(3).(*array.Float64Builder).Append(2.25)
		rec := rb.NewRecordBatch()
		if err := w.Write(rec); err != nil {
			t.Fatalf("write batch %d: %v", batch, err)
		}
		rec.Release()
		rb.Release()
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	b, err := ReadArrow(&buf, floatSpec())
	if err != nil {
		t.Fatalf("ReadArrow: %v", err)
	}
	if diff := cmp.Diff([]int64{0, 10}, column[int64](t, b.Times)); diff != "" {
		t.Errorf("times mismatch (-want +got):\n%s", diff)
	}
}
