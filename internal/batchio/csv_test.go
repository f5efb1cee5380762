package batchio

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"tsimpute/internal/frame"
	"tsimpute/internal/rowcodec"
)

func tens[T frame.Scalar](t *testing.T, vals []T, dims ...int64) *frame.Tensor {
	t.Helper()
	tt, err := frame.FromSlice(vals, dims...)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return tt
}

func column[T frame.Scalar](t *testing.T, tt *frame.Tensor) []T {
	t.Helper()
	vals, err := frame.Data[T](tt)
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	return vals
}

func floatSpec() Spec {
	return Spec{
		TimeColumn:  "time",
		KeyColumns:  []string{"sensor_id"},
		DataColumns: []string{"temp", "humidity"},
		DType:       frame.Float64,
	}
}

func TestReadCSVFloat64(t *testing.T) {
	t.Parallel()

	in := strings.Join([]string{
		"time,sensor_id,temp,humidity",
		"0,7,1.5,",
		"10,7,,2.25",
		"",
	}, "\n")
	b, err := ReadCSV(strings.NewReader(in), floatSpec())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}

	if got := b.Rows(); got != 2 {
		t.Fatalf("Rows() = %d, want 2", got)
	}
	if diff := cmp.Diff([]int64{0, 10}, column[int64](t, b.Times)); diff != "" {
		t.Errorf("times mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{7, 7}, column[float64](t, b.Keys)); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	nan := math.NaN()
	wantData := []float64{1.5, nan, nan, 2.25}
	if diff := cmp.Diff(wantData, column[float64](t, b.Data), cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
	if b.TimeName != "time" || b.KeyNames[0] != "sensor_id" || b.DataNames[1] != "humidity" {
		t.Errorf("column names not carried: %q %q %q", b.TimeName, b.KeyNames, b.DataNames)
	}
}

func TestReadCSVNormalizedHeaderAndRFC3339(t *testing.T) {
	t.Parallel()

	in := strings.Join([]string{
		"﻿Čas,Región,Poznámka",
		"2024-01-02T03:04:05Z,west,ok",
		"10,east,",
		"",
	}, "\n")
	spec := Spec{
		TimeColumn:  "cas",
		KeyColumns:  []string{"region"},
		DataColumns: []string{"poznamka"},
		DType:       frame.String,
	}
	b, err := ReadCSV(strings.NewReader(in), spec)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if diff := cmp.Diff([]int64{1704164645, 10}, column[int64](t, b.Times)); diff != "" {
		t.Errorf("times mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"west", "east"}, column[string](t, b.Keys)); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ok", ""}, column[string](t, b.Data)); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSVEmptyInput(t *testing.T) {
	t.Parallel()

	b, err := ReadCSV(strings.NewReader("time,sensor_id,temp,humidity\n"), floatSpec())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if got := b.Rows(); got != 0 {
		t.Fatalf("Rows() = %d, want 0", got)
	}
	if got := b.Keys.Dim(1); got != 1 {
		t.Errorf("Keys.Dim(1) = %d, want 1", got)
	}
	if got := b.Data.Dim(1); got != 2 {
		t.Errorf("Data.Dim(1) = %d, want 2", got)
	}
}

func TestReadCSVSemicolonDelimiter(t *testing.T) {
	t.Parallel()

	spec := floatSpec()
	spec.Comma = ';'
	b, err := ReadCSV(strings.NewReader("time;sensor_id;temp;humidity\n0;7;1.5;\n"), spec)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if got := b.Rows(); got != 1 {
		t.Fatalf("Rows() = %d, want 1", got)
	}
	data := column[float64](t, b.Data)
	if data[0] != 1.5 || !math.IsNaN(data[1]) {
		t.Fatalf("Data = %v, want [1.5 NaN]", data)
	}
}

func TestReadCSVErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		in      string
		spec    Spec
		wantSub string
	}{
		{
			name:    "missing column",
			in:      "time,sensor_id,temp\n0,7,1.5\n",
			spec:    floatSpec(),
			wantSub: `column "humidity" not found`,
		},
		{
			name:    "duplicate column",
			in:      "time,Time,sensor_id,temp,humidity\n",
			spec:    floatSpec(),
			wantSub: "duplicate column",
		},
		{
			name:    "bad time",
			in:      "time,sensor_id,temp,humidity\nnoon,7,1.5,2\n",
			spec:    floatSpec(),
			wantSub: "neither epoch seconds nor RFC 3339",
		},
		{
			name:    "short row",
			in:      "time,sensor_id,temp,humidity\n0,7\n",
			spec:    floatSpec(),
			wantSub: "2 fields, need 4",
		},
		{
			name: "no key columns",
			in:   "time,temp\n",
			spec: Spec{
				TimeColumn:  "time",
				DataColumns: []string{"temp"},
				DType:       frame.Float64,
			},
			wantSub: "no key columns",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ReadCSV(strings.NewReader(tc.in), tc.spec)
			if err == nil {
				t.Fatal("ReadCSV: want error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestReadCSVBadFloatCell(t *testing.T) {
	t.Parallel()

	in := "time,sensor_id,temp,humidity\n0,7,abc,2\n"
	_, err := ReadCSV(strings.NewReader(in), floatSpec())
	var convErr *rowcodec.ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("ReadCSV: got %v, want *ConversionError", err)
	}
	if convErr.Value != "abc" {
		t.Errorf("ConversionError.Value = %q, want %q", convErr.Value, "abc")
	}
}

func TestReadCSVMissingIntCell(t *testing.T) {
	t.Parallel()

	in := "time,sensor_id,count\n0,7,\n"
	spec := Spec{
		TimeColumn:  "time",
		KeyColumns:  []string{"sensor_id"},
		DataColumns: []string{"count"},
		DType:       frame.Int64,
	}
	_, err := ReadCSV(strings.NewReader(in), spec)
	if !errors.Is(err, rowcodec.ErrMissingInt) {
		t.Fatalf("ReadCSV: got %v, want ErrMissingInt", err)
	}
}

func floatResult(t *testing.T) *Result {
	t.Helper()
	nan := math.NaN()
	return &Result{
		Batch: Batch{
			Times:     tens(t, []int64{0, 10}, 2),
			Keys:      tens(t, []float64{7, 7}, 2, 1),
			Data:      tens(t, []float64{1.5, nan, nan, 2.25}, 2, 2),
			TimeName:  "time",
			KeyNames:  []string{"sensor_id"},
			DataNames: []string{"temp", "humidity"},
		},
		Synth: tens(t, []bool{false, true}, 2),
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, floatResult(t)); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := strings.Join([]string{
		"synthesized,time,sensor_id,temp,humidity",
		"false,0,7,1.5,",
		"true,10,7,,2.25",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteCSVReadsBack(t *testing.T) {
	t.Parallel()

	res := floatResult(t)
	var buf bytes.Buffer
	if err := WriteCSV(&buf, res); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	b, err := ReadCSV(&buf, floatSpec())
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if diff := cmp.Diff(column[int64](t, res.Times), column[int64](t, b.Times)); diff != "" {
		t.Errorf("times mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(column[float64](t, res.Data), column[float64](t, b.Data), cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteCSVDefaultNames(t *testing.T) {
	t.Parallel()

	res := &Result{
		Batch: Batch{
			Times: tens(t, []int64{5}, 1),
			Keys:  tens(t, []string{"a"}, 1, 1),
			Data:  tens(t, []string{"x"}, 1, 1),
		},
		Synth: tens(t, []bool{false}, 1),
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, res); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "synthesized,time,key_0,value_0\n") {
		t.Errorf("header = %q, want default names", strings.SplitN(buf.String(), "\n", 2)[0])
	}
}
