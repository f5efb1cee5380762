package storage

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tsimpute/internal/batchio"
	"tsimpute/internal/frame"
)

type fakeSink struct {
	cfg    Config
	closed bool
}

func (s *fakeSink) CreateTable(context.Context) error { return nil }
func (s *fakeSink) CopyRows(_ context.Context, _ []string, rows [][]any) (int64, error) {
	return int64(len(rows)), nil
}
func (s *fakeSink) Close() { s.closed = true }

func TestRegistryDispatch(t *testing.T) {
	Register("fake", func(_ context.Context, cfg Config) (Sink, error) {
		return &fakeSink{cfg: cfg}, nil
	})

	sink, err := New(context.Background(), Config{Kind: "fake", Table: "imputed"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fs := sink.(*fakeSink)
	if fs.cfg.Table != "imputed" {
		t.Errorf("config not forwarded: table %q", fs.cfg.Table)
	}

	if _, err := New(context.Background(), Config{Kind: "voldb"}); err == nil {
		t.Fatal("New with unregistered kind: want error")
	} else if !strings.Contains(err.Error(), `kind="voldb"`) {
		t.Errorf("error %q does not name the kind", err)
	}

	kinds := Kinds()
	found := false
	for _, k := range kinds {
		if k == "fake" {
			found = true
		}
	}
	if !found {
		t.Errorf("Kinds() = %v, missing %q", kinds, "fake")
	}
}

func mustTensor[T frame.Scalar](t *testing.T, vals []T, dims ...int64) *frame.Tensor {
	t.Helper()
	tt, err := frame.FromSlice(vals, dims...)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return tt
}

func floatResult(t *testing.T) *batchio.Result {
	t.Helper()
	return &batchio.Result{
		Batch: batchio.Batch{
			Times:     mustTensor(t, []int64{0, 10}, 2),
			Keys:      mustTensor(t, []float64{7, 7}, 2, 1),
			Data:      mustTensor(t, []float64{1.5, math.NaN(), math.NaN(), 2.25}, 2, 2),
			TimeName:  "time",
			KeyNames:  []string{"sensor_id"},
			DataNames: []string{"temp", "humidity"},
		},
		Synth: mustTensor(t, []bool{false, true}, 2),
	}
}

func TestResultColumns(t *testing.T) {
	t.Parallel()

	got := ResultColumns(floatResult(t))
	want := []Column{
		{Name: "synthesized", DType: frame.Bool},
		{Name: "time", DType: frame.Int64},
		{Name: "sensor_id", DType: frame.Float64},
		{Name: "temp", DType: frame.Float64, Nullable: true},
		{Name: "humidity", DType: frame.Float64, Nullable: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"synthesized", "time", "sensor_id", "temp", "humidity"}, ColumnNames(got)); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestResultRowsNullsAbsent(t *testing.T) {
	t.Parallel()

	rows, err := ResultRows(floatResult(t))
	if err != nil {
		t.Fatalf("ResultRows: %v", err)
	}
	want := [][]any{
		{false, int64(0), 7.0, 1.5, nil},
		{true, int64(10), 7.0, nil, 2.25},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestResultRowsString(t *testing.T) {
	t.Parallel()

	res := &batchio.Result{
		Batch: batchio.Batch{
			Times:     mustTensor(t, []int64{5}, 1),
			Keys:      mustTensor(t, []string{"west"}, 1, 1),
			Data:      mustTensor(t, []string{""}, 1, 1),
			TimeName:  "time",
			KeyNames:  []string{"region"},
			DataNames: []string{"note"},
		},
		Synth: mustTensor(t, []bool{false}, 1),
	}
	rows, err := ResultRows(res)
	if err != nil {
		t.Fatalf("ResultRows: %v", err)
	}
	if rows[0][3] != nil {
		t.Errorf("absent string cell = %#v, want nil", rows[0][3])
	}
}
