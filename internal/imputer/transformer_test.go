package imputer

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tsimpute/internal/exec"
	"tsimpute/internal/frame"
	"tsimpute/internal/ops/tsimputer"
	"tsimpute/internal/rowcodec"
	"tsimpute/internal/rowstream"
)

func run(t *testing.T, a *Archive, rows []rowstream.Row) []rowstream.OutputRow {
	t.Helper()
	out, err := rowstream.Run(a.Transformer(), rows)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out
}

func times(out []rowstream.OutputRow) []int64 {
	ts := make([]int64, len(out))
	for i, o := range out {
		ts[i] = o.Time
	}
	return ts
}

func synths(out []rowstream.OutputRow) []bool {
	ss := make([]bool, len(out))
	for i, o := range out {
		ss[i] = o.Synthesized
	}
	return ss
}

func cell(out []rowstream.OutputRow, i, j int) rowcodec.Cell { return out[i].Data[j] }

func TestForwardFillGapSynthesis(t *testing.T) {
	t.Parallel()

	a := &Archive{Strategy: ForwardFill, Frequency: 10, FillValues: make([]rowcodec.Cell, 1)}
	out := run(t, a, []rowstream.Row{
		mkRow(0, "a", "1.5"),
		mkRow(40, "a", ""),
	})

	if diff := cmp.Diff([]int64{0, 10, 20, 30, 40}, times(out)); diff != "" {
		t.Fatalf("times:\n%s", diff)
	}
	if diff := cmp.Diff([]bool{false, true, true, true, false}, synths(out)); diff != "" {
		t.Errorf("synthesized flags:\n%s", diff)
	}
	for i := range out {
		if got := cell(out, i, 0); !got.Present || got.Value != "1.5" {
			t.Errorf("row %d data = %+v, want forward-filled \"1.5\"", i, got)
		}
	}
}

func TestForwardFillWithoutPriorStaysAbsent(t *testing.T) {
	t.Parallel()

	a := &Archive{Strategy: ForwardFill, Frequency: 0, FillValues: make([]rowcodec.Cell, 2)}
	out := run(t, a, []rowstream.Row{mkRow(0, "a", "", "7")})

	if got := cell(out, 0, 0); got.Present {
		t.Errorf("data[0] = %+v, want absent (nothing to fill from)", got)
	}
	if got := cell(out, 0, 1); !got.Present || got.Value != "7" {
		t.Errorf("data[1] = %+v, want untouched \"7\"", got)
	}
}

func TestGroupsFillIndependently(t *testing.T) {
	t.Parallel()

	a := &Archive{Strategy: ForwardFill, Frequency: 10, FillValues: make([]rowcodec.Cell, 1)}
	out := run(t, a, []rowstream.Row{
		mkRow(0, "a", "1"),
		mkRow(0, "b", "9"),
		mkRow(30, "a", ""), // two synthesized rows for a
		mkRow(10, "b", ""), // none for b
	})

	if diff := cmp.Diff([]int64{0, 0, 10, 20, 30, 10}, times(out)); diff != "" {
		t.Fatalf("times:\n%s", diff)
	}
	wantKeys := []string{"a", "b", "a", "a", "a", "b"}
	for i, o := range out {
		if o.Keys[0] != wantKeys[i] {
			t.Errorf("row %d key = %q, want %q", i, o.Keys[0], wantKeys[i])
		}
	}
	if got := cell(out, 5, 0); got.Value != "9" {
		t.Errorf("group b fill = %+v, want \"9\" from its own history", got)
	}
}

func TestMedianFill(t *testing.T) {
	t.Parallel()

	a := &Archive{Strategy: Median, Frequency: 10, FillValues: []rowcodec.Cell{rowcodec.Filled("7")}}
	out := run(t, a, []rowstream.Row{
		mkRow(0, "a", ""),
		mkRow(20, "a", "2"),
	})

	if got := cell(out, 0, 0); got.Value != "7" {
		t.Errorf("absent cell = %+v, want learned \"7\"", got)
	}
	// Synthesized gap row also carries the learned value.
	if !out[1].Synthesized || cell(out, 1, 0).Value != "7" {
		t.Errorf("gap row = %+v, want synthesized \"7\"", out[1])
	}
	if got := cell(out, 2, 0); got.Value != "2" {
		t.Errorf("present cell = %+v, want untouched \"2\"", got)
	}
}

func TestBackwardFillHoldsUntilValueArrives(t *testing.T) {
	t.Parallel()

	a := &Archive{Strategy: BackwardFill, Frequency: 0, FillValues: make([]rowcodec.Cell, 1)}
	tr := a.Transformer()

	// An absent cell cannot be decided yet: nothing comes out.
	out, err := tr.Push(mkRow(0, "a", ""))
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("push 1 emitted %d rows, want 0 (held for backfill)", len(out))
	}

	// The next present value decides it; both rows emerge in arrival order.
	out, err = tr.Push(mkRow(10, "a", "5"))
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("push 2 emitted %d rows, want 2", len(out))
	}
	if out[0].Time != 0 || cell(out, 0, 0).Value != "5" {
		t.Errorf("row 0 = %+v, want t=0 backfilled \"5\"", out[0])
	}
	if out[1].Time != 10 || cell(out, 1, 0).Value != "5" {
		t.Errorf("row 1 = %+v, want t=10 \"5\"", out[1])
	}

	// A trailing absent row has no future value; flush releases it as is.
	if _, err := tr.Push(mkRow(20, "a", "")); err != nil {
		t.Fatalf("Push: %v", err)
	}
	tail, err := tr.Flush()
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(tail) != 1 || tail[0].Time != 20 || cell(tail, 0, 0).Present {
		t.Fatalf("flush = %+v, want one absent row at t=20", tail)
	}
}

func TestBackwardFillSynthesizedGapRows(t *testing.T) {
	t.Parallel()

	a := &Archive{Strategy: BackwardFill, Frequency: 10, FillValues: make([]rowcodec.Cell, 1)}
	out := run(t, a, []rowstream.Row{
		mkRow(0, "a", "1"),
		mkRow(30, "a", "4"),
	})

	if diff := cmp.Diff([]int64{0, 10, 20, 30}, times(out)); diff != "" {
		t.Fatalf("times:\n%s", diff)
	}
	// Gap rows take the value of the row that closed the gap.
	for _, i := range []int{1, 2} {
		if !out[i].Synthesized || cell(out, i, 0).Value != "4" {
			t.Errorf("gap row %d = %+v, want synthesized \"4\"", i, out[i])
		}
	}
}

func TestOutOfOrderRowPassesThrough(t *testing.T) {
	t.Parallel()

	a := &Archive{Strategy: ForwardFill, Frequency: 10, FillValues: make([]rowcodec.Cell, 1)}
	out := run(t, a, []rowstream.Row{
		mkRow(50, "a", "1"),
		mkRow(40, "a", ""),
	})

	if diff := cmp.Diff([]int64{50, 40}, times(out)); diff != "" {
		t.Fatalf("times:\n%s", diff)
	}
	if out[1].Synthesized {
		t.Error("out-of-order row marked synthesized")
	}
	if got := cell(out, 1, 0); got.Value != "1" {
		t.Errorf("out-of-order row data = %+v, want ffill \"1\"", got)
	}
}

func TestPushArityMismatch(t *testing.T) {
	t.Parallel()

	a := &Archive{Strategy: ForwardFill, Frequency: 0, FillValues: make([]rowcodec.Cell, 2)}
	_, err := a.Transformer().Push(mkRow(0, "a", "1"))
	if err == nil || !strings.Contains(err.Error(), "trained on 2") {
		t.Fatalf("Push = %v, want arity mismatch error", err)
	}
}

// End to end through the registered kernel: archive bytes in, typed tensors
// out, gap row synthesized and forward-filled.
func TestKernelEndToEnd(t *testing.T) {
	t.Parallel()

	a := &Archive{Strategy: ForwardFill, Frequency: 10, FillValues: make([]rowcodec.Cell, 1)}
	blob, err := a.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	state, err := frame.FromSlice(blob, int64(len(blob)))
	if err != nil {
		t.Fatal(err)
	}
	ts, _ := frame.FromSlice([]int64{0, 10, 30}, 3)
	keys, _ := frame.FromSlice([]float64{1, 1, 1}, 3, 1)
	data, _ := frame.FromSlice([]float64{1.5, math.NaN(), 2.5}, 3, 1)

	k, err := exec.Lookup(tsimputer.Name)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	outs, err := exec.Run(k, state, ts, keys, data)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	gotTimes, err := frame.Data[int64](outs[1])
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int64{0, 10, 20, 30}, gotTimes); diff != "" {
		t.Fatalf("times:\n%s", diff)
	}
	gotSynth, _ := frame.Data[bool](outs[0])
	if diff := cmp.Diff([]bool{false, false, true, false}, gotSynth); diff != "" {
		t.Errorf("synthesized:\n%s", diff)
	}
	gotData, _ := frame.Data[float64](outs[3])
	if diff := cmp.Diff([]float64{1.5, 1.5, 1.5, 2.5}, gotData); diff != "" {
		t.Errorf("data:\n%s", diff)
	}
}

// An archive trained on a different data width fails the invocation as soon
// as the first row reaches the transformer.
func TestKernelArchiveWidthMismatch(t *testing.T) {
	t.Parallel()

	a := &Archive{Strategy: ForwardFill, Frequency: 0, FillValues: make([]rowcodec.Cell, 1)}
	blob, err := a.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	state, _ := frame.FromSlice(blob, int64(len(blob)))
	ts, _ := frame.FromSlice([]int64{0}, 1)
	keys, _ := frame.FromSlice([]string{"a"}, 1, 1)
	data, _ := frame.FromSlice([]string{"x", "y"}, 1, 2)

	k, err := exec.Lookup(tsimputer.Name)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	_, err = exec.Run(k, state, ts, keys, data)
	if err == nil || !strings.Contains(err.Error(), "trained on 1") {
		t.Fatalf("Run = %v, want trained-width mismatch", err)
	}
}
