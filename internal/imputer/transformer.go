package imputer

import (
	"fmt"

	"tsimpute/internal/rowcodec"
	"tsimpute/internal/rowstream"
)

// NewTransformer is the constructor the kernel is configured with: it
// deserializes a trained archive and returns a fresh transformer instance.
// The state bytes are only read, never retained.
func NewTransformer(state []byte) (rowstream.Transformer, error) {
	var a Archive
	if err := a.UnmarshalBinary(state); err != nil {
		return nil, err
	}
	return a.Transformer(), nil
}

// Transformer returns a fresh instance over the archive's parameters. Each
// instance owns its mutable state; the archive itself stays read-only and
// may back any number of concurrent instances.
func (a *Archive) Transformer() rowstream.Transformer {
	return &transformer{
		strategy: a.Strategy,
		freq:     a.Frequency,
		fill:     append([]rowcodec.Cell(nil), a.FillValues...),
		groups:   map[string]*group{},
	}
}

type group struct {
	seen     bool
	lastTime int64
	lastVals []rowcodec.Cell // last present value per column, for forward fill
}

// pendingRow is a backward-fill row waiting for future values. absentCols
// shrinks as later rows supply values; the row is releasable at zero.
type pendingRow struct {
	out        rowstream.OutputRow
	group      string
	absentCols []int
}

type transformer struct {
	strategy Strategy
	freq     int64
	fill     []rowcodec.Cell
	groups   map[string]*group
	pending  []pendingRow // backward fill only; global, in arrival order
}

// Push consumes one row and returns everything releasable so far, in order.
// Forward-fill and median release immediately; backward-fill may hold rows
// until a later row (or Flush) decides their absent cells.
func (t *transformer) Push(r rowstream.Row) ([]rowstream.OutputRow, error) {
	if len(r.Data) != len(t.fill) {
		return nil, fmt.Errorf("imputer: row has %d data cells, trained on %d", len(r.Data), len(t.fill))
	}

	gk := groupKey(r.Keys)
	g := t.groups[gk]
	if g == nil {
		g = &group{lastVals: make([]rowcodec.Cell, len(t.fill))}
		t.groups[gk] = g
	}

	var ready []rowstream.OutputRow

	// Synthesize one row per missed step between the group's last timestamp
	// and this one. Out-of-order rows (at or before last) synthesize nothing.
	if g.seen && t.freq > 0 && r.Time > g.lastTime {
		for ts := g.lastTime + t.freq; ts < r.Time; ts += t.freq {
			srow := rowstream.Row{
				Time: ts,
				Keys: append([]string(nil), r.Keys...),
				Data: t.gapData(g),
			}
			ready = t.emit(ready, rowstream.OutputRow{Row: srow, Synthesized: true}, gk)
		}
	}

	if t.strategy == BackwardFill {
		// This row's present cells decide earlier pending rows of the group,
		// including the gap rows just synthesized.
		t.backfill(gk, r.Data)
	}

	cur := rowstream.Row{
		Time: r.Time,
		Keys: append([]string(nil), r.Keys...),
		Data: append([]rowcodec.Cell(nil), r.Data...),
	}
	switch t.strategy {
	case ForwardFill:
		for j, c := range cur.Data {
			if !c.Present && g.lastVals[j].Present {
				cur.Data[j] = g.lastVals[j]
			}
		}
	case Median:
		for j, c := range cur.Data {
			if !c.Present && t.fill[j].Present {
				cur.Data[j] = t.fill[j]
			}
		}
	}
	ready = t.emit(ready, rowstream.OutputRow{Row: cur}, gk)

	for j, c := range r.Data {
		if c.Present {
			g.lastVals[j] = c
		}
	}
	if !g.seen || r.Time > g.lastTime {
		g.lastTime = r.Time
	}
	g.seen = true

	return t.drain(ready), nil
}

// Flush releases whatever backward fill still holds, absent cells and all.
func (t *transformer) Flush() ([]rowstream.OutputRow, error) {
	if len(t.pending) == 0 {
		return nil, nil
	}
	out := make([]rowstream.OutputRow, len(t.pending))
	for i, p := range t.pending {
		out[i] = p.out
	}
	t.pending = nil
	return out, nil
}

// gapData builds the data vector for a synthesized row.
func (t *transformer) gapData(g *group) []rowcodec.Cell {
	cells := make([]rowcodec.Cell, len(t.fill))
	switch t.strategy {
	case ForwardFill:
		copy(cells, g.lastVals)
	case Median:
		copy(cells, t.fill)
	case BackwardFill:
		// stays all-absent; backfill decides later
	}
	return cells
}

// emit routes a finished row: straight out for immediate strategies, into
// the pending queue for backward fill.
func (t *transformer) emit(ready []rowstream.OutputRow, or rowstream.OutputRow, gk string) []rowstream.OutputRow {
	if t.strategy != BackwardFill {
		return append(ready, or)
	}
	var absent []int
	for j, c := range or.Data {
		if !c.Present {
			absent = append(absent, j)
		}
	}
	t.pending = append(t.pending, pendingRow{out: or, group: gk, absentCols: absent})
	return ready
}

// backfill writes vals' present cells into earlier pending rows of the same
// group that still miss them.
func (t *transformer) backfill(gk string, vals []rowcodec.Cell) {
	for i := range t.pending {
		p := &t.pending[i]
		if p.group != gk || len(p.absentCols) == 0 {
			continue
		}
		remaining := p.absentCols[:0]
		for _, j := range p.absentCols {
			if vals[j].Present {
				p.out.Data[j] = vals[j]
			} else {
				remaining = append(remaining, j)
			}
		}
		p.absentCols = remaining
	}
}

// drain moves the complete prefix of the pending queue to ready. Rows still
// missing cells block everything behind them so arrival order holds.
func (t *transformer) drain(ready []rowstream.OutputRow) []rowstream.OutputRow {
	if t.strategy != BackwardFill {
		return ready
	}
	n := 0
	for _, p := range t.pending {
		if len(p.absentCols) != 0 {
			break
		}
		ready = append(ready, p.out)
		n++
	}
	if n > 0 {
		t.pending = append(t.pending[:0], t.pending[n:]...)
	}
	return ready
}
