// Package rowstream drives a stateful, opaque row transformer: canonical
// rows go in one at a time, emitted rows come out through an explicit sink,
// and a single flush closes the stream. The driver is a faithful conduit; it
// never reorders, deduplicates, or filters what the transformer emits.
package rowstream

import "tsimpute/internal/rowcodec"

// Row is the canonical, type-erased form of one input row: a timestamp in
// seconds since epoch, K key strings, and C present/absent data cells.
type Row struct {
	Time int64
	Keys []string
	Data []rowcodec.Cell
}

// OutputRow is a canonical row emitted by a transformer. Synthesized marks
// rows the transformer invented (gap fill) as opposed to passed through.
type OutputRow struct {
	Row
	Synthesized bool
}
