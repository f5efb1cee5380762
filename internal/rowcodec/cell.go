// Package rowcodec converts typed scalars to and from the canonical string
// representation used at the transformer seam.
//
// One missing-value convention holds throughout: a numeric NaN and an empty
// string both encode to an absent Cell, and an absent Cell decodes back to
// NaN or "" depending on the column type. Sentinels never cross the seam;
// canonical rows carry explicit presence.
//
// Numeric decoding is strict: the whole string must parse. "12x" is a
// ConversionError, not 12.
package rowcodec

// Cell is a present/absent string value. The zero Cell is absent.
type Cell struct {
	Value   string
	Present bool
}

// Filled returns a present Cell holding s.
func Filled(s string) Cell { return Cell{Value: s, Present: true} }

// Absent returns the missing Cell.
func Absent() Cell { return Cell{} }
