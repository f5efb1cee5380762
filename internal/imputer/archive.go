// Package imputer is a time-series imputation policy behind the generic
// push/flush contract: it detects timestamp gaps per key group and emits
// synthesized rows to fill them, and fills absent data cells by forward
// fill, backward fill, or a learned per-column value.
//
// The trained state travels as a self-checking binary archive. The kernel
// boundary never imports this package; it reaches the policy only through
// the registered constructor.
package imputer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/zeebo/xxh3"

	"tsimpute/internal/rowcodec"
)

// Strategy selects how absent data cells are filled.
type Strategy uint8

const (
	ForwardFill Strategy = iota + 1
	BackwardFill
	Median
)

var strategyNames = map[Strategy]string{
	ForwardFill:  "ffill",
	BackwardFill: "bfill",
	Median:       "median",
}

func (s Strategy) String() string {
	if n, ok := strategyNames[s]; ok {
		return n
	}
	return fmt.Sprintf("strategy(%d)", uint8(s))
}

// ParseStrategy maps a config-facing name to its Strategy.
func ParseStrategy(s string) (Strategy, error) {
	for st, name := range strategyNames {
		if s == name {
			return st, nil
		}
	}
	return 0, fmt.Errorf("imputer: unknown strategy %q", s)
}

var (
	ErrArchiveMagic     = errors.New("imputer: bad archive magic")
	ErrArchiveVersion   = errors.New("imputer: unsupported archive version")
	ErrArchiveTruncated = errors.New("imputer: archive truncated")
	ErrArchiveChecksum  = errors.New("imputer: archive checksum mismatch")
)

var archiveMagic = [4]byte{'T', 'S', 'I', 'M'}

const archiveVersion uint16 = 1

// Archive is a trained imputation model: the fill strategy, the expected
// spacing between consecutive rows of a key group (seconds; 0 disables gap
// synthesis), and one learned fill value per data column (absent when the
// column had no usable values at fit time).
type Archive struct {
	Strategy   Strategy
	Frequency  int64
	FillValues []rowcodec.Cell
}

// Columns reports the data width the archive was trained on.
func (a *Archive) Columns() int { return len(a.FillValues) }

// MarshalBinary renders the archive in its versioned wire form: a fixed
// header, the per-column fill values, and a trailing xxh3 checksum over
// everything before it.
func (a *Archive) MarshalBinary() ([]byte, error) {
	if _, ok := strategyNames[a.Strategy]; !ok {
		return nil, fmt.Errorf("imputer: cannot marshal unknown strategy %d", a.Strategy)
	}
	if a.Frequency < 0 {
		return nil, fmt.Errorf("imputer: negative frequency %d", a.Frequency)
	}

	var buf bytes.Buffer
	buf.Write(archiveMagic[:])
	le := binary.LittleEndian
	var scratch [8]byte

	le.PutUint16(scratch[:2], archiveVersion)
	buf.Write(scratch[:2])
	buf.WriteByte(byte(a.Strategy))
	le.PutUint64(scratch[:8], uint64(a.Frequency))
	buf.Write(scratch[:8])
	le.PutUint16(scratch[:2], uint16(len(a.FillValues)))
	buf.Write(scratch[:2])

	for _, c := range a.FillValues {
		if !c.Present {
			buf.WriteByte(0)
			continue
		}
		buf.WriteByte(1)
		le.PutUint32(scratch[:4], uint32(len(c.Value)))
		buf.Write(scratch[:4])
		buf.WriteString(c.Value)
	}

	sum := xxh3.Hash(buf.Bytes())
	le.PutUint64(scratch[:8], sum)
	buf.Write(scratch[:8])
	return buf.Bytes(), nil
}

// UnmarshalBinary parses and verifies an archive blob. The checksum is
// verified before any field is trusted.
func (a *Archive) UnmarshalBinary(b []byte) error {
	le := binary.LittleEndian
	if len(b) < len(archiveMagic)+2+1+8+2+8 {
		return ErrArchiveTruncated
	}
	body, trailer := b[:len(b)-8], b[len(b)-8:]
	if xxh3.Hash(body) != le.Uint64(trailer) {
		return ErrArchiveChecksum
	}
	if !bytes.Equal(body[:4], archiveMagic[:]) {
		return ErrArchiveMagic
	}
	off := 4
	if v := le.Uint16(body[off:]); v != archiveVersion {
		return fmt.Errorf("%w: %d", ErrArchiveVersion, v)
	}
	off += 2
	st := Strategy(body[off])
	off++
	if _, ok := strategyNames[st]; !ok {
		return fmt.Errorf("imputer: archive has unknown strategy %d", st)
	}
	freq := int64(le.Uint64(body[off:]))
	off += 8
	if freq < 0 {
		return fmt.Errorf("imputer: archive has negative frequency %d", freq)
	}
	ncols := int(le.Uint16(body[off:]))
	off += 2

	fill := make([]rowcodec.Cell, ncols)
	for j := 0; j < ncols; j++ {
		if off >= len(body) {
			return ErrArchiveTruncated
		}
		present := body[off]
		off++
		if present == 0 {
			continue
		}
		if off+4 > len(body) {
			return ErrArchiveTruncated
		}
		vlen := int(le.Uint32(body[off:]))
		off += 4
		if off+vlen > len(body) {
			return ErrArchiveTruncated
		}
		fill[j] = rowcodec.Filled(string(body[off : off+vlen]))
		off += vlen
	}
	if off != len(body) {
		return fmt.Errorf("imputer: %d trailing bytes in archive body", len(body)-off)
	}

	a.Strategy = st
	a.Frequency = freq
	a.FillValues = fill
	return nil
}
