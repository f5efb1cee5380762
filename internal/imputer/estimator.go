package imputer

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"tsimpute/internal/rowcodec"
	"tsimpute/internal/rowstream"
)

// groupKey joins key cells with a unit separator so composite keys with
// embedded commas cannot collide.
func groupKey(keys []string) string {
	return strings.Join(keys, "\x1f")
}

// Fit learns an Archive from time-ordered canonical rows: the expected row
// spacing is the median of positive adjacent gaps within each key group, and
// each column's fill value is a representative of its present values (median
// for numeric columns, most frequent otherwise). Rows must agree on data
// arity.
func Fit(rows []rowstream.Row, strategy Strategy) (*Archive, error) {
	if _, ok := strategyNames[strategy]; !ok {
		return nil, fmt.Errorf("imputer: unknown strategy %d", strategy)
	}
	if len(rows) == 0 {
		return nil, errors.New("imputer: no rows to fit")
	}
	ncols := len(rows[0].Data)
	for i, r := range rows {
		if len(r.Data) != ncols {
			return nil, fmt.Errorf("imputer: fit row %d has %d cells, want %d", i, len(r.Data), ncols)
		}
	}

	lastByGroup := map[string]int64{}
	var gaps []int64
	for _, r := range rows {
		gk := groupKey(r.Keys)
		last, ok := lastByGroup[gk]
		if ok && r.Time > last {
			gaps = append(gaps, r.Time-last)
		}
		if !ok || r.Time > last {
			lastByGroup[gk] = r.Time
		}
	}

	fill := make([]rowcodec.Cell, ncols)
	for j := 0; j < ncols; j++ {
		var present []string
		for _, r := range rows {
			if c := r.Data[j]; c.Present {
				present = append(present, c.Value)
			}
		}
		fill[j] = representative(present)
	}

	return &Archive{
		Strategy:   strategy,
		Frequency:  medianInt64(gaps),
		FillValues: fill,
	}, nil
}

func medianInt64(vals []int64) int64 {
	if len(vals) == 0 {
		return 0
	}
	s := append([]int64(nil), vals...)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	return s[(len(s)-1)/2]
}

// representative picks one canonical string to stand in for a column. When
// every value parses as a number, it is the value median (lower middle),
// returned as its original string so integer columns stay integer. Otherwise
// it is the most frequent value, ties broken lexicographically. No values at
// all yields an absent cell.
func representative(vals []string) rowcodec.Cell {
	if len(vals) == 0 {
		return rowcodec.Absent()
	}

	parsed := make([]float64, len(vals))
	numeric := true
	for i, v := range vals {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			numeric = false
			break
		}
		parsed[i] = f
	}

	if numeric {
		idx := make([]int, len(vals))
		for i := range idx {
			idx[i] = i
		}
		sort.Slice(idx, func(a, b int) bool {
			if parsed[idx[a]] != parsed[idx[b]] {
				return parsed[idx[a]] < parsed[idx[b]]
			}
			return vals[idx[a]] < vals[idx[b]]
		})
		return rowcodec.Filled(vals[idx[(len(idx)-1)/2]])
	}

	counts := map[string]int{}
	for _, v := range vals {
		counts[v]++
	}
	best, bestN := "", -1
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return rowcodec.Filled(best)
}
