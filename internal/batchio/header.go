package batchio

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const utf8BOM = "\uFEFF"

// NormalizeHeader canonicalizes a column name for matching:
//
//  1. strip a UTF-8 BOM and surrounding space, lowercase
//  2. strip accents (NFD, drop nonspacing marks, NFC)
//  3. keep [a-z0-9]; fold space/dash/dot runs into single underscores
//
// "Čas Měření" and "cas_mereni" match the same column.
func NormalizeHeader(s string) string {
	s = strings.TrimPrefix(s, utf8BOM)
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	ascii, _, _ := transform.String(t, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// columnIndex maps normalized header names to their positions. Names that
// normalize to nothing are skipped; names that collide are an error.
func columnIndex(header []string) (map[string]int, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		n := NormalizeHeader(h)
		if n == "" {
			continue
		}
		if _, dup := byName[n]; dup {
			return nil, fmt.Errorf("batchio: duplicate column %q in header", n)
		}
		byName[n] = i
	}
	return byName, nil
}

// findColumn resolves a spec name against a normalized header index.
func findColumn(byName map[string]int, name string) (int, error) {
	ix, ok := byName[NormalizeHeader(name)]
	if !ok {
		return 0, fmt.Errorf("batchio: column %q not found in header", name)
	}
	return ix, nil
}
