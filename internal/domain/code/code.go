// Package code handles hierarchical tariff codes: canonical padding, dotted
// display and hierarchy level detection.
//
// A canonical code has exactly 8 digits. Shorter codes denote a node higher in
// the tree and are zero-padded on the right:
//
//	01       category     -> 01000000
//	0101     grouping     -> 01010000
//	010121   sub-grouping -> 01012100
//	01012100 item
package code

import (
	"strings"
	"unicode"
)

// Width is the number of digits in a canonical code.
const Width = 8

// Level is a node depth in the code hierarchy.
type Level string

// Hierarchy levels from most generic to most specific.
const (
	LevelCategory    Level = "category"
	LevelGrouping    Level = "grouping"
	LevelSubgrouping Level = "subgrouping"
	LevelItem        Level = "item"
	LevelUnknown     Level = "unknown"
)

// Levels lists levels in re-ranking priority order.
var Levels = []Level{LevelItem, LevelSubgrouping, LevelGrouping, LevelCategory, LevelUnknown}

// IsValid reports whether l is one of the known levels.
func (l Level) IsValid() bool {
	switch l {
	case LevelCategory, LevelGrouping, LevelSubgrouping, LevelItem, LevelUnknown:
		return true
	}
	return false
}

// Priority orders levels for re-ranking: items first, unknown last.
func (l Level) Priority() int {
	switch l {
	case LevelItem:
		return 0
	case LevelSubgrouping:
		return 1
	case LevelGrouping:
		return 2
	case LevelCategory:
		return 3
	default:
		return 4
	}
}

// ParseLevel maps a stored level string back to a Level; unknown input yields LevelUnknown.
func ParseLevel(s string) Level {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if !l.IsValid() {
		return LevelUnknown
	}
	return l
}

// Strip removes separators ('.', '-', '/', whitespace) from raw.
func Strip(raw string) string {
	return strings.Map(func(r rune) rune {
		if r == '.' || r == '-' || r == '/' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
}

// Normalize returns the canonical 8-digit form of raw, or "" when raw is empty,
// contains non-digits after stripping separators, or has more than 8 digits.
// A 7-digit code is tolerated and padded with a single zero.
func Normalize(raw string) string {
	digits := Strip(raw)
	if digits == "" || len(digits) > Width || !isDigits(digits) {
		return ""
	}
	return digits + strings.Repeat("0", Width-len(digits))
}

// Format renders a canonical code as XXXX.XX.XX. Anything that is not exactly
// 8 characters long is returned unchanged.
func Format(canonical string) string {
	if len(canonical) != Width {
		return canonical
	}
	return canonical[:4] + "." + canonical[4:6] + "." + canonical[6:]
}

// DetectLevel infers the hierarchy level of a raw or canonical code.
//
// Padded codes are classified by their trailing zeros, so a genuine item whose
// last two digits are "00" reads as a sub-grouping. Source data does not
// disambiguate the two.
func DetectLevel(raw string) Level {
	c := Strip(raw)
	if !isDigits(c) {
		return LevelUnknown
	}
	switch {
	case len(c) == 2, len(c) == Width && c[2:] == "000000":
		return LevelCategory
	case len(c) == 4, len(c) == Width && c[4:] == "0000":
		return LevelGrouping
	case len(c) == 6, len(c) == Width && c[6:] == "00":
		return LevelSubgrouping
	case len(c) == Width:
		return LevelItem
	default:
		return LevelUnknown
	}
}

// Prefix returns the first n significant digits of a code with punctuation
// stripped. Codes shorter than n are returned whole.
func Prefix(raw string, n int) string {
	c := Strip(raw)
	if n < 0 {
		n = 0
	}
	if len(c) <= n {
		return c
	}
	return c[:n]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
