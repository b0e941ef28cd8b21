package code

import "strings"

// Parents holds the enclosing category and grouping of a code.
type Parents struct {
	Category string
	Grouping string
}

// BuildParents resolves, for each canonical code in the corpus, its enclosing
// category and grouping. A parent is only referenced when that parent row is
// itself part of the corpus. Codes that fail to normalize are skipped.
func BuildParents(codes []string) map[string]Parents {
	known := make(map[string]bool, len(codes))
	canonical := make([]string, 0, len(codes))
	for _, raw := range codes {
		c := Normalize(raw)
		if c == "" {
			continue
		}
		known[c] = true
		canonical = append(canonical, c)
	}

	out := make(map[string]Parents, len(canonical))
	for _, c := range canonical {
		var p Parents
		level := DetectLevel(c)

		if level != LevelCategory {
			if cat := pad(c[:2]); known[cat] {
				p.Category = cat
			}
		}
		if level != LevelCategory && level != LevelGrouping {
			if grp := pad(c[:4]); known[grp] {
				p.Grouping = grp
			}
		}
		out[c] = p
	}

	return out
}

func pad(prefix string) string {
	return prefix + strings.Repeat("0", Width-len(prefix))
}
