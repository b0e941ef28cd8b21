package search

import (
	"github.com/kailas-cloud/tariffdex/internal/domain/code"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/result"
)

// Reprioritize moves more specific codes to the front: items, then
// sub-groupings, groupings, categories, unknown. Order inside each level is
// kept. Identity when preferItems is false.
func Reprioritize(results []result.Scored, preferItems bool) []result.Scored {
	if !preferItems || len(results) < 2 {
		return results
	}

	buckets := make([][]result.Scored, len(code.Levels))
	for _, r := range results {
		p := levelOf(&r).Priority()
		buckets[p] = append(buckets[p], r)
	}

	out := make([]result.Scored, 0, len(results))
	for _, b := range buckets {
		out = append(out, b...)
	}
	return out
}

func levelOf(r *result.Scored) code.Level {
	doc := r.Document()
	if l := doc.Level(); l.IsValid() && l != code.LevelUnknown {
		return l
	}
	return code.DetectLevel(doc.NormalizedCode())
}
