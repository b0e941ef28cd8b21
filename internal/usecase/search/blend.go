package search

import (
	"sort"

	"github.com/kailas-cloud/tariffdex/internal/domain/document"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/request"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/result"
	"github.com/kailas-cloud/tariffdex/internal/domain/weights"
	"github.com/kailas-cloud/tariffdex/internal/lexical"
	"github.com/kailas-cloud/tariffdex/internal/usecase/dense"
)

// lexicalHit is a lexical candidate with its per-query normalized score.
type lexicalHit struct {
	doc   document.Document
	score float64
}

// filterLexical normalizes lexical scores over everything retrieved, then
// drops hits that fail the request filter. The dense side filters in the store.
func filterLexical(hits []lexical.Hit, req *request.Request) []lexicalHit {
	norm := lexical.Normalize(hits)
	f := req.Filters()

	out := make([]lexicalHit, 0, len(hits))
	for i := range hits {
		if !f.IsEmpty() && !f.Matches(hits[i].Document.Fields()) {
			continue
		}
		out = append(out, lexicalHit{doc: hits[i].Document, score: norm[i]})
	}
	return out
}

// blend unions both candidate sets by document id and scores them with w.
// Missing dense side: similarity 0, distance MissingDistance. Missing lexical
// side: 0. Sorted by hybrid score descending, ties by id ascending.
func blend(denseHits []dense.Hit, lexHits []lexicalHit, w weights.Weights) []result.Scored {
	type entry struct {
		doc      document.Document
		dense    float64
		distance float64
		lexical  float64
	}

	merged := make(map[string]*entry, len(denseHits)+len(lexHits))
	for _, h := range denseHits {
		merged[h.Document.ID()] = &entry{doc: h.Document, dense: h.Similarity, distance: h.Distance}
	}
	for _, h := range lexHits {
		if e, ok := merged[h.doc.ID()]; ok {
			e.lexical = h.score
			continue
		}
		merged[h.doc.ID()] = &entry{doc: h.doc, distance: result.MissingDistance, lexical: h.score}
	}

	out := make([]result.Scored, 0, len(merged))
	for _, e := range merged {
		out = append(out, result.New(e.doc, e.lexical, e.dense, e.distance, w))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].HybridScore() != out[j].HybridScore() {
			return out[i].HybridScore() > out[j].HybridScore()
		}
		return out[i].ID() < out[j].ID()
	})
	return out
}
