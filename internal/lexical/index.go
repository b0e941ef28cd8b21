// Package lexical implements an in-process BM25 (Okapi) index over the corpus.
package lexical

import (
	"math"
	"slices"

	"github.com/kailas-cloud/tariffdex/internal/domain/document"
)

// Params are the BM25 Okapi constants.
type Params struct {
	K1      float64
	B       float64
	Epsilon float64 // non-positive IDFs are replaced by Epsilon * mean IDF
}

// DefaultParams returns k1=1.5, b=0.75, epsilon=0.25.
func DefaultParams() Params {
	return Params{K1: 1.5, B: 0.75, Epsilon: 0.25}
}

// minIDF keeps very common terms contributing a little when the mean IDF of a
// tiny corpus is itself non-positive.
const minIDF = 1e-3

// normFloor guards per-query normalization against division by zero.
const normFloor = 1e-9

// Hit is a scored document. Position is the document's corpus order.
type Hit struct {
	Position int
	Document document.Document
	Score    float64
}

type posting struct {
	doc int
	tf  int
}

// Index is immutable after Build and safe for concurrent queries.
type Index struct {
	params   Params
	tokenize Tokenizer

	docs     []document.Document
	docLen   []int
	avgLen   float64
	postings map[string][]posting
	idf      map[string]float64
}

// Option configures Build.
type Option func(*Index)

// WithTokenizer replaces the default tokenizer.
func WithTokenizer(t Tokenizer) Option {
	return func(idx *Index) { idx.tokenize = t }
}

// WithParams replaces the default BM25 constants.
func WithParams(p Params) Option {
	return func(idx *Index) { idx.params = p }
}

// Build tokenizes docs once and precomputes document lengths and IDFs.
// An empty corpus yields an index that never returns hits.
func Build(docs []document.Document, opts ...Option) *Index {
	idx := &Index{
		params:   DefaultParams(),
		tokenize: Tokenize,
		docs:     slices.Clone(docs),
		docLen:   make([]int, len(docs)),
		postings: make(map[string][]posting),
		idf:      make(map[string]float64),
	}
	for _, opt := range opts {
		opt(idx)
	}

	var total int
	for i := range idx.docs {
		tokens := idx.tokenize(idx.docs[i].Text())
		idx.docLen[i] = len(tokens)
		total += len(tokens)

		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		for term, n := range tf {
			idx.postings[term] = append(idx.postings[term], posting{doc: i, tf: n})
		}
	}
	if len(idx.docs) > 0 {
		idx.avgLen = float64(total) / float64(len(idx.docs))
	}

	idx.computeIDF()
	return idx
}

func (idx *Index) computeIDF() {
	if len(idx.postings) == 0 {
		return
	}

	n := float64(len(idx.docs))
	var sum float64
	var weak []string
	for term, list := range idx.postings {
		df := float64(len(list))
		v := math.Log(n-df+0.5) - math.Log(df+0.5)
		idx.idf[term] = v
		sum += v
		if v <= 0 {
			weak = append(weak, term)
		}
	}

	// A term in exactly half of a two-document corpus has IDF 0; flooring it
	// keeps verbatim matches retrievable in tiny corpora.
	floor := max(idx.params.Epsilon*sum/float64(len(idx.idf)), minIDF)
	for _, term := range weak {
		idx.idf[term] = floor
	}
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int { return len(idx.docs) }

// Documents returns the corpus in index order.
func (idx *Index) Documents() []document.Document { return slices.Clone(idx.docs) }

// Query scores the corpus against text and returns up to topK hits by
// descending score. Ties keep corpus order; documents scoring zero are never
// returned.
func (idx *Index) Query(text string, topK int) []Hit {
	if topK <= 0 || len(idx.docs) == 0 {
		return nil
	}

	k1, b := idx.params.K1, idx.params.B
	scores := make(map[int]float64)
	for _, term := range idx.tokenize(text) {
		idf, ok := idx.idf[term]
		if !ok {
			continue
		}
		for _, p := range idx.postings[term] {
			tf := float64(p.tf)
			denom := k1 * (1 - b + b*float64(idx.docLen[p.doc])/idx.avgLen)
			scores[p.doc] += idf * tf * (k1 + 1) / (tf + denom)
		}
	}

	hits := make([]Hit, 0, len(scores))
	for pos, s := range scores {
		if s > 0 {
			hits = append(hits, Hit{Position: pos, Document: idx.docs[pos], Score: s})
		}
	}
	slices.SortFunc(hits, func(a, b Hit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return a.Position - b.Position
		}
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// Normalize divides every score by the highest score in hits, so the best hit
// of a query scores 1. Scores are comparable within one query only.
func Normalize(hits []Hit) []float64 {
	out := make([]float64, len(hits))
	if len(hits) == 0 {
		return out
	}

	top := normFloor
	for _, h := range hits {
		top = max(top, h.Score)
	}
	for i, h := range hits {
		out[i] = h.Score / top
	}
	return out
}
