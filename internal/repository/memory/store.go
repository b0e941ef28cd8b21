// Package memory is a brute-force in-process vector store. Used when no
// Redis is configured and as the reference backend in tests.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/kailas-cloud/tariffdex/internal/domain"
	"github.com/kailas-cloud/tariffdex/internal/domain/document"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/filter"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/result"
)

// Metric selects the distance function.
type Metric int

const (
	// Cosine distance: 1 - cos(a, b), in [0, 2].
	Cosine Metric = iota
	// L2 is Euclidean distance.
	L2
)

// Store keeps documents in insertion order. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	metric Metric
	dim    int
	docs   []document.Document
	pos    map[string]int
}

// Option configures a Store.
type Option func(*Store)

// WithMetric sets the distance function (default Cosine).
func WithMetric(m Metric) Option {
	return func(s *Store) { s.metric = m }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{pos: make(map[string]int)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Reset removes every document.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = nil
	s.dim = 0
	s.pos = make(map[string]int)
	return nil
}

// Insert appends documents. A document whose id is already stored replaces
// the old one in place, keeping its position.
func (s *Store) Insert(_ context.Context, docs []document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range docs {
		v := docs[i].Vector()
		if len(v) == 0 {
			return fmt.Errorf("%w: document %q has no vector", domain.ErrInvalidDocument, docs[i].ID())
		}
		if s.dim == 0 {
			s.dim = len(v)
		}
		if len(v) != s.dim {
			return fmt.Errorf("%w: document %q has %d dims, store has %d",
				domain.ErrVectorDimMismatch, docs[i].ID(), len(v), s.dim)
		}
	}

	for _, d := range docs {
		if p, ok := s.pos[d.ID()]; ok {
			s.docs[p] = d
			continue
		}
		s.pos[d.ID()] = len(s.docs)
		s.docs = append(s.docs, d)
	}
	return nil
}

// Nearest returns up to k documents matching f, by ascending distance.
// Equal distances keep insertion order.
func (s *Store) Nearest(_ context.Context, vector []float32, k int, f filter.Expression) ([]result.Neighbor, error) {
	if k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.docs) == 0 {
		return nil, nil
	}
	if len(vector) != s.dim {
		return nil, fmt.Errorf("%w: query has %d dims, store has %d", domain.ErrVectorDimMismatch, len(vector), s.dim)
	}

	out := make([]result.Neighbor, 0, len(s.docs))
	for i := range s.docs {
		if !f.IsEmpty() && !f.Matches(s.docs[i].Fields()) {
			continue
		}
		out = append(out, result.Neighbor{
			Document: s.docs[i],
			Distance: s.distance(vector, s.docs[i].Vector()),
		})
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].Distance < out[b].Distance })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// Find returns up to limit documents whose metadata matches f, in insertion order.
func (s *Store) Find(_ context.Context, f filter.Expression, limit int) ([]document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []document.Document
	for i := range s.docs {
		if limit > 0 && len(out) >= limit {
			break
		}
		if f.Matches(s.docs[i].Fields()) {
			out = append(out, s.docs[i])
		}
	}
	return out, nil
}

// All returns every stored document in insertion order.
func (s *Store) All(_ context.Context) ([]document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]document.Document, len(s.docs))
	copy(out, s.docs)
	return out, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

func (s *Store) distance(a, b []float32) float64 {
	if s.metric == L2 {
		var sum float64
		for i := range a {
			d := float64(a[i]) - float64(b[i])
			sum += d * d
		}
		return math.Sqrt(sum)
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
