// Package dense answers semantic queries against the vector store and turns
// distances into bounded similarities.
package dense

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/tariffdex/internal/domain"
	"github.com/kailas-cloud/tariffdex/internal/domain/document"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/filter"
)

// Hit is one dense neighbor.
type Hit struct {
	Document   document.Document
	Distance   float64
	Similarity float64
}

// Index queries a VectorStore with vectors from an injected Embedder.
type Index struct {
	store VectorStore
	embed Embedder
}

// New creates a dense index over store, embedding queries with embed.
func New(store VectorStore, embed Embedder) *Index {
	return &Index{store: store, embed: embed}
}

// Query embeds text and returns up to k neighbors by ascending distance.
func (x *Index) Query(ctx context.Context, text string, k int, f filter.Expression) ([]Hit, error) {
	res, err := x.embed.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	return x.QueryVector(ctx, res.Embedding, k, f)
}

// QueryVector returns up to k neighbors of vector matching f. No matches
// yields an empty slice and a nil error.
func (x *Index) QueryVector(ctx context.Context, vector []float32, k int, f filter.Expression) ([]Hit, error) {
	if k <= 0 {
		return []Hit{}, nil
	}

	neighbors, err := x.store.Nearest(ctx, vector, k, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSearchBackend, err)
	}

	hits := make([]Hit, 0, len(neighbors))
	for _, n := range neighbors {
		hits = append(hits, Hit{
			Document:   n.Document,
			Distance:   n.Distance,
			Similarity: Similarity(n.Distance),
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Similarity maps a distance to [0,1]: clamp(1 - d, 0, 1).
func Similarity(distance float64) float64 {
	s := 1 - distance
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}
