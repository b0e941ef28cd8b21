package dense

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/tariffdex/internal/domain"
	"github.com/kailas-cloud/tariffdex/internal/domain/document"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/filter"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/result"
)

type stubStore struct {
	neighbors []result.Neighbor
	err       error
	gotK      int
	gotVec    []float32
	gotFilter filter.Expression
}

func (s *stubStore) Nearest(_ context.Context, v []float32, k int, f filter.Expression) ([]result.Neighbor, error) {
	s.gotVec, s.gotK, s.gotFilter = v, k, f
	return s.neighbors, s.err
}

type stubEmbedder struct {
	vec []float32
	err error
}

func (e *stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: e.vec}, e.err
}

func doc(t *testing.T, id string) document.Document {
	t.Helper()
	d, err := document.New(id, "text", document.Metadata{Type: document.TypeCode})
	require.NoError(t, err)
	return d
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		distance float64
		want     float64
	}{
		{0, 1},
		{0.25, 0.75},
		{1, 0},
		{1.7, 0},
		{-0.2, 1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Similarity(tt.distance), 1e-12, "distance %v", tt.distance)
	}
}

func TestQuery_EmbedsAndMaps(t *testing.T) {
	store := &stubStore{neighbors: []result.Neighbor{
		{Document: doc(t, "b"), Distance: 0.4},
		{Document: doc(t, "a"), Distance: 0.1},
		{Document: doc(t, "c"), Distance: 1.6},
	}}
	idx := New(store, &stubEmbedder{vec: []float32{0.3, 0.4}})

	f, _ := filter.Equals(map[string]string{document.FieldType: document.TypeCode})
	hits, err := idx.Query(context.Background(), "cafe", 10, f)
	require.NoError(t, err)

	assert.Equal(t, []float32{0.3, 0.4}, store.gotVec)
	assert.Equal(t, 10, store.gotK)
	assert.Equal(t, f, store.gotFilter)

	require.Len(t, hits, 3)
	assert.Equal(t, "a", hits[0].Document.ID())
	assert.InDelta(t, 0.9, hits[0].Similarity, 1e-12)
	assert.Equal(t, "c", hits[2].Document.ID())
	assert.Equal(t, 1.6, hits[2].Distance)
	assert.Zero(t, hits[2].Similarity)
}

func TestQuery_NoMatches(t *testing.T) {
	idx := New(&stubStore{}, &stubEmbedder{vec: []float32{1}})

	hits, err := idx.Query(context.Background(), "x", 5, filter.Expression{})
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}

func TestQuery_BackendFailure(t *testing.T) {
	idx := New(&stubStore{err: errors.New("connection reset")}, &stubEmbedder{vec: []float32{1}})

	_, err := idx.Query(context.Background(), "x", 5, filter.Expression{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSearchBackend)
}

func TestQuery_EmbedFailure(t *testing.T) {
	store := &stubStore{}
	idx := New(store, &stubEmbedder{err: domain.ErrEmbeddingProviderError})

	_, err := idx.Query(context.Background(), "x", 5, filter.Expression{})
	assert.ErrorIs(t, err, domain.ErrEmbeddingProviderError)
	assert.Zero(t, store.gotK, "store must not be queried")
}

func TestQueryVector_ZeroK(t *testing.T) {
	store := &stubStore{}
	hits, err := New(store, nil).QueryVector(context.Background(), []float32{1}, 0, filter.Expression{})
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Zero(t, store.gotK)
}
