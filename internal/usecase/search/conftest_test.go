package search

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/tariffdex/internal/domain/document"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/filter"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/request"
	"github.com/kailas-cloud/tariffdex/internal/usecase/dense"
)

// stubDense returns canned hits and records the last call.
type stubDense struct {
	mu    sync.Mutex
	hits  []dense.Hit
	err   error
	gotK  int
	gotF  filter.Expression
	calls int
}

func (s *stubDense) Query(_ context.Context, _ string, k int, f filter.Expression) ([]dense.Hit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gotK, s.gotF = k, f
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]dense.Hit, 0, len(s.hits))
	for _, h := range s.hits {
		if f.IsEmpty() || f.Matches(h.Document.Fields()) {
			out = append(out, h)
		}
	}
	return out, nil
}

func mkDoc(t *testing.T, id, ncm, text string) document.Document {
	t.Helper()
	d, err := document.New(id, text, document.Metadata{Type: document.TypeCode, Code: ncm})
	require.NoError(t, err)
	return d
}

func hit(d document.Document, distance float64) dense.Hit {
	return dense.Hit{Document: d, Distance: distance, Similarity: dense.Similarity(distance)}
}

func mkReq(t *testing.T, query string, topK int, preferItems bool) *request.Request {
	t.Helper()
	r, err := request.New(query, filter.Expression{}, topK, preferItems)
	require.NoError(t, err)
	return &r
}
