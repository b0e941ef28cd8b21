package tariffdex

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	domdoc "github.com/kailas-cloud/tariffdex/internal/domain/document"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/request"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/result"
	"github.com/kailas-cloud/tariffdex/internal/domain/weights"
	indexinguc "github.com/kailas-cloud/tariffdex/internal/usecase/indexing"
)

// --- bag-of-words embedder ---

const bowDims = 64

// bowEmbedder hashes lowercased words into a fixed number of buckets.
// Texts sharing words get a high cosine similarity.
type bowEmbedder struct {
	embedCalls int
	batchCalls int
	err        error
}

func (e *bowEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	e.embedCalls++
	if e.err != nil {
		return EmbeddingResult{}, e.err
	}
	return EmbeddingResult{Embedding: bow(text), TotalTokens: len(strings.Fields(text))}, nil
}

func (e *bowEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	e.batchCalls++
	if e.err != nil {
		return BatchEmbeddingResult{}, e.err
	}
	out := BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		out.Embeddings[i] = bow(t)
		out.TotalTokens += len(strings.Fields(t))
	}
	return out, nil
}

func bow(text string) []float32 {
	v := make([]float32, bowDims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%bowDims]++
	}
	var norm float64
	for _, x := range v {
		norm += float64(x * x)
	}
	if norm == 0 {
		v[0] = 1
		return v
	}
	n := float32(math.Sqrt(norm))
	for i := range v {
		v[i] /= n
	}
	return v
}

// singleEmbedder has no batch endpoint.
type singleEmbedder struct {
	calls int
}

func (e *singleEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	e.calls++
	return EmbeddingResult{Embedding: bow(text)}, nil
}

// shortBatchEmbedder returns fewer vectors than texts.
type shortBatchEmbedder struct{ singleEmbedder }

func (e *shortBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	return BatchEmbeddingResult{Embeddings: make([][]float32, len(texts)-1)}, nil
}

// --- use case mocks ---

var errBackend = errors.New("backend down")

type mockIndexUC struct {
	rebuildFn func(ctx context.Context, docs []domdoc.Document) (indexinguc.Report, error)
}

func (m *mockIndexUC) Rebuild(ctx context.Context, docs []domdoc.Document) (indexinguc.Report, error) {
	return m.rebuildFn(ctx, docs)
}

func (m *mockIndexUC) Load(_ context.Context) (int, error) { return 0, nil }

type mockSearchUC struct {
	searchFn func(ctx context.Context, req *request.Request) ([]result.Scored, error)
	live     weights.Weights
}

func (m *mockSearchUC) Search(ctx context.Context, req *request.Request) ([]result.Scored, error) {
	return m.searchFn(ctx, req)
}

func (m *mockSearchUC) Weights() weights.Weights { return m.live }

func (m *mockSearchUC) SetWeights(w weights.Weights) error {
	m.live = w
	return nil
}
