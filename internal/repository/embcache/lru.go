package embcache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kailas-cloud/tariffdex/internal/domain"
)

// DefaultLRUSize is used when a non-positive size is configured.
const DefaultLRUSize = 10000

// LRUEmbedder keeps recently used vectors in process memory. Sits in front of
// CachedEmbedder so hot queries never reach the KV store.
type LRUEmbedder struct {
	inner domain.Embedder
	cache *lru.Cache[string, []float32]
}

// NewLRU wraps inner with an in-process LRU of the given size.
func NewLRU(inner domain.Embedder, size int) (*LRUEmbedder, error) {
	if size <= 0 {
		size = DefaultLRUSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &LRUEmbedder{inner: inner, cache: cache}, nil
}

// Embed returns a copy of the cached vector, or delegates and remembers the result.
func (e *LRUEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if vec, ok := e.cache.Get(text); ok {
		return domain.EmbeddingResult{Embedding: clone(vec)}, nil
	}

	res, err := e.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	e.cache.Add(text, clone(res.Embedding))
	return res, nil
}

// BatchEmbed resolves hits locally and delegates the rest in one call.
func (e *LRUEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		if vec, ok := e.cache.Get(text); ok {
			out.Embeddings[i] = clone(vec)
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	res, err := domain.EmbedAll(ctx, e.inner, missTexts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	if len(res.Embeddings) != len(missTexts) {
		return domain.BatchEmbeddingResult{}, fmt.Errorf(
			"%w: got %d embeddings for %d texts", domain.ErrEmbeddingProviderError, len(res.Embeddings), len(missTexts))
	}
	for j, i := range missIdx {
		out.Embeddings[i] = res.Embeddings[j]
		e.cache.Add(texts[i], clone(res.Embeddings[j]))
	}
	out.PromptTokens = res.PromptTokens
	out.TotalTokens = res.TotalTokens
	return out, nil
}

// Len reports the number of cached vectors.
func (e *LRUEmbedder) Len() int {
	return e.cache.Len()
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
