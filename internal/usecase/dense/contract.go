package dense

import (
	"context"

	"github.com/kailas-cloud/tariffdex/internal/domain"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/filter"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/result"
)

// VectorStore is the nearest-neighbor contract of the vector store.
type VectorStore interface {
	Nearest(ctx context.Context, vector []float32, k int, f filter.Expression) ([]result.Neighbor, error)
}

// Embedder vectorizes query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
