package tuning

import (
	"context"

	"github.com/kailas-cloud/tariffdex/internal/domain/search/request"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/result"
	"github.com/kailas-cloud/tariffdex/internal/domain/weights"
)

// Combiner is the part of the hybrid search service the tuner drives.
type Combiner interface {
	Search(ctx context.Context, req *request.Request) ([]result.Scored, error)
	Weights() weights.Weights
	SetWeights(w weights.Weights) error
}
