package search

import (
	"context"

	"github.com/kailas-cloud/tariffdex/internal/domain/search/filter"
	"github.com/kailas-cloud/tariffdex/internal/usecase/dense"
)

// DenseSearcher answers semantic queries.
type DenseSearcher interface {
	Query(ctx context.Context, text string, k int, f filter.Expression) ([]dense.Hit, error)
}
