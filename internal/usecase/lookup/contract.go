package lookup

import (
	"context"

	"github.com/kailas-cloud/tariffdex/internal/domain/document"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/filter"
)

// MetadataFinder retrieves documents by exact metadata match.
type MetadataFinder interface {
	Find(ctx context.Context, f filter.Expression, limit int) ([]document.Document, error)
}
