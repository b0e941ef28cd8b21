package chi

import (
	"context"

	"github.com/kailas-cloud/tariffdex/internal/domain/document"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/request"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/result"
	"github.com/kailas-cloud/tariffdex/internal/domain/weights"
	healthuc "github.com/kailas-cloud/tariffdex/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/tariffdex/internal/usecase/indexing"
	tuninguc "github.com/kailas-cloud/tariffdex/internal/usecase/tuning"
)

// Searcher is the hybrid combiner.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) ([]result.Scored, error)
	Weights() weights.Weights
	SetWeights(w weights.Weights) error
}

// Tuner runs weight sweeps.
type Tuner interface {
	Tune(ctx context.Context, cases []tuninguc.Case, weightRange []float64) (tuninguc.Report, error)
}

// Indexer replaces the corpus.
type Indexer interface {
	Rebuild(ctx context.Context, docs []document.Document) (indexinguc.Report, error)
}

// Lookup answers code and attribute queries.
type Lookup interface {
	Code(ctx context.Context, rawCode string) (document.Document, error)
	Attributes(ctx context.Context, rawCode string, limit int) ([]document.Document, error)
	Enrich(ctx context.Context, results []result.Scored, limit int) ([]result.Attributed, error)
}

// HealthChecker aggregates component checks.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
