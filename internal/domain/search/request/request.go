package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/tariffdex/internal/domain"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/filter"
	"github.com/kailas-cloud/tariffdex/internal/domain/weights"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultTopK    = 10
	MaxTopK        = 500
)

// Request is a validated hybrid search query.
type Request struct {
	query       string
	filters     filter.Expression
	topK        int
	preferItems bool
	weights     weights.Weights
}

// New validates and normalizes search parameters. topK=0 means DefaultTopK;
// values above MaxTopK are clamped.
func New(query string, filters filter.Expression, topK int, preferItems bool) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidRequest, MaxQueryLength)
	}
	if topK < 0 {
		return Request{}, fmt.Errorf("%w: top_k must be positive", domain.ErrInvalidRequest)
	}
	if topK == 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	return Request{query: query, filters: filters, topK: topK, preferItems: preferItems}, nil
}

// WithWeights returns a copy that blends with w instead of the live configuration.
func (r Request) WithWeights(w weights.Weights) Request {
	r.weights = w
	return r
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Filters returns the metadata pre-filter.
func (r *Request) Filters() filter.Expression { return r.filters }

// TopK returns the number of results to return.
func (r *Request) TopK() int { return r.topK }

// PreferItems reports whether item-level codes should be moved to the front.
func (r *Request) PreferItems() bool { return r.preferItems }

// Weights returns the per-call blend override; ok is false when none is set.
func (r *Request) Weights() (w weights.Weights, ok bool) {
	return r.weights, !r.weights.IsZero()
}
