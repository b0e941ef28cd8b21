package tariffdex

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/tariffdex/internal/domain/search/filter"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/request"
	"github.com/kailas-cloud/tariffdex/internal/domain/weights"
)

// SearchOption configures a single Search call.
type SearchOption func(*searchConfig)

type searchConfig struct {
	topK            int
	preferItems     bool
	match           map[string]string
	attributeLimit  int
	embeddingWeight *float64
}

// WithTopK sets the number of results (default 10, max 500).
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) { c.topK = k }
}

// WithPreferItems moves item-level codes ahead of structural records,
// keeping score order within each level.
func WithPreferItems() SearchOption {
	return func(c *searchConfig) { c.preferItems = true }
}

// WithMatch restricts results to documents whose metadata field equals value.
// Repeated calls are ANDed.
func WithMatch(field, value string) SearchOption {
	return func(c *searchConfig) {
		if c.match == nil {
			c.match = make(map[string]string)
		}
		c.match[field] = value
	}
}

// WithType restricts results to one document type, e.g. TypeCode.
func WithType(docType string) SearchOption {
	return WithMatch("type", docType)
}

// WithAttributes attaches up to limit attribute records to every hit.
func WithAttributes(limit int) SearchOption {
	return func(c *searchConfig) { c.attributeLimit = limit }
}

// WithEmbeddingWeight overrides the live blend for this call only; the
// lexical weight is 1 - w.
func WithEmbeddingWeight(w float64) SearchOption {
	return func(c *searchConfig) { c.embeddingWeight = &w }
}

// Search runs a hybrid query.
func (c *Client) Search(ctx context.Context, query string, opts ...SearchOption) (out []SearchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err, "results", len(out)) }()

	var sc searchConfig
	for _, o := range opts {
		o(&sc)
	}

	req, err := buildRequest(query, &sc)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits, err := c.searchSvc.Search(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	if sc.attributeLimit <= 0 {
		out = make([]SearchResult, len(hits))
		for i := range hits {
			out[i] = fromScored(&hits[i])
		}
		return out, nil
	}

	enriched, err := c.lookupSvc.Enrich(ctx, hits, sc.attributeLimit)
	if err != nil {
		return nil, fmt.Errorf("search: attributes: %w", err)
	}
	out = make([]SearchResult, len(enriched))
	for i := range enriched {
		out[i] = fromScored(&enriched[i].Scored)
		out[i].Attributes = fromInternalDocuments(enriched[i].Attributes)
	}
	return out, nil
}

func buildRequest(query string, sc *searchConfig) (request.Request, error) {
	var f filter.Expression
	if len(sc.match) > 0 {
		var err error
		if f, err = filter.Equals(sc.match); err != nil {
			return request.Request{}, fmt.Errorf("filter: %w", err)
		}
	}

	req, err := request.New(query, f, sc.topK, sc.preferItems)
	if err != nil {
		return request.Request{}, err //nolint:wrapcheck // wrapped by caller
	}
	if sc.embeddingWeight != nil {
		w, err := weights.FromEmbedding(*sc.embeddingWeight)
		if err != nil {
			return request.Request{}, err //nolint:wrapcheck // wrapped by caller
		}
		req = req.WithWeights(w)
	}
	return req, nil
}
