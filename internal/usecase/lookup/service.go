// Package lookup retrieves attribute records attached to a code.
package lookup

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/tariffdex/internal/domain"
	"github.com/kailas-cloud/tariffdex/internal/domain/code"
	"github.com/kailas-cloud/tariffdex/internal/domain/document"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/filter"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/result"
)

// DefaultLimit caps attribute records per code when the caller passes zero.
const DefaultLimit = 50

const enrichParallelism = 8

// Service answers attribute lookups.
type Service struct {
	finder MetadataFinder
}

// New creates a lookup service.
func New(finder MetadataFinder) *Service {
	return &Service{finder: finder}
}

// Attributes returns the attribute records of rawCode in corpus order.
// An empty or unparseable code yields an empty list.
func (s *Service) Attributes(ctx context.Context, rawCode string, limit int) ([]document.Document, error) {
	canonical := code.Normalize(rawCode)
	if canonical == "" {
		return []document.Document{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	f, err := filter.Equals(map[string]string{
		document.FieldType:      document.TypeAttribute,
		document.ExtraOwnerCode: canonical,
	})
	if err != nil {
		return nil, fmt.Errorf("build attribute filter: %w", err)
	}

	docs, err := s.finder.Find(ctx, f, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: find attributes of %s: %w", domain.ErrSearchBackend, canonical, err)
	}
	if docs == nil {
		docs = []document.Document{}
	}
	return docs, nil
}

// Code returns the code record for rawCode. Unparseable input wraps
// domain.ErrInvalidRequest; a code absent from the corpus wraps domain.ErrNotFound.
func (s *Service) Code(ctx context.Context, rawCode string) (document.Document, error) {
	canonical := code.Normalize(rawCode)
	if canonical == "" {
		return document.Document{}, fmt.Errorf("%w: %q is not a tariff code", domain.ErrInvalidRequest, rawCode)
	}

	f, err := filter.Equals(map[string]string{
		document.FieldType:           document.TypeCode,
		document.FieldNormalizedCode: canonical,
	})
	if err != nil {
		return document.Document{}, fmt.Errorf("build code filter: %w", err)
	}

	docs, err := s.finder.Find(ctx, f, 1)
	if err != nil {
		return document.Document{}, fmt.Errorf("%w: find code %s: %w", domain.ErrSearchBackend, canonical, err)
	}
	if len(docs) == 0 {
		return document.Document{}, fmt.Errorf("code %s: %w", canonical, domain.ErrNotFound)
	}
	return docs[0], nil
}

// Enrich attaches the attribute records of each hit's code. Hits without a
// code get an empty list. Order of results is preserved.
func (s *Service) Enrich(ctx context.Context, results []result.Scored, limit int) ([]result.Attributed, error) {
	out := make([]result.Attributed, len(results))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichParallelism)
	for i := range results {
		out[i].Scored = results[i]
		nc := results[i].Document()
		canonical := nc.NormalizedCode()
		if canonical == "" {
			out[i].Attributes = []document.Document{}
			continue
		}
		g.Go(func() error {
			attrs, err := s.Attributes(ctx, canonical, limit)
			if err != nil {
				return err
			}
			out[i].Attributes = attrs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
