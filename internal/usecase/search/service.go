package search

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/tariffdex/internal/domain/search/request"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/result"
	"github.com/kailas-cloud/tariffdex/internal/domain/weights"
	"github.com/kailas-cloud/tariffdex/internal/lexical"
	"github.com/kailas-cloud/tariffdex/internal/metrics"
	"github.com/kailas-cloud/tariffdex/internal/usecase/dense"
)

// DefaultOverfetch multiplies top-k for each side before blending.
const DefaultOverfetch = 3

// Service is the hybrid combiner: dense and lexical candidates blended by
// the live weights, optionally re-prioritized by hierarchy level.
type Service struct {
	dense     DenseSearcher
	lexical   atomic.Pointer[lexical.Index]
	weights   atomic.Pointer[weights.Weights]
	overfetch int
	logger    *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithOverfetch sets the candidate multiplier (values below 1 are ignored).
func WithOverfetch(n int) Option {
	return func(s *Service) {
		if n >= 1 {
			s.overfetch = n
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a combiner. Invalid weights fail fast with ErrInvalidWeights.
// A nil lexical index behaves as an empty one until SetLexical is called.
func New(d DenseSearcher, lex *lexical.Index, w weights.Weights, opts ...Option) (*Service, error) {
	if _, err := weights.New(w.Embedding(), w.Lexical()); err != nil {
		return nil, err
	}

	s := &Service{dense: d, overfetch: DefaultOverfetch, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	s.lexical.Store(lex)
	s.storeWeights(w)
	return s, nil
}

// Weights returns a consistent snapshot of the live blend configuration.
func (s *Service) Weights() weights.Weights {
	return *s.weights.Load()
}

// SetWeights validates w and atomically replaces the live configuration.
func (s *Service) SetWeights(w weights.Weights) error {
	if _, err := weights.New(w.Embedding(), w.Lexical()); err != nil {
		return err
	}
	s.storeWeights(w)
	s.logger.Info("Blend weights updated", zap.Stringer("weights", w))
	return nil
}

// SetLexical swaps in a freshly built lexical index.
func (s *Service) SetLexical(idx *lexical.Index) {
	s.lexical.Store(idx)
	n := 0
	if idx != nil {
		n = idx.Len()
	}
	metrics.IndexedDocuments.Set(float64(n))
}

// Search runs both sides concurrently, blends, sorts, truncates and
// optionally re-ranks. Either side failing fails the whole query.
func (s *Service) Search(ctx context.Context, req *request.Request) ([]result.Scored, error) {
	start := time.Now()
	out, err := s.search(ctx, req)
	metrics.SearchStageDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()
	return out, nil
}

func (s *Service) search(ctx context.Context, req *request.Request) ([]result.Scored, error) {
	w := s.Weights()
	if override, ok := req.Weights(); ok {
		if _, err := weights.New(override.Embedding(), override.Lexical()); err != nil {
			return nil, err
		}
		w = override
	}

	k := req.TopK() * s.overfetch
	lex := s.lexical.Load()

	var denseHits []dense.Hit
	var lexHits []lexical.Hit

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t := time.Now()
		hits, err := s.dense.Query(gctx, req.Query(), k, req.Filters())
		metrics.SearchStageDuration.WithLabelValues("dense").Observe(time.Since(t).Seconds())
		if err != nil {
			return fmt.Errorf("dense search: %w", err)
		}
		denseHits = hits
		return nil
	})
	g.Go(func() error {
		if lex == nil {
			return nil
		}
		t := time.Now()
		lexHits = lex.Query(req.Query(), k)
		metrics.SearchStageDuration.WithLabelValues("lexical").Observe(time.Since(t).Seconds())
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("Hybrid search failed", zap.String("query", req.Query()), zap.Error(err))
		return nil, err
	}

	metrics.SearchCandidates.WithLabelValues("dense").Observe(float64(len(denseHits)))
	metrics.SearchCandidates.WithLabelValues("lexical").Observe(float64(len(lexHits)))

	scored := blend(denseHits, filterLexical(lexHits, req), w)
	if len(scored) > req.TopK() {
		scored = scored[:req.TopK()]
	}
	if req.PreferItems() {
		scored = Reprioritize(scored, true)
	}

	s.logger.Debug("Hybrid search completed",
		zap.String("query", req.Query()),
		zap.Int("dense", len(denseHits)),
		zap.Int("lexical", len(lexHits)),
		zap.Int("results", len(scored)),
		zap.Stringer("weights", w),
	)
	return scored, nil
}

func (s *Service) storeWeights(w weights.Weights) {
	s.weights.Store(&w)
	metrics.BlendWeight.WithLabelValues("embedding").Set(w.Embedding())
	metrics.BlendWeight.WithLabelValues("lexical").Set(w.Lexical())
}
