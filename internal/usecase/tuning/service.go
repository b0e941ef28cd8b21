// Package tuning grid-searches the embedding/lexical blend against labeled
// queries and commits the best pair.
package tuning

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tariffdex/internal/domain"
	"github.com/kailas-cloud/tariffdex/internal/domain/code"
	"github.com/kailas-cloud/tariffdex/internal/domain/document"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/filter"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/request"
	"github.com/kailas-cloud/tariffdex/internal/domain/weights"
	"github.com/kailas-cloud/tariffdex/internal/metrics"
)

const (
	// TopK is the result depth evaluated per case.
	TopK = 5
	// PrefixLen is how many code digits must agree for a match.
	PrefixLen = 4

	top1Weight = 0.7
	top5Weight = 0.3
)

// DefaultRange is the embedding-weight grid used when none is given.
var DefaultRange = []float64{0.5, 0.6, 0.7, 0.8}

// Case is one labeled query.
type Case struct {
	Query    string
	Expected string
}

// Row is the score of one candidate weight pair.
type Row struct {
	Weights      weights.Weights
	Top1Accuracy float64
	Top5Accuracy float64
	Combined     float64
}

// Report summarizes a sweep. Best is the zero value when no cases were given.
type Report struct {
	Best      weights.Weights
	BestScore float64
	Rows      []Row
	Cases     int
	Applied   bool
}

// Service runs weight sweeps.
type Service struct {
	combiner Combiner
	filters  filter.Expression
	logger   *zap.Logger
}

// New creates a tuner. filters is applied to every evaluation query.
func New(c Combiner, filters filter.Expression, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{combiner: c, filters: filters, logger: logger}
}

// Tune evaluates every candidate embedding weight in weightRange (DefaultRange
// when empty) and commits the winner. Every candidate runs as a per-call
// override, so concurrent searches keep seeing the live weights. A search
// error aborts the sweep with the live weights untouched.
func (s *Service) Tune(ctx context.Context, cases []Case, weightRange []float64) (Report, error) {
	if len(cases) == 0 {
		return Report{}, nil
	}
	if len(weightRange) == 0 {
		weightRange = DefaultRange
	}

	candidates := make([]weights.Weights, 0, len(weightRange))
	for _, v := range weightRange {
		w, err := weights.FromEmbedding(v)
		if err != nil {
			return Report{}, fmt.Errorf("candidate %v: %w", v, err)
		}
		candidates = append(candidates, w)
	}

	original := s.combiner.Weights()
	rep := Report{Cases: len(cases), Rows: make([]Row, 0, len(candidates))}
	bestIdx := -1

	for _, w := range candidates {
		row, err := s.evaluate(ctx, cases, w)
		if err != nil {
			metrics.TuningRunsTotal.WithLabelValues("error").Inc()
			return Report{}, err
		}
		rep.Rows = append(rep.Rows, row)

		s.logger.Debug("Tuning candidate evaluated",
			zap.Stringer("weights", w),
			zap.Float64("top1", row.Top1Accuracy),
			zap.Float64("top5", row.Top5Accuracy),
			zap.Float64("combined", row.Combined),
		)

		if bestIdx < 0 || row.Combined > rep.Rows[bestIdx].Combined {
			bestIdx = len(rep.Rows) - 1
		}
	}

	rep.Best = rep.Rows[bestIdx].Weights
	rep.BestScore = rep.Rows[bestIdx].Combined

	if err := s.combiner.SetWeights(original); err != nil {
		metrics.TuningRunsTotal.WithLabelValues("error").Inc()
		return rep, fmt.Errorf("restore weights: %w", err)
	}
	if err := s.combiner.SetWeights(rep.Best); err != nil {
		metrics.TuningRunsTotal.WithLabelValues("error").Inc()
		return rep, fmt.Errorf("apply best weights: %w", err)
	}
	rep.Applied = true
	metrics.TuningRunsTotal.WithLabelValues("ok").Inc()

	s.logger.Info("Weights tuned",
		zap.Stringer("best", rep.Best),
		zap.Float64("score", rep.BestScore),
		zap.Int("cases", len(cases)),
		zap.Int("candidates", len(candidates)),
	)
	return rep, nil
}

func (s *Service) evaluate(ctx context.Context, cases []Case, w weights.Weights) (Row, error) {
	var top1, top5 int
	for _, c := range cases {
		req, err := request.New(c.Query, s.filters, TopK, false)
		if err != nil {
			return Row{}, fmt.Errorf("%w: case %q: %w", domain.ErrInvalidRequest, c.Query, err)
		}
		req = req.WithWeights(w)

		results, err := s.combiner.Search(ctx, &req)
		if err != nil {
			return Row{}, fmt.Errorf("evaluate %s on %q: %w", w, c.Query, err)
		}

		want := code.Prefix(c.Expected, PrefixLen)
		for i := range results {
			doc := results[i].Document()
			if !samePrefix(code.Prefix(docCode(&doc), PrefixLen), want) {
				continue
			}
			if i == 0 {
				top1++
			}
			top5++
			break
		}
	}

	n := float64(len(cases))
	row := Row{
		Weights:      w,
		Top1Accuracy: float64(top1) / n * 100,
		Top5Accuracy: float64(top5) / n * 100,
	}
	row.Combined = top1Weight*row.Top1Accuracy + top5Weight*row.Top5Accuracy
	return row, nil
}

func docCode(d *document.Document) string {
	if c := d.Code(); c != "" {
		return c
	}
	return d.NormalizedCode()
}

func samePrefix(got, want string) bool {
	return want != "" && got == want
}
