// Package weights holds the blend configuration of the hybrid ranker.
package weights

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/tariffdex/internal/domain"
)

// Tolerance is the allowed deviation of Embedding+Lexical from 1.
const Tolerance = 1e-3

// Default blend: dense similarity dominates, lexical matching breaks ties on
// exact terminology.
const (
	DefaultEmbedding = 0.6
	DefaultLexical   = 0.4
)

// Weights is an immutable (embedding, lexical) pair summing to 1.
type Weights struct {
	embedding float64
	lexical   float64
}

// New validates and creates a blend configuration.
func New(embedding, lexical float64) (Weights, error) {
	if math.IsNaN(embedding) || math.IsNaN(lexical) {
		return Weights{}, fmt.Errorf("%w: NaN weight", domain.ErrInvalidWeights)
	}
	if embedding < 0 || embedding > 1 || lexical < 0 || lexical > 1 {
		return Weights{}, fmt.Errorf("%w: weights must be within [0,1], got (%g, %g)",
			domain.ErrInvalidWeights, embedding, lexical)
	}
	if math.Abs(embedding+lexical-1) > Tolerance {
		return Weights{}, &domain.WeightSumError{Embedding: embedding, Lexical: lexical}
	}
	return Weights{embedding: embedding, lexical: lexical}, nil
}

// FromEmbedding derives the pair (w, 1-w).
func FromEmbedding(w float64) (Weights, error) {
	return New(w, 1-w)
}

// Default returns the stock 0.6 / 0.4 blend.
func Default() Weights {
	return Weights{embedding: DefaultEmbedding, lexical: DefaultLexical}
}

// Embedding returns the dense similarity weight.
func (w Weights) Embedding() float64 { return w.embedding }

// Lexical returns the lexical score weight.
func (w Weights) Lexical() float64 { return w.lexical }

// IsZero reports whether w is the unset zero value.
func (w Weights) IsZero() bool { return w.embedding == 0 && w.lexical == 0 }

// Blend combines a dense similarity and a normalized lexical score.
func (w Weights) Blend(dense, lexical float64) float64 {
	return w.embedding*dense + w.lexical*lexical
}

func (w Weights) String() string {
	return fmt.Sprintf("embedding=%.2f lexical=%.2f", w.embedding, w.lexical)
}
