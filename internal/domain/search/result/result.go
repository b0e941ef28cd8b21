// Package result holds transient ranking output. Nothing here is persisted.
package result

import (
	"github.com/kailas-cloud/tariffdex/internal/domain/document"
	"github.com/kailas-cloud/tariffdex/internal/domain/weights"
)

// MissingDistance is reported for documents the dense side did not return.
const MissingDistance = 1.0

// Neighbor is a vector store hit. Distance is non-negative; smaller is closer.
type Neighbor struct {
	Document document.Document
	Distance float64
}

// Scored is one hybrid search hit with every score that produced it.
type Scored struct {
	doc      document.Document
	lexical  float64
	dense    float64
	distance float64
	weights  weights.Weights
	hybrid   float64
}

// New creates a scored result; the hybrid score is computed from w.
func New(doc document.Document, lexical, dense, distance float64, w weights.Weights) Scored {
	return Scored{
		doc:      doc,
		lexical:  lexical,
		dense:    dense,
		distance: distance,
		weights:  w,
		hybrid:   w.Blend(dense, lexical),
	}
}

// ID returns the document identifier.
func (s *Scored) ID() string { return s.doc.ID() }

// Document returns the matched document.
func (s *Scored) Document() document.Document { return s.doc }

// LexicalScore returns the per-query normalized lexical score in [0,1].
func (s *Scored) LexicalScore() float64 { return s.lexical }

// DenseScore returns the similarity in [0,1] derived from distance.
func (s *Scored) DenseScore() float64 { return s.dense }

// Distance returns the raw vector distance, MissingDistance when the dense side missed.
func (s *Scored) Distance() float64 { return s.distance }

// Weights returns the blend used for this hit.
func (s *Scored) Weights() weights.Weights { return s.weights }

// HybridScore returns the blended score.
func (s *Scored) HybridScore() float64 { return s.hybrid }

// Attributed pairs a hit with the attribute records of its code.
type Attributed struct {
	Scored
	Attributes []document.Document
}
