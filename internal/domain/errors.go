package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals a malformed search or tuning request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidDocument signals a document that fails validation.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrDuplicateDocument signals two documents sharing an id in one corpus.
	ErrDuplicateDocument = errors.New("duplicate document id")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidWeights signals a blend configuration whose weights do not sum to 1.
	ErrInvalidWeights = errors.New("invalid blend weights")
	// ErrSearchBackend signals that the vector store failed to answer a query.
	ErrSearchBackend = errors.New("search backend error")
	// ErrIndexNotReady signals that the corpus has not been indexed yet.
	ErrIndexNotReady = errors.New("index not ready")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// WeightSumError wraps ErrInvalidWeights with the offending pair.
type WeightSumError struct {
	Embedding float64
	Lexical   float64
}

func (e *WeightSumError) Error() string {
	return fmt.Sprintf("%s: embedding %.4f + lexical %.4f = %.4f, want 1",
		ErrInvalidWeights.Error(), e.Embedding, e.Lexical, e.Embedding+e.Lexical)
}

func (e *WeightSumError) Unwrap() error { return ErrInvalidWeights }
