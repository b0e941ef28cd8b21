package tariffdex

import "github.com/kailas-cloud/tariffdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrInvalidRequest         = domain.ErrInvalidRequest
	ErrInvalidDocument        = domain.ErrInvalidDocument
	ErrDuplicateDocument      = domain.ErrDuplicateDocument
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrInvalidWeights         = domain.ErrInvalidWeights
	ErrSearchBackend          = domain.ErrSearchBackend
	ErrIndexNotReady          = domain.ErrIndexNotReady
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)
