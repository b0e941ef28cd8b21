package indexing

import (
	"context"

	"github.com/kailas-cloud/tariffdex/internal/domain/document"
	"github.com/kailas-cloud/tariffdex/internal/lexical"
)

// VectorStore is the write side of the vector store.
type VectorStore interface {
	Reset(ctx context.Context) error
	Insert(ctx context.Context, docs []document.Document) error
	All(ctx context.Context) ([]document.Document, error)
}

// LexicalSink receives freshly built lexical indexes.
type LexicalSink interface {
	SetLexical(idx *lexical.Index)
}
