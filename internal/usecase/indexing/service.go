// Package indexing rebuilds the corpus: parent annotation, batch embedding,
// vector store reload and lexical index swap.
package indexing

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tariffdex/internal/domain"
	"github.com/kailas-cloud/tariffdex/internal/domain/code"
	"github.com/kailas-cloud/tariffdex/internal/domain/document"
	"github.com/kailas-cloud/tariffdex/internal/lexical"
)

// Defaults for Config.
const (
	DefaultBatchSize   = 64
	DefaultConcurrency = 4
)

// Config tunes a rebuild.
type Config struct {
	// BatchSize is the number of texts per embedding call.
	BatchSize int
	// Concurrency bounds in-flight embedding calls.
	Concurrency int
	// OnlyItems drops code records above item level.
	OnlyItems bool
}

// Report summarizes a rebuild.
type Report struct {
	Received    int
	Skipped     int
	Indexed     int
	TotalTokens int
	Duration    time.Duration
}

// Service rebuilds both indexes.
type Service struct {
	store  VectorStore
	embed  domain.Embedder
	sink   LexicalSink
	cfg    Config
	logger *zap.Logger

	mu sync.Mutex // one rebuild at a time
}

// New creates an indexing service.
func New(store VectorStore, embed domain.Embedder, sink LexicalSink, cfg Config, logger *zap.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, embed: embed, sink: sink, cfg: cfg, logger: logger}
}

// Rebuild replaces the whole corpus with docs. The vector store is only reset
// once every embedding succeeded; on failure the previous corpus stays live.
func (s *Service) Rebuild(ctx context.Context, docs []document.Document) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	rep := Report{Received: len(docs)}

	if err := checkDuplicates(docs); err != nil {
		return rep, err
	}

	// Родители считаются по всему набору, до фильтра only_items.
	kept := s.selectDocs(annotateParents(slices.Clone(docs)))
	rep.Skipped = len(docs) - len(kept)

	vectors, tokens, err := s.embedAll(ctx, kept)
	if err != nil {
		return rep, err
	}
	rep.TotalTokens = tokens

	for i := range kept {
		kept[i] = kept[i].WithVector(vectors[i])
	}

	if err := s.store.Reset(ctx); err != nil {
		return rep, fmt.Errorf("%w: reset: %w", domain.ErrSearchBackend, err)
	}
	if err := s.store.Insert(ctx, kept); err != nil {
		return rep, fmt.Errorf("%w: insert: %w", domain.ErrSearchBackend, err)
	}

	s.sink.SetLexical(lexical.Build(kept))
	rep.Indexed = len(kept)
	rep.Duration = time.Since(start)

	s.logger.Info("Corpus rebuilt",
		zap.Int("received", rep.Received),
		zap.Int("skipped", rep.Skipped),
		zap.Int("indexed", rep.Indexed),
		zap.Int("tokens", rep.TotalTokens),
		zap.Duration("duration", rep.Duration),
	)
	return rep, nil
}

// Load rebuilds only the lexical index from what the vector store already holds.
func (s *Service) Load(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.store.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: load corpus: %w", domain.ErrSearchBackend, err)
	}
	s.sink.SetLexical(lexical.Build(docs))
	s.logger.Info("Lexical index loaded", zap.Int("documents", len(docs)))
	return len(docs), nil
}

func checkDuplicates(docs []document.Document) error {
	seen := make(map[string]struct{}, len(docs))
	for i := range docs {
		id := docs[i].ID()
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: %q", domain.ErrDuplicateDocument, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (s *Service) selectDocs(docs []document.Document) []document.Document {
	out := make([]document.Document, 0, len(docs))
	for i := range docs {
		if s.cfg.OnlyItems && docs[i].Type() == document.TypeCode && docs[i].Level() != code.LevelItem {
			continue
		}
		out = append(out, docs[i])
	}
	return out
}

// annotateParents fills category/grouping references for code records from
// the codes present in this corpus. Explicit references are kept.
func annotateParents(docs []document.Document) []document.Document {
	codes := make([]string, 0, len(docs))
	for i := range docs {
		if docs[i].Type() == document.TypeCode && docs[i].NormalizedCode() != "" {
			codes = append(codes, docs[i].NormalizedCode())
		}
	}
	parents := code.BuildParents(codes)

	for i := range docs {
		p, ok := parents[docs[i].NormalizedCode()]
		if !ok || docs[i].Type() != document.TypeCode {
			continue
		}
		meta := docs[i].Metadata()
		if meta.CategoryCode != "" {
			p.Category = meta.CategoryCode
		}
		if meta.GroupingCode != "" {
			p.Grouping = meta.GroupingCode
		}
		docs[i] = docs[i].WithParents(p)
	}
	return docs
}

// embedAll embeds texts in batches on a bounded ants pool. The first error
// cancels the remaining batches.
func (s *Service) embedAll(ctx context.Context, docs []document.Document) ([][]float32, int, error) {
	vectors := make([][]float32, len(docs))
	if len(docs) == 0 {
		return vectors, 0, nil
	}

	pool, err := ants.NewPool(s.cfg.Concurrency)
	if err != nil {
		return nil, 0, fmt.Errorf("create embedding pool: %w", err)
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		tokens   int
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	for start := 0; start < len(docs); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(docs))
		texts := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			texts = append(texts, docs[i].Text())
		}

		wg.Add(1)
		offset := start
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			res, err := domain.EmbedAll(ctx, s.embed, texts)
			if err != nil {
				fail(fmt.Errorf("embed batch at %d: %w", offset, err))
				return
			}
			if len(res.Embeddings) != len(texts) {
				fail(fmt.Errorf("%w: batch at %d: got %d embeddings for %d texts",
					domain.ErrEmbeddingProviderError, offset, len(res.Embeddings), len(texts)))
				return
			}
			copy(vectors[offset:], res.Embeddings)
			mu.Lock()
			tokens += res.TotalTokens
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("submit embedding batch: %w", submitErr))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, 0, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dim {
			return nil, 0, fmt.Errorf("%w: document %q got %d dims, want %d",
				domain.ErrVectorDimMismatch, docs[i].ID(), len(v), dim)
		}
	}
	return vectors, tokens, nil
}
