package tariffdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbRedis "github.com/kailas-cloud/tariffdex/internal/db/redis"
	"github.com/kailas-cloud/tariffdex/internal/domain"
	domdoc "github.com/kailas-cloud/tariffdex/internal/domain/document"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/filter"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/request"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/result"
	"github.com/kailas-cloud/tariffdex/internal/domain/weights"
	corpusrepo "github.com/kailas-cloud/tariffdex/internal/repository/corpus"
	"github.com/kailas-cloud/tariffdex/internal/repository/memory"
	"github.com/kailas-cloud/tariffdex/internal/usecase/dense"
	healthuc "github.com/kailas-cloud/tariffdex/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/tariffdex/internal/usecase/indexing"
	lookupuc "github.com/kailas-cloud/tariffdex/internal/usecase/lookup"
	searchuc "github.com/kailas-cloud/tariffdex/internal/usecase/search"
	tuninguc "github.com/kailas-cloud/tariffdex/internal/usecase/tuning"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultVectorDimensions = 1024
	defaultKeyPrefix        = "tariffdex:"
)

// Внутренние интерфейсы для подмены в тестах.
type indexUseCase interface {
	Rebuild(ctx context.Context, docs []domdoc.Document) (indexinguc.Report, error)
	Load(ctx context.Context) (int, error)
}

type searchUseCase interface {
	Search(ctx context.Context, req *request.Request) ([]result.Scored, error)
	Weights() weights.Weights
	SetWeights(w weights.Weights) error
}

type tuneUseCase interface {
	Tune(ctx context.Context, cases []tuninguc.Case, weightRange []float64) (tuninguc.Report, error)
}

type lookupUseCase interface {
	Code(ctx context.Context, rawCode string) (domdoc.Document, error)
	Attributes(ctx context.Context, rawCode string, limit int) ([]domdoc.Document, error)
	Enrich(ctx context.Context, results []result.Scored, limit int) ([]result.Attributed, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// vectorStore is the union of what the use cases need from a backend.
type vectorStore interface {
	Reset(ctx context.Context) error
	Insert(ctx context.Context, docs []domdoc.Document) error
	All(ctx context.Context) ([]domdoc.Document, error)
	Nearest(ctx context.Context, vector []float32, k int, f filter.Expression) ([]result.Neighbor, error)
	Find(ctx context.Context, f filter.Expression, limit int) ([]domdoc.Document, error)
	Count(ctx context.Context) (int, error)
}

// Client is the tariffdex SDK entry point. Safe for concurrent use.
type Client struct {
	close     func()
	indexSvc  indexUseCase
	searchSvc searchUseCase
	tuneSvc   tuneUseCase
	lookupSvc lookupUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client. With Redis the provided context bounds the readiness
// check, and documents already stored are loaded into the lexical index.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		vectorDimensions: defaultVectorDimensions,
		keyPrefix:        defaultKeyPrefix,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.embedder == nil {
		return nil, errors.New("tariffdex: embedder required (use WithEmbedder)")
	}
	blend := weights.Default()
	if cfg.weightsSet {
		w, err := weights.New(cfg.embeddingWeight, cfg.lexicalWeight)
		if err != nil {
			return nil, fmt.Errorf("tariffdex: %w", err)
		}
		blend = w
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var (
		store  vectorStore
		pinger healthuc.DBPinger
		closer = func() {}
	)
	switch cfg.driver {
	case driverRedis:
		if len(cfg.addrs) == 0 {
			return nil, errors.New("tariffdex: redis address required")
		}
		s, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.addrs, Password: cfg.password})
		if err != nil {
			return nil, fmt.Errorf("tariffdex: create redis store: %w", err)
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("tariffdex: database not ready: %w", err)
		}
		repo := corpusrepo.New(s, corpusrepo.Config{
			KeyPrefix: cfg.keyPrefix,
			Dimension: cfg.vectorDimensions,
			HNSW:      corpusrepo.HNSWConfig{M: cfg.hnswM, EFConstruct: cfg.hnswEFConstruct},
			ExtraTags: cfg.extraTags,
		})
		if err := repo.EnsureIndex(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("tariffdex: ensure index: %w", err)
		}
		store, pinger, closer = repo, s, s.Close
	case driverMemory:
		store = memory.New()
	case "":
		return nil, errors.New("tariffdex: storage required (use WithRedis or WithMemory)")
	default:
		return nil, fmt.Errorf("tariffdex: unknown driver %q", cfg.driver)
	}

	c, err := wireClient(ctx, cfg, store, pinger, blend, obs)
	if err != nil {
		closer()
		return nil, err
	}
	c.close = closer
	return c, nil
}

func wireClient(
	ctx context.Context,
	cfg *clientConfig,
	store vectorStore,
	pinger healthuc.DBPinger,
	blend weights.Weights,
	obs *observer,
) (*Client, error) {
	emb := newEmbedderAdapter(cfg.embedder)

	searchSvc, err := searchuc.New(dense.New(store, emb), nil, blend, searchuc.WithOverfetch(cfg.overfetch))
	if err != nil {
		return nil, fmt.Errorf("tariffdex: %w", err)
	}
	indexSvc := indexinguc.New(store, emb, searchSvc, indexinguc.Config{
		BatchSize:   cfg.batchSize,
		Concurrency: cfg.concurrency,
		OnlyItems:   cfg.onlyItems,
	}, nil)
	if _, err := indexSvc.Load(ctx); err != nil {
		return nil, fmt.Errorf("tariffdex: load corpus: %w", err)
	}

	var checker healthuc.EmbeddingChecker
	if hc, ok := cfg.embedder.(interface{ HealthCheck(context.Context) error }); ok {
		checker = hc
	}

	return &Client{
		indexSvc:  indexSvc,
		searchSvc: searchSvc,
		tuneSvc:   tuninguc.New(searchSvc, filter.Expression{}, nil),
		lookupSvc: lookupuc.New(store),
		healthSvc: healthuc.New(pinger, checker, store),
		obs:       obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.close != nil {
		c.close()
	}
}

// Index replaces the whole corpus with docs. On error the previous corpus
// stays searchable.
func (c *Client) Index(ctx context.Context, docs []Document) (rep IndexReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("index", start, err, "indexed", rep.Indexed) }()

	items := make([]domdoc.Document, len(docs))
	for i := range docs {
		items[i], err = toInternalDocument(&docs[i])
		if err != nil {
			return IndexReport{}, fmt.Errorf("document %d: %w", i, err)
		}
	}

	r, err := c.indexSvc.Rebuild(ctx, items)
	rep = IndexReport{
		Received:    r.Received,
		Skipped:     r.Skipped,
		Indexed:     r.Indexed,
		TotalTokens: r.TotalTokens,
		Duration:    r.Duration,
	}
	if err != nil {
		return rep, fmt.Errorf("index: %w", err)
	}
	return rep, nil
}

// Weights returns the live blend.
func (c *Client) Weights() Weights {
	return fromInternalWeights(c.searchSvc.Weights())
}

// SetWeights replaces the live blend. The pair must sum to 1.
func (c *Client) SetWeights(w Weights) error {
	iw, err := weights.New(w.Embedding, w.Lexical)
	if err != nil {
		return fmt.Errorf("set weights: %w", err)
	}
	if err := c.searchSvc.SetWeights(iw); err != nil {
		return fmt.Errorf("set weights: %w", err)
	}
	return nil
}

// Tune sweeps the embedding weight over weightRange (nil = 0.5..0.8) and
// commits the best blend. No cases means no sweep and no change.
func (c *Client) Tune(ctx context.Context, cases []TuneCase, weightRange []float64) (rep TuneReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("tune", start, err, "cases", len(cases), "applied", rep.Applied) }()

	in := make([]tuninguc.Case, len(cases))
	for i, tc := range cases {
		in[i] = tuninguc.Case{Query: tc.Query, Expected: tc.Expected}
	}
	r, err := c.tuneSvc.Tune(ctx, in, weightRange)
	if err != nil {
		return TuneReport{}, fmt.Errorf("tune: %w", err)
	}
	return fromTuneReport(&r), nil
}

// Code returns the corpus record of a code in any accepted spelling.
func (c *Client) Code(ctx context.Context, raw string) (doc Document, err error) {
	start := time.Now()
	defer func() { c.obs.observe("code", start, err) }()

	d, err := c.lookupSvc.Code(ctx, raw)
	if err != nil {
		return Document{}, fmt.Errorf("code %q: %w", raw, err)
	}
	return fromInternalDocument(&d), nil
}

// Attributes returns the attribute records attached to a code. An invalid
// code yields an empty list.
func (c *Client) Attributes(ctx context.Context, raw string, limit int) (docs []Document, err error) {
	start := time.Now()
	defer func() { c.obs.observe("attributes", start, err, "results", len(docs)) }()

	found, err := c.lookupSvc.Attributes(ctx, raw, limit)
	if err != nil {
		return nil, fmt.Errorf("attributes %q: %w", raw, err)
	}
	return fromInternalDocuments(found), nil
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

// batchEmbedderAdapter also forwards BatchEmbed, so the indexing path keeps
// the provider's batch endpoint.
type batchEmbedderAdapter struct {
	embedderAdapter
	batch BatchEmbedder
}

func newEmbedderAdapter(e Embedder) domain.Embedder {
	a := embedderAdapter{inner: e}
	if b, ok := e.(BatchEmbedder); ok {
		return &batchEmbedderAdapter{embedderAdapter: a, batch: b}
	}
	return &a
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

func (a *batchEmbedderAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	r, err := a.batch.BatchEmbed(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}
	if len(r.Embeddings) != len(texts) {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("%w: got %d embeddings for %d texts",
			domain.ErrEmbeddingProviderError, len(r.Embeddings), len(texts))
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   r.Embeddings,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
