package tariffdex

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

const (
	driverRedis  = "redis"
	driverMemory = "memory"
)

type clientConfig struct {
	driver   string // "redis" or "memory"
	addrs    []string
	password string

	embedder Embedder

	vectorDimensions int
	hnswM            int
	hnswEFConstruct  int
	keyPrefix        string
	extraTags        []string

	embeddingWeight float64
	lexicalWeight   float64
	weightsSet      bool
	overfetch       int

	batchSize   int
	concurrency int
	onlyItems   bool

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis stores the corpus in Redis 8+ (or Valkey with valkey-search)
// under an HNSW index.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithMemory keeps the corpus in process memory. Nothing survives Close.
func WithMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverMemory
		c.addrs = nil
	})
}

// WithEmbedder sets the text embedding provider. Required.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithVectorDimensions sets the vector dimension of the Redis index.
// Defaults to 1024 (Qwen3-Embedding-8B).
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Defaults: M=32, EFConstruct=400.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithKeyPrefix namespaces Redis keys and the index name. Default "tariffdex:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithExtraTags indexes additional metadata fields for exact-match filtering.
func WithExtraTags(fields ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.extraTags = append(c.extraTags, fields...)
	})
}

// WithWeights sets the initial blend. The pair must sum to 1; New fails otherwise.
// Default: 0.6 embedding, 0.4 lexical.
func WithWeights(embedding, lexical float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.embeddingWeight = embedding
		c.lexicalWeight = lexical
		c.weightsSet = true
	})
}

// WithOverfetch sets how many candidates per side are fetched for each
// requested result. Default 3.
func WithOverfetch(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.overfetch = n
	})
}

// WithIndexing tunes Index: texts per embedding call and in-flight calls.
func WithIndexing(batchSize, concurrency int) Option {
	return optionFunc(func(c *clientConfig) {
		c.batchSize = batchSize
		c.concurrency = concurrency
	})
}

// WithOnlyItems drops category, grouping and subgrouping records at index time.
func WithOnlyItems() Option {
	return optionFunc(func(c *clientConfig) {
		c.onlyItems = true
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
