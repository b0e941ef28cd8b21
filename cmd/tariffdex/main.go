package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tariffdex/internal/config"
	dbBadger "github.com/kailas-cloud/tariffdex/internal/db/badger"
	dbRedis "github.com/kailas-cloud/tariffdex/internal/db/redis"
	"github.com/kailas-cloud/tariffdex/internal/domain"
	"github.com/kailas-cloud/tariffdex/internal/domain/document"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/filter"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/result"
	"github.com/kailas-cloud/tariffdex/internal/domain/weights"
	logpkg "github.com/kailas-cloud/tariffdex/internal/logger"
	"github.com/kailas-cloud/tariffdex/internal/metrics"
	"github.com/kailas-cloud/tariffdex/internal/repository/corpus"
	"github.com/kailas-cloud/tariffdex/internal/repository/embcache"
	"github.com/kailas-cloud/tariffdex/internal/repository/memory"
	chiTransport "github.com/kailas-cloud/tariffdex/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/tariffdex/internal/transport/openai"
	"github.com/kailas-cloud/tariffdex/internal/usecase/dense"
	embeddinguc "github.com/kailas-cloud/tariffdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/tariffdex/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/tariffdex/internal/usecase/indexing"
	lookupuc "github.com/kailas-cloud/tariffdex/internal/usecase/lookup"
	searchuc "github.com/kailas-cloud/tariffdex/internal/usecase/search"
	tuninguc "github.com/kailas-cloud/tariffdex/internal/usecase/tuning"
	"github.com/kailas-cloud/tariffdex/internal/version"
)

// vectorStore is everything the composition root needs from a backend.
type vectorStore interface {
	Reset(ctx context.Context) error
	Insert(ctx context.Context, docs []document.Document) error
	All(ctx context.Context) ([]document.Document, error)
	Nearest(ctx context.Context, vector []float32, k int, f filter.Expression) ([]result.Neighbor, error)
	Find(ctx context.Context, f filter.Expression, limit int) ([]document.Document, error)
	Count(ctx context.Context) (int, error)
}

// kvStore backs the persistent embedding cache.
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting tariffdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	ctx := context.Background()

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	var (
		vecstore vectorStore
		pinger   healthuc.DBPinger
		redisKV  kvStore
	)
	switch cfg.Database.Driver {
	case config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database")

		repo := corpus.New(store, corpus.Config{
			KeyPrefix: cfg.Storage.KeyPrefix,
			Dimension: cfg.Embedding.Dimensions,
			HNSW: corpus.HNSWConfig{
				M:           cfg.Index.HNSWM,
				EFConstruct: cfg.Index.HNSWEFConstruct,
			},
			ExtraTags: cfg.Index.ExtraTags,
		})
		if err := repo.EnsureIndex(ctx); err != nil {
			logger.Fatal("Failed to create search index", zap.Error(err))
		}
		vecstore, pinger, redisKV = repo, store, store
	case config.DriverMemory:
		vecstore = memory.New()
		logger.Warn("Using in-process vector store, corpus is lost on restart")
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}

	// Persistent embedding cache, shared by document and query chains
	var cacheKV kvStore
	switch cfg.Embedding.Cache.Backend {
	case config.CacheRedis:
		cacheKV = redisKV
	case config.CacheBadger:
		kv, err := dbBadger.Open(cfg.Embedding.Cache.Dir, logger)
		if err != nil {
			logger.Fatal("Failed to open embedding cache", zap.String("dir", cfg.Embedding.Cache.Dir), zap.Error(err))
		}
		defer func() { _ = kv.Close() }()
		cacheKV = kv
	}

	// Base provider (with transport metrics built-in), shared by both chains
	provider := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.Providers[cfg.Embedding.Provider].APIKey,
		BaseURL:    cfg.Embedding.Providers[cfg.Embedding.Provider].BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	docEmbedder, err := buildEmbedder(&cfg, provider, cfg.Embedding.DocumentInstruction, cacheKV, logger)
	if err != nil {
		logger.Fatal("Failed to build document embedder", zap.Error(err))
	}
	queryEmbedder, err := buildEmbedder(&cfg, provider, cfg.Embedding.QueryInstruction, cacheKV, logger)
	if err != nil {
		logger.Fatal("Failed to build query embedder", zap.Error(err))
	}
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("cache", cfg.Embedding.Cache.Backend),
	)

	// Engine
	blend, err := weights.New(cfg.Search.EmbeddingWeight, cfg.Search.LexicalWeight)
	if err != nil {
		logger.Fatal("Invalid blend weights", zap.Error(err))
	}
	searchSvc, err := searchuc.New(dense.New(vecstore, queryEmbedder), nil, blend,
		searchuc.WithOverfetch(cfg.Search.Overfetch),
		searchuc.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal("Failed to create search service", zap.Error(err))
	}

	indexSvc := indexinguc.New(vecstore, docEmbedder, searchSvc, indexinguc.Config{
		BatchSize:   cfg.Index.BatchSize,
		Concurrency: cfg.Index.Concurrency,
		OnlyItems:   cfg.Index.OnlyItems,
	}, logger)
	n, err := indexSvc.Load(ctx)
	if err != nil {
		// Пустой или недоступный индекс не мешает старту: POST /documents пересоберёт.
		logger.Warn("Lexical index not loaded", zap.Error(err))
	} else {
		logger.Info("Lexical index loaded", zap.Int("documents", n))
	}

	tuneFilter, err := typeFilter(cfg.Search.DocumentType)
	if err != nil {
		logger.Fatal("Invalid document type filter", zap.Error(err))
	}
	tuneSvc := tuninguc.New(searchSvc, tuneFilter, logger)
	lookupSvc := lookupuc.New(vecstore)

	healthSvc := healthuc.New(pinger, provider, vecstore)

	server := chiTransport.NewServer(searchSvc, tuneSvc, indexSvc, lookupSvc, healthSvc, chiTransport.Config{
		DocumentType:   cfg.Search.DocumentType,
		DefaultTopK:    cfg.Search.DefaultTopK,
		PreferItems:    cfg.Search.PreferItems,
		AttributeLimit: cfg.Search.AttributeLimit,
		MaxDocuments:   cfg.Index.MaxDocuments,
		WeightRange:    cfg.Tuning.WeightRange,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func typeFilter(docType string) (filter.Expression, error) {
	if docType == "" {
		return filter.Expression{}, nil
	}
	f, err := filter.Equals(map[string]string{document.FieldType: docType})
	if err != nil {
		return filter.Expression{}, fmt.Errorf("type filter: %w", err)
	}
	return f, nil
}

// buildEmbedder assembles the decorator chain:
// OpenAI -> Cached (KV) -> LRU -> Instrumented -> Instruction.
func buildEmbedder(
	cfg *config.Config,
	base domain.Embedder,
	instruction string,
	kv kvStore,
	logger *zap.Logger,
) (domain.Embedder, error) {
	embedder := base

	if kv != nil {
		embedder = embcache.New(embedder, kv, metrics.EmbeddingCacheTotal, logger,
			embcache.WithModel(cfg.Embedding.Model),
			embcache.WithKeyPrefix(cfg.Storage.KeyPrefix+"emb:"),
			embcache.WithTTL(time.Duration(cfg.Embedding.Cache.TTLSec)*time.Second),
		)
	}

	if cfg.Embedding.LRUSize >= 0 {
		lru, err := embcache.NewLRU(embedder, cfg.Embedding.LRUSize)
		if err != nil {
			return nil, fmt.Errorf("lru embedder: %w", err)
		}
		embedder = lru
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(
		embedder, cfg.Embedding.Provider, cfg.Embedding.Model, logger,
		embeddinguc.WithMaxBatchSize(cfg.Embedding.MaxBatchSize),
	)

	// Instruction prefix (outermost — cache key includes instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction), nil
	}
	return embedder, nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.ErrorCodeInternal,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			}
			if q := r.URL.Query().Get("q"); q != "" {
				fields = append(fields, zap.Int("query_len", len(q)))
			}
			reqLogger.Info("http_request", fields...)
		})
	}
}
