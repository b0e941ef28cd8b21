package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	chiv5 "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tariffdex/internal/domain"
	"github.com/kailas-cloud/tariffdex/internal/domain/code"
	"github.com/kailas-cloud/tariffdex/internal/domain/document"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/filter"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/request"
	"github.com/kailas-cloud/tariffdex/internal/domain/weights"
	logpkg "github.com/kailas-cloud/tariffdex/internal/logger"
	healthuc "github.com/kailas-cloud/tariffdex/internal/usecase/health"
	tuninguc "github.com/kailas-cloud/tariffdex/internal/usecase/tuning"
)

// Defaults for Config.
const (
	DefaultMaxDocuments   = 100000
	DefaultAttributeLimit = 20
)

// Config holds request defaults taken from the search configuration.
type Config struct {
	// DocumentType restricts /search when the caller passes no type parameter.
	DocumentType string
	DefaultTopK  int
	PreferItems  bool
	// AttributeLimit caps attributes attached per hit and per code lookup.
	AttributeLimit int
	MaxDocuments   int
	// WeightRange is swept by /tune when the request carries no range.
	WeightRange []float64
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the HTTP API over the search engine.
type Server struct {
	search        Searcher
	tuner         Tuner
	indexer       Indexer
	lookup        Lookup
	health        HealthChecker
	cfg           Config
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	tuner Tuner,
	indexer Indexer,
	lookup Lookup,
	health HealthChecker,
	cfg Config,
	logger *zap.Logger,
) *Server {
	if cfg.MaxDocuments <= 0 {
		cfg.MaxDocuments = DefaultMaxDocuments
	}
	if cfg.AttributeLimit <= 0 {
		cfg.AttributeLimit = DefaultAttributeLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search:  search,
		tuner:   tuner,
		indexer: indexer,
		lookup:  lookup,
		health:  health,
		cfg:     cfg,
		logger:  logger,
	}
	// Порядок важен: ErrIndexNotReady оборачивается вместе с ErrSearchBackend.
	s.errorHandlers = []errorHandler{
		detailedHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorCodeValidationFailed),
		detailedHandler(domain.ErrInvalidWeights, http.StatusBadRequest, ErrorCodeInvalidWeights),
		detailedHandler(domain.ErrInvalidDocument, http.StatusBadRequest, ErrorCodeValidationFailed),
		detailedHandler(domain.ErrDuplicateDocument, http.StatusConflict, ErrorCodeDuplicateDocument),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, ErrorCodeVectorDimMismatch),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeEmbeddingProvider),
		sentinelHandler(domain.ErrIndexNotReady, http.StatusServiceUnavailable, ErrorCodeIndexNotReady),
		sentinelHandler(domain.ErrSearchBackend, http.StatusServiceUnavailable, ErrorCodeSearchBackend),
	}
	return s
}

// Register mounts every route on r.
func (s *Server) Register(r chiv5.Router) {
	r.Get("/search", s.Search)
	r.Get("/weights", s.GetWeights)
	r.Put("/weights", s.PutWeights)
	r.Post("/tune", s.Tune)
	r.Post("/documents", s.IndexDocuments)
	r.Get("/codes/{code}", s.GetCode)
	r.Get("/codes/{code}/attributes", s.GetCodeAttributes)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Search handles GET /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	req, err := s.searchRequest(params)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	results, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]SearchResultItem, len(results))
	for i := range results {
		items[i] = scoredToItem(&results[i])
	}

	if params.WithAttributes != nil && *params.WithAttributes && len(results) > 0 {
		enriched, err := s.lookup.Enrich(r.Context(), results, s.cfg.AttributeLimit)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		for i := range enriched {
			attrs := documentsToBody(enriched[i].Attributes)
			items[i].Attributes = &attrs
		}
	}

	applied := s.search.Weights()
	if len(results) > 0 {
		applied = results[0].Weights()
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Items:   items,
		Total:   len(items),
		Weights: weightsToBody(applied),
	})
}

func (s *Server) searchRequest(params SearchParams) (request.Request, error) {
	typ := s.cfg.DocumentType
	if params.Type != nil {
		typ = *params.Type
	}
	var f filter.Expression
	if typ != "" {
		var err error
		f, err = filter.Equals(map[string]string{document.FieldType: typ})
		if err != nil {
			return request.Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
		}
	}

	topK := s.cfg.DefaultTopK
	if params.TopK != nil {
		if *params.TopK <= 0 || *params.TopK > request.MaxTopK {
			return request.Request{}, fmt.Errorf("%w: top_k must be between 1 and %d",
				domain.ErrInvalidRequest, request.MaxTopK)
		}
		topK = *params.TopK
	}

	prefer := s.cfg.PreferItems
	if params.PreferItems != nil {
		prefer = *params.PreferItems
	}

	req, err := request.New(params.Q, f, topK, prefer)
	if err != nil {
		return request.Request{}, fmt.Errorf("build search request: %w", err)
	}

	if params.EmbeddingWeight != nil {
		w, err := weights.FromEmbedding(*params.EmbeddingWeight)
		if err != nil {
			return request.Request{}, fmt.Errorf("embedding_weight: %w", err)
		}
		req = req.WithWeights(w)
	}
	return req, nil
}

// GetWeights handles GET /weights.
func (s *Server) GetWeights(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, weightsToBody(s.search.Weights()))
}

// PutWeights handles PUT /weights.
func (s *Server) PutWeights(w http.ResponseWriter, r *http.Request) {
	var body WeightsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	wts, err := weights.New(body.Embedding, body.Lexical)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if err := s.search.SetWeights(wts); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, weightsToBody(s.search.Weights()))
}

// Tune handles POST /tune.
func (s *Server) Tune(w http.ResponseWriter, r *http.Request) {
	var body TuneRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	cases := make([]tuninguc.Case, len(body.Cases))
	for i, c := range body.Cases {
		if c.Query == "" || code.Normalize(c.Expected) == "" {
			writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
				fmt.Sprintf("case %d: query and a valid expected code are required", i))
			return
		}
		cases[i] = tuninguc.Case{Query: c.Query, Expected: c.Expected}
	}

	rng := body.WeightRange
	if len(rng) == 0 {
		rng = s.cfg.WeightRange
	}
	report, err := s.tuner.Tune(r.Context(), cases, rng)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tuneReportToBody(&report))
}

// IndexDocuments handles POST /documents. The request replaces the corpus.
func (s *Server) IndexDocuments(w http.ResponseWriter, r *http.Request) {
	var body IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(body.Documents) == 0 || len(body.Documents) > s.cfg.MaxDocuments {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
			fmt.Sprintf("documents count must be between 1 and %d", s.cfg.MaxDocuments))
		return
	}

	docs := make([]document.Document, 0, len(body.Documents))
	for i := range body.Documents {
		doc, err := documentFromBody(&body.Documents[i])
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		docs = append(docs, doc)
	}

	report, err := s.indexer.Rebuild(r.Context(), docs)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, IndexResponse{
		Received:    report.Received,
		Skipped:     report.Skipped,
		Indexed:     report.Indexed,
		TotalTokens: report.TotalTokens,
		Duration:    report.Duration,
	})
}

// GetCode handles GET /codes/{code}.
func (s *Server) GetCode(w http.ResponseWriter, r *http.Request) {
	raw, err := bindCodeParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	canonical := code.Normalize(raw)
	if canonical == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
			fmt.Sprintf("%q is not a tariff code", raw))
		return
	}

	resp := CodeResponse{
		Input:          raw,
		NormalizedCode: canonical,
		DisplayCode:    code.Format(canonical),
		Level:          string(code.DetectLevel(canonical)),
	}

	doc, err := s.lookup.Code(r.Context(), canonical)
	switch {
	case err == nil:
		body := documentToBody(&doc)
		resp.Document = &body
		resp.Level = string(doc.Level())
	case errors.Is(err, domain.ErrNotFound):
		// Код валиден, но в корпусе его нет.
	default:
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetCodeAttributes handles GET /codes/{code}/attributes.
func (s *Server) GetCodeAttributes(w http.ResponseWriter, r *http.Request) {
	raw, err := bindCodeParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	params, err := bindAttributesParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	limit := s.cfg.AttributeLimit
	if params.Limit != nil {
		if *params.Limit <= 0 {
			writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "limit must be positive")
			return
		}
		limit = *params.Limit
	}

	attrs, err := s.lookup.Attributes(r.Context(), raw, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := documentsToBody(attrs)
	writeJSON(w, http.StatusOK, DocumentListResponse{Items: items, Total: len(items)})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:    string(report.Status),
		Checks:    checks,
		Documents: report.Documents,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelHandler answers with the sentinel's own message, hiding internals.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// detailedHandler is for client errors whose message only echoes the request.
func detailedHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternal, "internal error")
}
