package chi

import "time"

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	ErrorCodeBadRequest        ErrorCode = "bad_request"
	ErrorCodeUnauthorized      ErrorCode = "unauthorized"
	ErrorCodeValidationFailed  ErrorCode = "validation_failed"
	ErrorCodeInvalidWeights    ErrorCode = "invalid_weights"
	ErrorCodeDuplicateDocument ErrorCode = "duplicate_document"
	ErrorCodeVectorDimMismatch ErrorCode = "vector_dim_mismatch"
	ErrorCodeNotFound          ErrorCode = "not_found"
	ErrorCodeIndexNotReady     ErrorCode = "index_not_ready"
	ErrorCodeEmbeddingProvider ErrorCode = "embedding_provider_error"
	ErrorCodeSearchBackend     ErrorCode = "search_backend_error"
	ErrorCodeInternal          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// WeightsBody is a blend configuration.
type WeightsBody struct {
	Embedding float64 `json:"embedding"`
	Lexical   float64 `json:"lexical"`
}

// DocumentBody is a corpus record as sent and returned by the API.
type DocumentBody struct {
	ID             string            `json:"id"`
	Text           string            `json:"text"`
	Type           string            `json:"type,omitempty"`
	Code           string            `json:"code,omitempty"`
	NormalizedCode string            `json:"normalized_code,omitempty"`
	DisplayCode    string            `json:"display_code,omitempty"`
	Level          string            `json:"hierarchy_level,omitempty"`
	Description    string            `json:"description,omitempty"`
	CategoryCode   string            `json:"category_code,omitempty"`
	GroupingCode   string            `json:"grouping_code,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// SearchResultItem is one ranked hit.
type SearchResultItem struct {
	DocumentBody
	HybridScore  float64         `json:"hybrid_score"`
	DenseScore   float64         `json:"dense_score"`
	LexicalScore float64         `json:"lexical_score"`
	Distance     float64         `json:"distance"`
	Attributes   *[]DocumentBody `json:"attributes,omitempty"`
}

// SearchResponse is returned by GET /search.
type SearchResponse struct {
	Items   []SearchResultItem `json:"items"`
	Total   int                `json:"total"`
	Weights WeightsBody        `json:"weights"`
}

// TuneCase is one labeled query.
type TuneCase struct {
	Query    string `json:"query"`
	Expected string `json:"expected"`
}

// TuneRequest is the body of POST /tune.
type TuneRequest struct {
	Cases       []TuneCase `json:"cases"`
	WeightRange []float64  `json:"weight_range,omitempty"`
}

// TuneRow is the score of one candidate pair.
type TuneRow struct {
	Weights      WeightsBody `json:"weights"`
	Top1Accuracy float64     `json:"top1_accuracy"`
	Top5Accuracy float64     `json:"top5_accuracy"`
	Combined     float64     `json:"combined"`
}

// TuneResponse is returned by POST /tune.
type TuneResponse struct {
	Best      WeightsBody `json:"best"`
	BestScore float64     `json:"best_score"`
	Cases     int         `json:"cases"`
	Applied   bool        `json:"applied"`
	Rows      []TuneRow   `json:"rows"`
}

// IndexRequest is the body of POST /documents.
type IndexRequest struct {
	Documents []DocumentBody `json:"documents"`
}

// IndexResponse is returned by POST /documents.
type IndexResponse struct {
	Received    int           `json:"received"`
	Skipped     int           `json:"skipped"`
	Indexed     int           `json:"indexed"`
	TotalTokens int           `json:"total_tokens"`
	Duration    time.Duration `json:"duration_ns"`
}

// CodeResponse is returned by GET /codes/{code}.
type CodeResponse struct {
	Input          string        `json:"input"`
	NormalizedCode string        `json:"normalized_code"`
	DisplayCode    string        `json:"display_code"`
	Level          string        `json:"hierarchy_level"`
	Document       *DocumentBody `json:"document,omitempty"`
}

// DocumentListResponse is a plain list of documents.
type DocumentListResponse struct {
	Items []DocumentBody `json:"items"`
	Total int            `json:"total"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Documents int               `json:"documents"`
}
