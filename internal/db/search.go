package db

import "github.com/kailas-cloud/tariffdex/internal/domain/search/filter"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string // defaults to "vector"
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// FilterQuery is the input for exact-match metadata retrieval without a vector.
type FilterQuery struct {
	IndexName    string
	Filters      filter.Expression
	Offset       int
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit. For KNN queries Score is the raw
// vector distance reported by the engine (smaller is closer).
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
