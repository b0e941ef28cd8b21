package tariffdex

import "time"

// Document types understood by the engine.
const (
	TypeCode      = "ncm"
	TypeAttribute = "attribute"
)

// ExtraOwnerCode is the Extra key holding the code an attribute record belongs to.
const ExtraOwnerCode = "ncm_code"

// Level is the depth of a code in the hierarchy.
type Level string

// Level constants.
const (
	LevelCategory    Level = "category"
	LevelGrouping    Level = "grouping"
	LevelSubgrouping Level = "subgrouping"
	LevelItem        Level = "item"
	LevelUnknown     Level = "unknown"
)

// Document is one corpus record: a code or an attribute of a code.
// NormalizedCode, DisplayCode, Level and the parent codes are derived by the
// engine and ignored on input.
type Document struct {
	ID          string
	Text        string
	Type        string
	Code        string
	Description string
	Extra       map[string]string

	NormalizedCode string
	DisplayCode    string
	Level          Level
	CategoryCode   string
	GroupingCode   string
}

// Weights is a blend of embedding and lexical similarity summing to 1.
type Weights struct {
	Embedding float64
	Lexical   float64
}

// SearchResult is a single ranked hit.
type SearchResult struct {
	Document
	HybridScore  float64
	DenseScore   float64
	LexicalScore float64
	Distance     float64
	// Attributes is set only when the search asked for them.
	Attributes []Document
}

// IndexReport summarizes a corpus rebuild.
type IndexReport struct {
	Received    int
	Skipped     int
	Indexed     int
	TotalTokens int
	Duration    time.Duration
}

// TuneCase is one labeled query: the code a good search should return first.
type TuneCase struct {
	Query    string
	Expected string
}

// TuneRow is the score of one candidate blend.
type TuneRow struct {
	Weights      Weights
	Top1Accuracy float64
	Top5Accuracy float64
	Combined     float64
}

// TuneReport summarizes a weight sweep.
type TuneReport struct {
	Best      Weights
	BestScore float64
	Rows      []TuneRow
	Cases     int
	Applied   bool
}
