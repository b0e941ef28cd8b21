package tariffdex

import (
	"fmt"
	"maps"

	"github.com/kailas-cloud/tariffdex/internal/domain/code"
	domdoc "github.com/kailas-cloud/tariffdex/internal/domain/document"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/result"
	"github.com/kailas-cloud/tariffdex/internal/domain/weights"
	tuninguc "github.com/kailas-cloud/tariffdex/internal/usecase/tuning"
)

func toInternalDocument(d *Document) (domdoc.Document, error) {
	doc, err := domdoc.New(d.ID, d.Text, domdoc.Metadata{
		Type:        d.Type,
		Code:        d.Code,
		Description: d.Description,
		Extra:       maps.Clone(d.Extra),
	})
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("validate document: %w", err)
	}
	return doc, nil
}

func fromInternalDocument(d *domdoc.Document) Document {
	m := d.Metadata()
	out := Document{
		ID:             d.ID(),
		Text:           d.Text(),
		Type:           m.Type,
		Code:           m.Code,
		Description:    m.Description,
		NormalizedCode: m.NormalizedCode,
		Level:          Level(m.Level),
		CategoryCode:   m.CategoryCode,
		GroupingCode:   m.GroupingCode,
	}
	if m.NormalizedCode != "" {
		out.DisplayCode = code.Format(m.NormalizedCode)
	}
	if len(m.Extra) > 0 {
		out.Extra = m.Extra
	}
	return out
}

func fromInternalDocuments(docs []domdoc.Document) []Document {
	out := make([]Document, len(docs))
	for i := range docs {
		out[i] = fromInternalDocument(&docs[i])
	}
	return out
}

func fromScored(r *result.Scored) SearchResult {
	doc := r.Document()
	return SearchResult{
		Document:     fromInternalDocument(&doc),
		HybridScore:  r.HybridScore(),
		DenseScore:   r.DenseScore(),
		LexicalScore: r.LexicalScore(),
		Distance:     r.Distance(),
	}
}

func fromInternalWeights(w weights.Weights) Weights {
	return Weights{Embedding: w.Embedding(), Lexical: w.Lexical()}
}

func fromTuneReport(r *tuninguc.Report) TuneReport {
	rows := make([]TuneRow, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = TuneRow{
			Weights:      fromInternalWeights(row.Weights),
			Top1Accuracy: row.Top1Accuracy,
			Top5Accuracy: row.Top5Accuracy,
			Combined:     row.Combined,
		}
	}
	return TuneReport{
		Best:      fromInternalWeights(r.Best),
		BestScore: r.BestScore,
		Rows:      rows,
		Cases:     r.Cases,
		Applied:   r.Applied,
	}
}
