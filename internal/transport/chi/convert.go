package chi

import (
	"fmt"
	"maps"

	"github.com/kailas-cloud/tariffdex/internal/domain/code"
	"github.com/kailas-cloud/tariffdex/internal/domain/document"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/result"
	"github.com/kailas-cloud/tariffdex/internal/domain/weights"
	tuninguc "github.com/kailas-cloud/tariffdex/internal/usecase/tuning"
)

func weightsToBody(w weights.Weights) WeightsBody {
	return WeightsBody{Embedding: w.Embedding(), Lexical: w.Lexical()}
}

func documentToBody(d *document.Document) DocumentBody {
	m := d.Metadata()
	body := DocumentBody{
		ID:             d.ID(),
		Text:           d.Text(),
		Type:           m.Type,
		Code:           m.Code,
		NormalizedCode: m.NormalizedCode,
		Level:          string(m.Level),
		Description:    m.Description,
		CategoryCode:   m.CategoryCode,
		GroupingCode:   m.GroupingCode,
	}
	if m.NormalizedCode != "" {
		body.DisplayCode = code.Format(m.NormalizedCode)
	}
	if len(m.Extra) > 0 {
		body.Extra = m.Extra
	}
	return body
}

func documentsToBody(docs []document.Document) []DocumentBody {
	out := make([]DocumentBody, len(docs))
	for i := range docs {
		out[i] = documentToBody(&docs[i])
	}
	return out
}

func documentFromBody(b *DocumentBody) (document.Document, error) {
	doc, err := document.New(b.ID, b.Text, document.Metadata{
		Type:           b.Type,
		Code:           b.Code,
		NormalizedCode: b.NormalizedCode,
		Level:          code.Level(b.Level),
		Description:    b.Description,
		CategoryCode:   b.CategoryCode,
		GroupingCode:   b.GroupingCode,
		Extra:          maps.Clone(b.Extra),
	})
	if err != nil {
		return document.Document{}, fmt.Errorf("build document: %w", err)
	}
	return doc, nil
}

func scoredToItem(r *result.Scored) SearchResultItem {
	doc := r.Document()
	return SearchResultItem{
		DocumentBody: documentToBody(&doc),
		HybridScore:  r.HybridScore(),
		DenseScore:   r.DenseScore(),
		LexicalScore: r.LexicalScore(),
		Distance:     r.Distance(),
	}
}

func tuneReportToBody(rep *tuninguc.Report) TuneResponse {
	rows := make([]TuneRow, len(rep.Rows))
	for i, row := range rep.Rows {
		rows[i] = TuneRow{
			Weights:      weightsToBody(row.Weights),
			Top1Accuracy: row.Top1Accuracy,
			Top5Accuracy: row.Top5Accuracy,
			Combined:     row.Combined,
		}
	}
	return TuneResponse{
		Best:      weightsToBody(rep.Best),
		BestScore: rep.BestScore,
		Cases:     rep.Cases,
		Applied:   rep.Applied,
		Rows:      rows,
	}
}
