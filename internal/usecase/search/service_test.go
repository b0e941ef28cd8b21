package search

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/tariffdex/internal/domain"
	"github.com/kailas-cloud/tariffdex/internal/domain/document"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/filter"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/request"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/result"
	"github.com/kailas-cloud/tariffdex/internal/domain/weights"
	"github.com/kailas-cloud/tariffdex/internal/lexical"
	"github.com/kailas-cloud/tariffdex/internal/usecase/dense"
)

func TestNew_RejectsInvalidWeights(t *testing.T) {
	_, err := New(&stubDense{}, nil, weights.Weights{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidWeights)
}

func TestSearch_BlendsBothSides(t *testing.T) {
	cafe := mkDoc(t, "0901", "0901.21.00", "cafe torrado em grao")
	soja := mkDoc(t, "1201", "1201.90.00", "soja mesmo triturada")

	d := &stubDense{hits: []dense.Hit{hit(soja, 0.1), hit(cafe, 0.5)}}
	svc, err := New(d, lexical.Build([]document.Document{cafe, soja}), weights.Default())
	require.NoError(t, err)

	got, err := svc.Search(context.Background(), mkReq(t, "cafe", 5, false))
	require.NoError(t, err)
	require.Len(t, got, 2)

	// cafe: 0.6*0.5 + 0.4*1.0 = 0.70; soja: 0.6*0.9 + 0.4*0 = 0.54
	assert.Equal(t, "0901", got[0].ID())
	assert.InDelta(t, 0.70, got[0].HybridScore(), 1e-9)
	assert.InDelta(t, 1.0, got[0].LexicalScore(), 1e-9)
	assert.InDelta(t, 0.5, got[0].DenseScore(), 1e-9)
	assert.Equal(t, "1201", got[1].ID())
	assert.InDelta(t, 0.54, got[1].HybridScore(), 1e-9)
	assert.Zero(t, got[1].LexicalScore())
	assert.Equal(t, weights.Default(), got[0].Weights())

	assert.Equal(t, 15, d.gotK, "each side over-fetches 3x top-k")
}

func TestSearch_LexicalOnlyHitGetsMissingDistance(t *testing.T) {
	cafe := mkDoc(t, "0901", "0901", "cafe")
	chip := mkDoc(t, "8542", "8542", "circuitos integrados")

	svc, err := New(&stubDense{hits: []dense.Hit{hit(chip, 0.3)}}, lexical.Build([]document.Document{cafe, chip}), weights.Default())
	require.NoError(t, err)

	got, err := svc.Search(context.Background(), mkReq(t, "cafe", 5, false))
	require.NoError(t, err)

	var lexOnly *result.Scored
	for i := range got {
		if got[i].ID() == "0901" {
			lexOnly = &got[i]
		}
	}
	require.NotNil(t, lexOnly)
	assert.Zero(t, lexOnly.DenseScore())
	assert.Equal(t, result.MissingDistance, lexOnly.Distance())
}

func TestSearch_TiesBrokenByID(t *testing.T) {
	b := mkDoc(t, "b", "01", "x1")
	a := mkDoc(t, "a", "02", "x2")
	c := mkDoc(t, "c", "03", "x3")

	svc, err := New(&stubDense{hits: []dense.Hit{hit(c, 0.2), hit(b, 0.2), hit(a, 0.2)}}, nil, weights.Default())
	require.NoError(t, err)

	got, err := svc.Search(context.Background(), mkReq(t, "anything", 3, false))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].ID(), got[1].ID(), got[2].ID()})
}

func TestSearch_TruncatesToTopK(t *testing.T) {
	var hits []dense.Hit
	for i, id := range []string{"a", "b", "c", "d"} {
		hits = append(hits, hit(mkDoc(t, id, "01", "t"), float64(i)*0.1))
	}
	svc, _ := New(&stubDense{hits: hits}, nil, weights.Default())

	got, err := svc.Search(context.Background(), mkReq(t, "q", 2, false))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID())
}

func TestSearch_FilterExcludesLexicalHits(t *testing.T) {
	item := mkDoc(t, "ncm-1", "0901.21.00", "cafe torrado")
	attr, err := document.New("attr-1", "cafe torrado moido", document.Metadata{Type: document.TypeAttribute})
	require.NoError(t, err)

	svc, _ := New(&stubDense{}, lexical.Build([]document.Document{item, attr}), weights.Default())

	f, _ := filter.Equals(map[string]string{document.FieldType: document.TypeCode})
	req, err := request.New("cafe torrado", f, 5, false)
	require.NoError(t, err)

	got, err := svc.Search(context.Background(), &req)
	require.NoError(t, err)
	for _, r := range got {
		assert.NotEqual(t, "attr-1", r.ID(), "filtered document leaked through the lexical side")
	}
	require.Len(t, got, 1)
}

func TestSearch_DenseFailureIsAnError(t *testing.T) {
	backendErr := errors.Join(domain.ErrSearchBackend, errors.New("connection refused"))
	svc, _ := New(&stubDense{err: backendErr}, lexical.Build(nil), weights.Default())

	got, err := svc.Search(context.Background(), mkReq(t, "cafe", 5, false))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSearchBackend)
	assert.Nil(t, got)
}

func TestSearch_NoLexicalIndexYet(t *testing.T) {
	d := mkDoc(t, "0901", "0901", "cafe")
	svc, _ := New(&stubDense{hits: []dense.Hit{hit(d, 0.2)}}, nil, weights.Default())

	got, err := svc.Search(context.Background(), mkReq(t, "cafe", 5, false))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.6*0.8, got[0].HybridScore(), 1e-9)
}

func TestSearch_EmptyEverywhere(t *testing.T) {
	svc, _ := New(&stubDense{}, lexical.Build(nil), weights.Default())

	got, err := svc.Search(context.Background(), mkReq(t, "nada", 5, false))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearch_PerRequestWeightsOverride(t *testing.T) {
	d := mkDoc(t, "0901", "0901", "cafe")
	svc, _ := New(&stubDense{hits: []dense.Hit{hit(d, 0)}}, nil, weights.Default())

	w, err := weights.FromEmbedding(0.8)
	require.NoError(t, err)
	req := mkReq(t, "cafe", 5, false).WithWeights(w)

	got, err := svc.Search(context.Background(), &req)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, got[0].HybridScore(), 1e-9)
	assert.Equal(t, weights.Default(), svc.Weights(), "override must not touch the live weights")
}

func TestSearch_PreferItemsReranks(t *testing.T) {
	chapter := mkDoc(t, "cat", "09", "cafe cha mate")
	item := mkDoc(t, "item", "0901.21.00", "cafe torrado")

	svc, _ := New(&stubDense{hits: []dense.Hit{hit(chapter, 0.05), hit(item, 0.4)}}, nil, weights.Default())

	plain, err := svc.Search(context.Background(), mkReq(t, "cafe", 5, false))
	require.NoError(t, err)
	assert.Equal(t, "cat", plain[0].ID())

	preferred, err := svc.Search(context.Background(), mkReq(t, "cafe", 5, true))
	require.NoError(t, err)
	assert.Equal(t, "item", preferred[0].ID())
	assert.Equal(t, "cat", preferred[1].ID())
}

func TestSetWeights(t *testing.T) {
	svc, _ := New(&stubDense{}, nil, weights.Default())

	w, _ := weights.FromEmbedding(0.7)
	require.NoError(t, svc.SetWeights(w))
	assert.InDelta(t, 0.7, svc.Weights().Embedding(), 1e-12)

	err := svc.SetWeights(weights.Weights{})
	assert.ErrorIs(t, err, domain.ErrInvalidWeights)
	assert.InDelta(t, 0.7, svc.Weights().Embedding(), 1e-12, "rejected update must keep the previous weights")
}

func TestWeights_ConcurrentReadersSeeConsistentSnapshots(t *testing.T) {
	svc, _ := New(&stubDense{}, nil, weights.Default())
	a, _ := weights.FromEmbedding(0.5)
	b, _ := weights.FromEmbedding(0.8)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				_ = svc.SetWeights(a)
			} else {
				_ = svc.SetWeights(b)
			}
		}
	}()

	for i := 0; i < 1000; i++ {
		w := svc.Weights()
		assert.InDelta(t, 1.0, w.Embedding()+w.Lexical(), weights.Tolerance)
	}
	close(stop)
	wg.Wait()
}

func TestSetLexical_Swaps(t *testing.T) {
	d := mkDoc(t, "0901", "0901", "cafe")
	svc, _ := New(&stubDense{}, nil, weights.Default())

	got, _ := svc.Search(context.Background(), mkReq(t, "cafe", 5, false))
	assert.Empty(t, got)

	svc.SetLexical(lexical.Build([]document.Document{d}))
	got, err := svc.Search(context.Background(), mkReq(t, "cafe", 5, false))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.4, got[0].HybridScore(), 1e-9)
}
