// Package corpus stores taxonomy documents as Redis hashes behind a single
// FT index with tag metadata and a vector field.
package corpus

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/kailas-cloud/tariffdex/internal/db"
	"github.com/kailas-cloud/tariffdex/internal/domain"
	"github.com/kailas-cloud/tariffdex/internal/domain/document"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/filter"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/result"
)

// Reserved hash fields. Everything else in the hash is flattened metadata.
const (
	fieldContent = "__content"
	fieldVector  = "__vector"
	fieldSeq     = "__seq"

	vectorAlias = "vector"
	batchSize   = 500
)

// store is the consumer interface for the corpus (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchFilter(ctx context.Context, q *db.FilterQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index string) (int, error)
}

// HNSWConfig holds HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Config describes the index layout.
type Config struct {
	KeyPrefix string
	Dimension int
	HNSW      HNSWConfig
	// ExtraTags are indexed in addition to the core metadata fields.
	ExtraTags []string
}

// Repo implements the vector store collaborator over db.Store.
type Repo struct {
	store store
	cfg   Config
	// next insertion ordinal; restored by All so corpus order survives restarts.
	seq atomic.Int64
}

// New creates a corpus repository.
func New(s store, cfg Config) *Repo {
	return &Repo{store: s, cfg: cfg}
}

// EnsureIndex creates the index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName())
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}
	return r.createIndex(ctx)
}

// Reset drops the index and every stored document, then recreates an empty index.
func (r *Repo) Reset(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.indexName()); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index: %w", err)
	}

	keys, err := r.store.Scan(ctx, r.docPrefix()+"*")
	if err != nil {
		return fmt.Errorf("scan documents: %w", err)
	}
	for start := 0; start < len(keys); start += batchSize {
		end := min(start+batchSize, len(keys))
		if err := r.store.Del(ctx, keys[start:end]...); err != nil {
			return fmt.Errorf("delete documents: %w", err)
		}
	}

	r.seq.Store(0)
	return r.createIndex(ctx)
}

// Insert stores documents with their vectors, in batches.
func (r *Repo) Insert(ctx context.Context, docs []document.Document) error {
	for i := range docs {
		if n := len(docs[i].Vector()); n != r.cfg.Dimension {
			return fmt.Errorf("%w: document %q has %d dims, index has %d",
				domain.ErrVectorDimMismatch, docs[i].ID(), n, r.cfg.Dimension)
		}
	}

	for start := 0; start < len(docs); start += batchSize {
		end := min(start+batchSize, len(docs))
		items := make([]db.HashSetItem, 0, end-start)
		for i := start; i < end; i++ {
			items = append(items, db.HashSetItem{
				Key:    r.docKey(docs[i].ID()),
				Fields: r.toHash(&docs[i]),
			})
		}
		if err := r.store.HSetMulti(ctx, items); err != nil {
			return fmt.Errorf("insert documents: %w", err)
		}
	}
	return nil
}

// Nearest returns up to k documents matching f, by ascending distance.
// Equal distances keep insertion order.
func (r *Repo) Nearest(ctx context.Context, vector []float32, k int, f filter.Expression) ([]result.Neighbor, error) {
	if k <= 0 {
		return nil, nil
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:   r.indexName(),
		VectorField: vectorAlias,
		Filters:     f,
		Vector:      vector,
		K:           k,
	})
	if err != nil {
		return nil, searchError("search knn", err)
	}
	if sr == nil {
		return nil, nil
	}

	type hit struct {
		n   result.Neighbor
		seq int
	}
	hits := make([]hit, 0, len(sr.Entries))
	for i, e := range sr.Entries {
		hits = append(hits, hit{
			n:   result.Neighbor{Document: r.fromHash(e.Key, e.Fields), Distance: e.Score},
			seq: entrySeq(e, i),
		})
	}
	// The engine does not guarantee ordering without SORTBY; equal distances
	// fall back to insertion order.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].n.Distance != hits[j].n.Distance {
			return hits[i].n.Distance < hits[j].n.Distance
		}
		return hits[i].seq < hits[j].seq
	})

	out := make([]result.Neighbor, len(hits))
	for i := range hits {
		out[i] = hits[i].n
	}
	return out, nil
}

// Find returns up to limit documents whose metadata matches f.
func (r *Repo) Find(ctx context.Context, f filter.Expression, limit int) ([]document.Document, error) {
	if limit <= 0 {
		limit = batchSize
	}
	sr, err := r.store.SearchFilter(ctx, &db.FilterQuery{
		IndexName: r.indexName(),
		Filters:   f,
		Limit:     limit,
	})
	if err != nil {
		return nil, searchError("search filter", err)
	}
	if sr == nil {
		return nil, nil
	}

	docs := make([]document.Document, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		docs = append(docs, r.fromHash(e.Key, e.Fields))
	}
	sortBySeq(docs, sr.Entries)
	return docs, nil
}

// All returns every stored document in insertion order.
func (r *Repo) All(ctx context.Context) ([]document.Document, error) {
	keys, err := r.store.Scan(ctx, r.docPrefix()+"*")
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}

	type row struct {
		doc document.Document
		seq int64
	}
	rows := make([]row, 0, len(keys))
	for start := 0; start < len(keys); start += batchSize {
		end := min(start+batchSize, len(keys))
		hashes, err := r.store.HGetAllMulti(ctx, keys[start:end])
		if err != nil {
			return nil, fmt.Errorf("load documents: %w", err)
		}
		for i, h := range hashes {
			if len(h) == 0 {
				continue
			}
			seq, _ := strconv.ParseInt(h[fieldSeq], 10, 64)
			rows = append(rows, row{doc: r.fromHash(keys[start+i], h), seq: seq})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	docs := make([]document.Document, len(rows))
	for i := range rows {
		docs[i] = rows[i].doc
	}
	if n := len(rows); n > 0 && rows[n-1].seq >= r.seq.Load() {
		r.seq.Store(rows[n-1].seq + 1)
	}
	return docs, nil
}

// Count returns the number of indexed documents.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName())
	if err != nil {
		return 0, searchError("search count", err)
	}
	return n, nil
}

// searchError marks a missing FT index as a corpus that was never indexed.
func searchError(op string, err error) error {
	if errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrIndexNotReady, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *Repo) createIndex(ctx context.Context) error {
	def, err := buildIndex(r.indexName(), r.docPrefix(), r.cfg)
	if err != nil {
		return err
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

func (r *Repo) toHash(d *document.Document) map[string]string {
	h := d.Fields()
	h[fieldContent] = d.Text()
	h[fieldVector] = vectorToBytes(d.Vector())
	h[fieldSeq] = strconv.FormatInt(r.seq.Add(1)-1, 10)
	return h
}

func (r *Repo) fromHash(key string, h map[string]string) document.Document {
	meta := make(map[string]string, len(h))
	var text string
	var vec []float32
	for k, v := range h {
		switch k {
		case fieldContent:
			text = v
		case fieldVector:
			vec = bytesToVector(v)
		case fieldSeq:
		default:
			meta[k] = v
		}
	}
	id := strings.TrimPrefix(key, r.docPrefix())
	return document.Reconstruct(id, text, document.MetadataFromFields(meta), vec)
}

func (r *Repo) docPrefix() string {
	return r.cfg.KeyPrefix + "doc:"
}

func (r *Repo) docKey(id string) string {
	return r.docPrefix() + id
}

func (r *Repo) indexName() string {
	return r.cfg.KeyPrefix + "idx"
}

// entrySeq is the insertion sequence of a search entry, or pos when the hash
// has none.
func entrySeq(e db.SearchEntry, pos int) int {
	n, err := strconv.Atoi(e.Fields[fieldSeq])
	if err != nil {
		return pos
	}
	return n
}

func sortBySeq(docs []document.Document, entries []db.SearchEntry) {
	seqs := make(map[string]int, len(entries))
	for i, e := range entries {
		seqs[docs[i].ID()] = entrySeq(e, i)
	}
	sort.SliceStable(docs, func(i, j int) bool { return seqs[docs[i].ID()] < seqs[docs[j].ID()] })
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
