package corpus

import (
	"fmt"

	"github.com/kailas-cloud/tariffdex/internal/db"
	"github.com/kailas-cloud/tariffdex/internal/domain/document"
)

// indexedFields are the core metadata fields exposed as TAG fields, plus the
// attribute owner code used by lookups. Description stays in the hash only.
var indexedFields = []string{
	document.FieldType,
	document.FieldCode,
	document.FieldNormalizedCode,
	document.FieldLevel,
	document.FieldCategory,
	document.FieldGrouping,
	document.ExtraOwnerCode,
}

// buildIndex creates the FT index definition: tags for metadata, HNSW/COSINE vector.
func buildIndex(name, prefix string, cfg Config) (*db.IndexDefinition, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("vector dimension must be positive, got %d", cfg.Dimension)
	}

	b := db.NewIndex(name).Prefix(prefix)
	seen := make(map[string]bool, len(indexedFields)+len(cfg.ExtraTags))
	for _, f := range append(append([]string{}, indexedFields...), cfg.ExtraTags...) {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		// Raw codes may contain "," (the default separator), so it is disabled.
		b = b.TagWithOpts(f, "|", false)
	}
	b = b.VectorHNSW(fieldVector, vectorAlias, cfg.Dimension, db.DistanceCosine, cfg.HNSW.M, cfg.HNSW.EFConstruct)

	def, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	return def, nil
}
