// Package document defines the indexed unit of the corpus: an id, the text
// fed to both indexes, and structured taxonomy metadata.
package document

import (
	"fmt"
	"maps"
	"regexp"

	"github.com/kailas-cloud/tariffdex/internal/domain"
	"github.com/kailas-cloud/tariffdex/internal/domain/code"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

// MaxTextSize is the maximum document text size in bytes.
const MaxTextSize = 32768

// Well-known document types.
const (
	TypeCode      = "ncm"
	TypeAttribute = "attribute"
)

// Flattened metadata field names, shared by filters and storage.
const (
	FieldType           = "type"
	FieldCode           = "code"
	FieldNormalizedCode = "normalized_code"
	FieldLevel          = "hierarchy_level"
	FieldDescription    = "description"
	FieldCategory       = "category_code"
	FieldGrouping       = "grouping_code"
)

// ExtraOwnerCode links an attribute record to the canonical code it belongs to.
const ExtraOwnerCode = "ncm_code"

var coreFields = map[string]bool{
	FieldType: true, FieldCode: true, FieldNormalizedCode: true, FieldLevel: true,
	FieldDescription: true, FieldCategory: true, FieldGrouping: true,
}

// IsCoreField reports whether name is one of the fixed metadata fields.
func IsCoreField(name string) bool { return coreFields[name] }

// Metadata is the structured record attached to every document.
type Metadata struct {
	Type           string
	Code           string
	NormalizedCode string
	Level          code.Level
	Description    string
	CategoryCode   string
	GroupingCode   string
	Extra          map[string]string
}

// Document is an immutable corpus entry.
type Document struct {
	id     string
	text   string
	meta   Metadata
	vector []float32
}

// New validates and creates a Document. NormalizedCode is derived from Code
// when empty and re-canonicalized otherwise; Level is detected from the
// canonical code when empty.
func New(id, text string, meta Metadata) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("%w: id is required", domain.ErrInvalidDocument)
	}
	if len(id) > 256 {
		return Document{}, fmt.Errorf("%w: id too long (max 256)", domain.ErrInvalidDocument)
	}
	if !idRegex.MatchString(id) {
		return Document{}, fmt.Errorf("%w: id %q has invalid characters", domain.ErrInvalidDocument, id)
	}
	if text == "" {
		return Document{}, fmt.Errorf("%w: text is required for %q", domain.ErrInvalidDocument, id)
	}
	if len(text) > MaxTextSize {
		return Document{}, fmt.Errorf("%w: text too large (max %d bytes)", domain.ErrInvalidDocument, MaxTextSize)
	}
	for k := range meta.Extra {
		if coreFields[k] || k == "" {
			return Document{}, fmt.Errorf("%w: extra field %q shadows metadata", domain.ErrInvalidDocument, k)
		}
	}

	return Document{id: id, text: text, meta: canonical(meta)}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(id, text string, meta Metadata, vector []float32) Document {
	return Document{id: id, text: text, meta: meta, vector: vector}
}

func canonical(meta Metadata) Metadata {
	m := meta
	m.Extra = maps.Clone(meta.Extra)

	switch {
	case m.NormalizedCode != "":
		if c := code.Normalize(m.NormalizedCode); c != "" {
			m.NormalizedCode = c
		} else {
			m.NormalizedCode = ""
		}
	case m.Code != "":
		m.NormalizedCode = code.Normalize(m.Code)
	}

	if m.Level == "" || !m.Level.IsValid() {
		if m.NormalizedCode != "" {
			m.Level = code.DetectLevel(m.NormalizedCode)
		} else {
			m.Level = code.LevelUnknown
		}
	}

	m.CategoryCode = code.Normalize(m.CategoryCode)
	m.GroupingCode = code.Normalize(m.GroupingCode)

	// Lookups match owners by canonical code; unparseable owners stay as given.
	if owner, ok := m.Extra[ExtraOwnerCode]; ok {
		if c := code.Normalize(owner); c != "" {
			m.Extra[ExtraOwnerCode] = c
		}
	}
	return m
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Text returns the indexed text.
func (d *Document) Text() string { return d.text }

// Metadata returns a copy of the metadata record.
func (d *Document) Metadata() Metadata {
	m := d.meta
	m.Extra = maps.Clone(d.meta.Extra)
	return m
}

// Type returns the document type.
func (d *Document) Type() string { return d.meta.Type }

// Code returns the code as supplied by the source.
func (d *Document) Code() string { return d.meta.Code }

// NormalizedCode returns the canonical 8-digit code, or "" for codeless documents.
func (d *Document) NormalizedCode() string { return d.meta.NormalizedCode }

// Level returns the hierarchy level.
func (d *Document) Level() code.Level { return d.meta.Level }

// Vector returns the embedding vector.
func (d *Document) Vector() []float32 { return d.vector }

// WithVector returns a copy with the given vector set.
func (d *Document) WithVector(v []float32) Document {
	return Document{id: d.id, text: d.text, meta: d.meta, vector: v}
}

// WithParents returns a copy with category and grouping references set.
func (d *Document) WithParents(p code.Parents) Document {
	m := d.meta
	m.CategoryCode = p.Category
	m.GroupingCode = p.Grouping
	return Document{id: d.id, text: d.text, meta: m, vector: d.vector}
}

// Fields flattens metadata for filtering and storage. Empty values are omitted.
func (d *Document) Fields() map[string]string {
	out := make(map[string]string, len(coreFields)+len(d.meta.Extra))
	for k, v := range d.meta.Extra {
		out[k] = v
	}
	put := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	put(FieldType, d.meta.Type)
	put(FieldCode, d.meta.Code)
	put(FieldNormalizedCode, d.meta.NormalizedCode)
	put(FieldLevel, string(d.meta.Level))
	put(FieldDescription, d.meta.Description)
	put(FieldCategory, d.meta.CategoryCode)
	put(FieldGrouping, d.meta.GroupingCode)
	return out
}

// MetadataFromFields is the inverse of Fields; unknown keys land in Extra.
func MetadataFromFields(fields map[string]string) Metadata {
	m := Metadata{
		Type:           fields[FieldType],
		Code:           fields[FieldCode],
		NormalizedCode: fields[FieldNormalizedCode],
		Level:          code.ParseLevel(fields[FieldLevel]),
		Description:    fields[FieldDescription],
		CategoryCode:   fields[FieldCategory],
		GroupingCode:   fields[FieldGrouping],
	}
	for k, v := range fields {
		if coreFields[k] {
			continue
		}
		if m.Extra == nil {
			m.Extra = make(map[string]string)
		}
		m.Extra[k] = v
	}
	return m
}
