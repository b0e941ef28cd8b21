package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/tariffdex/internal/domain"
	"github.com/kailas-cloud/tariffdex/internal/domain/search/filter"
	"github.com/kailas-cloud/tariffdex/internal/domain/weights"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New("  cafe torrado ", filter.Expression{}, 0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "cafe torrado" {
		t.Errorf("Query() = %q", r.Query())
	}
	if r.TopK() != DefaultTopK {
		t.Errorf("TopK() = %d, want %d", r.TopK(), DefaultTopK)
	}
	if r.PreferItems() {
		t.Error("PreferItems() = true")
	}
	if _, ok := r.Weights(); ok {
		t.Error("no weight override expected")
	}
}

func TestNew_ClampsTopK(t *testing.T) {
	r, err := New("soja", filter.Expression{}, MaxTopK+100, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.TopK() != MaxTopK {
		t.Errorf("TopK() = %d, want %d", r.TopK(), MaxTopK)
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		query string
		topK  int
	}{
		{"empty query", "", 5},
		{"blank query", "   ", 5},
		{"long query", strings.Repeat("a", MaxQueryLength+1), 5},
		{"negative top_k", "soja", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.query, filter.Expression{}, tt.topK, false)
			if !errors.Is(err, domain.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestWithWeights(t *testing.T) {
	r, _ := New("soja", filter.Expression{}, 5, false)
	w, _ := weights.New(0.8, 0.2)

	overridden := r.WithWeights(w)
	got, ok := overridden.Weights()
	if !ok || got != w {
		t.Errorf("Weights() = %v, %v", got, ok)
	}
	if _, ok := r.Weights(); ok {
		t.Error("original request must stay without override")
	}
}
