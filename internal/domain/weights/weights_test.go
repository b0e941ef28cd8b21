package weights

import (
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/tariffdex/internal/domain"
)

func TestNew_Valid(t *testing.T) {
	tests := []struct {
		name     string
		emb, lex float64
	}{
		{"default", 0.6, 0.4},
		{"dense only", 1, 0},
		{"lexical only", 0, 1},
		{"within tolerance", 0.7, 0.3005},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := New(tt.emb, tt.lex)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if w.Embedding() != tt.emb || w.Lexical() != tt.lex {
				t.Errorf("got %v", w)
			}
		})
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		emb, lex float64
	}{
		{"sum below one", 0.6, 0.3},
		{"sum above one", 0.8, 0.4},
		{"negative", -0.2, 1.2},
		{"above one", 1.5, -0.5},
		{"nan", math.NaN(), 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.emb, tt.lex)
			if !errors.Is(err, domain.ErrInvalidWeights) {
				t.Fatalf("expected ErrInvalidWeights, got %v", err)
			}
		})
	}
}

func TestFromEmbedding(t *testing.T) {
	w, err := FromEmbedding(0.7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(w.Lexical()-0.3) > 1e-9 {
		t.Errorf("lexical = %v, want 0.3", w.Lexical())
	}
	if _, err := FromEmbedding(1.2); err == nil {
		t.Error("expected error for weight above 1")
	}
}

func TestBlend(t *testing.T) {
	w := Default()
	got := w.Blend(0.5, 1.0)
	if math.Abs(got-0.7) > 1e-9 {
		t.Errorf("Blend = %v, want 0.7", got)
	}
	if w.IsZero() {
		t.Error("default must not be zero")
	}
	if !(Weights{}).IsZero() {
		t.Error("zero value must report IsZero")
	}
}
