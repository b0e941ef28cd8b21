package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"diacritics", "Café Torrado, em grãos!", []string{"cafe", "torrado", "em", "graos"}},
		{"short tokens dropped", "a b de", []string{"de"}},
		{"digits kept", "8 kg de 0901", []string{"8", "kg", "de", "0901"}},
		{"punctuation", "telefones-celulares/smartphones", []string{"telefones", "celulares", "smartphones"}},
		{"underscore is a word rune", "x_y", []string{"x_y"}},
		{"cedilla", "AÇÚCAR de cana", []string{"acucar", "de", "cana"}},
		{"empty", "", []string{}},
		{"only punctuation", "...!!", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestTokenize_QueryMatchesDocumentForm(t *testing.T) {
	assert.Equal(t, Tokenize("cafe torrado"), Tokenize("Café   TORRADO"))
}
