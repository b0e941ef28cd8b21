package lexical

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Tokenizer splits text into index terms.
type Tokenizer func(text string) []string

// Tokenize folds diacritics and case, turns punctuation into spaces and drops
// tokens shorter than two runes unless they are numeric ("café-torrado 8 kg"
// -> [cafe torrado 8 kg]). Queries and documents must go through the same
// tokenizer.
func Tokenize(text string) []string {
	folded := stripMarks(strings.ToLower(text))

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, folded)

	fields := strings.Fields(cleaned)
	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= 2 || isNumeric(f) {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// stripMarks decomposes to NFD and removes non-spacing marks. The chain is
// stateful, so one is built per call.
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
