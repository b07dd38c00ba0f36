package retrieval

import (
	"strings"
	"unicode"
)

// EstimateTokens gives a rough token count for prompt budgeting.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	// Roughly 0.75 tokens per word for English text.
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// Tokenize lowercases text and splits it into letter/digit runs.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return fields
}
