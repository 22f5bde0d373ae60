// Package dedup decides, for each incoming feed item, whether to create a new
// post, update an existing one, or skip the item entirely. It combines exact
// fingerprint lookups, fuzzy title similarity, and sparse term-vector cosine
// similarity over the publication record store.
package dedup

import (
	"math"
	"strings"
	"unicode"
)

// Vector is a sparse term-frequency vector keyed by token, L2-normalized.
type Vector map[string]float64

// Vectorize turns a title into a normalized sparse term vector. Titles with no
// letter or digit runes yield an empty vector, which callers must treat as
// "no embedding available".
func Vectorize(title string) Vector {
	tokens := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if len(tokens) == 0 {
		return Vector{}
	}

	vector := make(Vector, len(tokens))
	for _, token := range tokens {
		vector[token]++
	}

	var sumSquares float64
	for _, count := range vector {
		sumSquares += count * count
	}
	norm := math.Sqrt(sumSquares)
	if norm > 0 {
		for token, count := range vector {
			vector[token] = count / norm
		}
	}
	return vector
}
