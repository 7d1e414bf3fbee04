// Package embedding turns transaction descriptions into vectors for the
// description-similarity scoring factor.
package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// Provider produces an embedding vector for a piece of text. Implementations
// must be safe for concurrent use.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// defaultDimensions for the hashing provider. Small enough to keep vectors
// cheap, large enough that short description vocabularies rarely collide.
const defaultDimensions = 256

// HashingProvider is a deterministic local vectorizer: a term-frequency
// bag-of-words over hashed tokens. It needs no network access and always
// returns the same vector for the same text, which keeps scoring reproducible.
type HashingProvider struct {
	Dimensions int
}

// NewHashingProvider returns a HashingProvider with the default dimensions.
func NewHashingProvider() *HashingProvider {
	return &HashingProvider{Dimensions: defaultDimensions}
}

// Embed tokenizes the text and accumulates term frequencies into hashed slots.
func (p *HashingProvider) Embed(_ context.Context, text string) ([]float64, error) {
	dims := p.Dimensions
	if dims <= 0 {
		dims = defaultDimensions
	}
	vec := make([]float64, dims)
	for _, token := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[h.Sum32()%uint32(dims)]++
	}
	return vec, nil
}

// tokenize lower-cases and splits on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
