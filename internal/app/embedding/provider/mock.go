package provider

import (
	"context"
	"crypto/sha256"
	"hash/fnv"
	"strings"
	"unicode"
)

// MockProvider is a deterministic provider for testing.
// Equal texts map to equal vectors; different texts are effectively unrelated.
type MockProvider struct {
	dimension int
}

// NewMockProvider creates a new mock provider with specified dimension
func NewMockProvider(dimension int) *MockProvider {
	return &MockProvider{dimension: dimension}
}

// GenerateEmbedding generates deterministic embeddings based on SHA256 hash
func (m *MockProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	hash := sha256.Sum256([]byte(text))
	embedding := make([]float32, m.dimension)

	// Convert hash bytes to float32 values in range [-1, 1]
	for i := 0; i < m.dimension; i++ {
		byteIndex := i % len(hash)
		embedding[i] = (float32(hash[byteIndex])/255.0)*2 - 1
	}

	return embedding, nil
}

// GetProviderInfo returns mock provider information
func (m *MockProvider) GetProviderInfo() ProviderInfo {
	return ProviderInfo{
		Name:      "mock",
		Model:     "mock-model",
		Dimension: m.dimension,
	}
}

// LexicalProvider hashes word tokens into a fixed-size bag of words.
// Texts sharing vocabulary get high cosine similarity, which makes retrieval tests deterministic.
type LexicalProvider struct {
	dimension int
}

// NewLexicalProvider creates a bag-of-words provider
func NewLexicalProvider(dimension int) *LexicalProvider {
	return &LexicalProvider{dimension: dimension}
}

var lexicalStopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "the": {}, "of": {}, "on": {}, "in": {}, "at": {}, "to": {}, "for": {},
}

// GenerateEmbedding builds a term-frequency vector over hashed tokens
func (l *LexicalProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	embedding := make([]float32, l.dimension)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		if _, stop := lexicalStopWords[tok]; stop {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		embedding[int(h.Sum32()%uint32(l.dimension))] += 1
	}
	return embedding, nil
}

// GetProviderInfo returns lexical provider information
func (l *LexicalProvider) GetProviderInfo() ProviderInfo {
	return ProviderInfo{
		Name:      "lexical",
		Model:     "bag-of-words",
		Dimension: l.dimension,
	}
}
