package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestMockProviderIsDeterministic(t *testing.T) {
	// Arrange
	var p EmbeddingProvider = NewMockProvider(64)
	ctx := context.Background()

	// Act
	a, err := p.GenerateEmbedding(ctx, "wide shot at golden hour")
	require.NoError(t, err)
	b, err := p.GenerateEmbedding(ctx, "wide shot at golden hour")
	require.NoError(t, err)
	c, err := p.GenerateEmbedding(ctx, "close-up under neon light")
	require.NoError(t, err)

	// Assert
	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, ProviderInfo{Name: "mock", Model: "mock-model", Dimension: 64}, p.GetProviderInfo())

	_, err = p.GenerateEmbedding(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestLexicalProviderRanksSharedVocabulary(t *testing.T) {
	p := NewLexicalProvider(512)
	ctx := context.Background()

	query, err := p.GenerateEmbedding(ctx, "romantic beach moment")
	require.NoError(t, err)
	near, err := p.GenerateEmbedding(ctx, "beach sunset, romantic")
	require.NoError(t, err)
	far, err := p.GenerateEmbedding(ctx, "city street, tense chase")
	require.NoError(t, err)

	assert.Greater(t, cosine(query, near), cosine(query, far))
	assert.InDelta(t, 1.0, cosine(near, near), 1e-6)
}

func TestEmbedAllFallsBackToSingleCalls(t *testing.T) {
	vecs, err := EmbedAll(context.Background(), NewMockProvider(8), []string{"a", "b", "a"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, vecs[0], vecs[2])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = EmbedAll(ctx, NewMockProvider(8), []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gemini quota", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}, true},
		{"gemini server", fmt.Errorf("wrapped: %w", genai.APIError{Code: 503}), true},
		{"gemini auth", genai.APIError{Code: 401, Message: "API key not valid"}, false},
		{"openai rate", &openai.APIError{HTTPStatusCode: 429, Message: "Rate limit reached"}, true},
		{"openai bad request", &openai.APIError{HTTPStatusCode: 400, Message: "bad input"}, false},
		{"openai transport", &openai.RequestError{HTTPStatusCode: 502, Err: errors.New("bad gateway")}, true},
		{"marked", &RetryableError{Err: errors.New("try later")}, true},
		{"quota text", errors.New("Quota exceeded for metric"), true},
		{"cancelled", context.Canceled, false},
		{"empty text", ErrEmptyText, false},
		{"malformed", errors.New("invalid argument"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
