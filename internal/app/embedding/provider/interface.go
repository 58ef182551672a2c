package provider

import "context"

// EmbeddingProvider defines the interface for all embedding providers
type EmbeddingProvider interface {
	// GenerateEmbedding generates an embedding vector for the given text
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// GetProviderInfo returns metadata about the provider
	GetProviderInfo() ProviderInfo
}

// BatchEmbeddingProvider is implemented by providers that can embed several texts per call
type BatchEmbeddingProvider interface {
	EmbeddingProvider
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// ProviderInfo contains metadata about an embedding provider
type ProviderInfo struct {
	Name      string // Provider name (e.g., "openai", "gemini")
	Model     string // Model identifier (e.g., "gemini-embedding-001")
	Dimension int    // Embedding dimension (e.g., 1536 for OpenAI, 3072 for Gemini)
}

// EmbedAll embeds texts in order, using a single batched call when the provider supports it
func EmbedAll(ctx context.Context, p EmbeddingProvider, texts []string) ([][]float32, error) {
	if bp, ok := p.(BatchEmbeddingProvider); ok {
		return bp.GenerateEmbeddings(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := p.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}
