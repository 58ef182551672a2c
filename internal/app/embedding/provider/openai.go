package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements EmbeddingProvider using OpenAI API
type OpenAIProvider struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	dimension int
}

// NewOpenAIProvider creates a new OpenAI embedding provider
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return NewOpenAIProviderWithModel(apiKey, string(openai.SmallEmbedding3), 1536)
}

// NewOpenAIProviderWithModel creates a provider for a specific embedding model
func NewOpenAIProviderWithModel(apiKey, model string, dimension int) *OpenAIProvider {
	return &OpenAIProvider{
		client:    openai.NewClient(apiKey),
		model:     openai.EmbeddingModel(model),
		dimension: dimension,
	}
}

// GenerateEmbedding generates an embedding using OpenAI API
func (o *OpenAIProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := o.GenerateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// GenerateEmbeddings embeds a batch of texts in one request
func (o *OpenAIProvider) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, ErrEmptyText
		}
	}

	response, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: o.model,
		Input: texts,
	})
	if err != nil {
		return nil, err
	}

	if len(response.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmptyResponse, len(response.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range response.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

// GetProviderInfo returns information about the OpenAI provider
func (o *OpenAIProvider) GetProviderInfo() ProviderInfo {
	return ProviderInfo{
		Name:      "openai",
		Model:     string(o.model),
		Dimension: o.dimension,
	}
}
