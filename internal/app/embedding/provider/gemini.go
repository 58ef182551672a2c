package provider

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const DefaultGeminiEmbeddingModel = "gemini-embedding-001"

// GeminiProvider implements EmbeddingProvider using Google Gemini API
type GeminiProvider struct {
	client    *genai.Client
	model     string
	dimension int
	taskType  string
}

// NewGeminiProvider creates a new Gemini embedding provider
func NewGeminiProvider(ctx context.Context, apiKey, model string, dimension int) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiEmbeddingModel
	}
	return &GeminiProvider{
		client:    client,
		model:     model,
		dimension: dimension,
		taskType:  "SEMANTIC_SIMILARITY",
	}, nil
}

// GenerateEmbedding generates an embedding using Gemini API
func (g *GeminiProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.GenerateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// GenerateEmbeddings embeds several texts in one EmbedContent call
func (g *GeminiProvider) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, ErrEmptyText
		}
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}

	cfg := &genai.EmbedContentConfig{TaskType: g.taskType}
	if g.dimension > 0 {
		cfg.OutputDimensionality = genai.Ptr(int32(g.dimension))
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		return nil, ErrEmptyResponse
	}

	out := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			return nil, fmt.Errorf("%w: text %d", ErrEmptyResponse, i)
		}
		out[i] = e.Values
	}
	return out, nil
}

// GetProviderInfo returns information about the Gemini provider
func (g *GeminiProvider) GetProviderInfo() ProviderInfo {
	return ProviderInfo{
		Name:      "gemini",
		Model:     g.model,
		Dimension: g.dimension,
	}
}
