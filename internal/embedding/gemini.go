package embedding

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// defaultGeminiModel is the embedding model used when none is configured.
const defaultGeminiModel = "text-embedding-004"

// GeminiProvider embeds text through the Gemini API. Selected by config when
// an API key is present; otherwise the deterministic HashingProvider is used.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini-backed embedding provider.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiProvider{client: client, model: model}, nil
}

// Embed requests a content embedding for the text.
func (p *GeminiProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	resp, err := p.client.Models.EmbedContent(ctx, p.model, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("embed content: empty embedding for model %s", p.model)
	}
	values := resp.Embeddings[0].Values
	vec := make([]float64, len(values))
	for i, v := range values {
		vec[i] = float64(v)
	}
	return vec, nil
}
