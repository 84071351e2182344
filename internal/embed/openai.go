package embed

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/factweave/veridex/internal/model"
)

// OpenAIProvider computes embeddings through the OpenAI embeddings API or
// any compatible endpoint (configurable base URL).
type OpenAIProvider struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIProvider creates an embeddings provider from config.
func NewOpenAIProvider(cfg model.EmbeddingsConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embeddings API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	embedModel := openai.EmbeddingModel(cfg.Model)
	if cfg.Model == "" {
		embedModel = openai.SmallEmbedding3
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		model:  embedModel,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// EmbedBatch embeds all texts in a single API call and normalizes the
// returned vectors.
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: p.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings response has %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float64, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("embeddings response index %d out of range", item.Index)
		}
		vec := make([]float64, len(item.Embedding))
		for i, f := range item.Embedding {
			vec[i] = float64(f)
		}
		vectors[item.Index] = Normalize(vec)
	}
	return vectors, nil
}
