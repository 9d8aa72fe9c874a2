package embedding

import (
	"context"
	"errors"
	"fmt"

	"pdf-quiz/internal/config"
	"pdf-quiz/internal/llmservice"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIEmbedder(LLMconfig *config.LLMConfig) *OpenAIEmbedder {
	model := openai.SmallEmbedding3
	if LLMconfig.Model != "" {
		model = openai.EmbeddingModel(LLMconfig.Model)
	}
	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(llmservice.ClientConfig(LLMconfig)),
		model:  model,
	}
}

func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding response has no data")
	}
	return resp.Data[0].Embedding, nil
}
