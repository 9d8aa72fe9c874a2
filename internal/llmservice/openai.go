package llmservice

import (
	"context"
	"errors"
	"fmt"

	"pdf-quiz/internal/config"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIGenerator talks to the OpenAI chat completions API directly.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAIGenerator(llmConfig *config.LLMConfig) *OpenAIGenerator {
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(ClientConfig(llmConfig)),
		model:  llmConfig.Model,
	}
}

// ClientConfig returns the go-openai client settings for llmConfig.
func ClientConfig(llmConfig *config.LLMConfig) openai.ClientConfig {
	cfg := openai.DefaultConfig(llmConfig.Key)
	if llmConfig.BaseURL != "" {
		cfg.BaseURL = llmConfig.BaseURL
	}
	return cfg
}

func (g *OpenAIGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	model := g.model
	if model == "" {
		model = openai.GPT4o
	}
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in chat completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
