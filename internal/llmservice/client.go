package llmservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pdf-quiz/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// Generator sends one system+user exchange to a text generation service
// and returns the raw reply.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// NewGenerator builds the Generator for llmConfig.Provider.
func NewGenerator(llmConfig *config.LLMConfig) (Generator, error) {
	log.Debug().
		Str("provider", llmConfig.Provider).
		Str("base_url", llmConfig.BaseURL).
		Str("model", llmConfig.Model).
		Msg("Creating generator")

	switch llmConfig.Provider {
	case "openai":
		return NewOpenAIGenerator(llmConfig), nil
	case "openrouter":
		llm, err := openai.New(
			openai.WithBaseURL(llmConfig.BaseURL),
			openai.WithToken(strings.TrimPrefix(llmConfig.Key, "Bearer ")),
			openai.WithModel(llmConfig.Model),
		)
		if err != nil {
			return nil, err
		}
		return &LangchainGenerator{llm: llm}, nil
	case "ollama":
		llm, err := ollama.New(
			ollama.WithServerURL(llmConfig.BaseURL),
			ollama.WithModel(llmConfig.Model),
		)
		if err != nil {
			return nil, err
		}
		return &LangchainGenerator{llm: llm}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", llmConfig.Provider)
	}
}

// LangchainGenerator adapts any langchaingo model.
type LangchainGenerator struct {
	llm llms.Model
}

func (g *LangchainGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	res, err := GenerateContent(ctx, g.llm, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, system),
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	})
	if err != nil {
		return "", err
	}
	if len(res.Choices) == 0 {
		return "", errors.New("empty response from model")
	}
	return res.Choices[0].Content, nil
}

// call llm
func GenerateContent(ctx context.Context, llm llms.Model, messages []llms.MessageContent) (*llms.ContentResponse, error) {
	return llm.GenerateContent(ctx, messages)
}
