package embedding

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"pdf-quiz/internal/config"
	"pdf-quiz/internal/models"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder turns a piece of text into a vector.
// *embeddings.EmbedderImpl satisfies it.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// NewEmbedder creates the embedder for LLMconfig.Provider
func NewEmbedder(LLMconfig *config.LLMConfig) (Embedder, error) {
	log.Debug().Interface("config", map[string]string{
		"provider":        LLMconfig.Provider,
		"base_url":        LLMconfig.BaseURL,
		"embedding_model": LLMconfig.Model,
	}).Msg("Creating embedder")

	switch LLMconfig.Provider {
	case "openai":
		return NewOpenAIEmbedder(LLMconfig), nil
	case "openrouter":
		llm, err := openai.New(
			openai.WithBaseURL(LLMconfig.BaseURL),
			openai.WithToken(strings.TrimPrefix(LLMconfig.Key, "Bearer ")),
			openai.WithEmbeddingModel(LLMconfig.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedding llm: %w", err)
		}
		return newLangchainEmbedder(llm)
	case "ollama":
		llm, err := ollama.New(
			ollama.WithServerURL(LLMconfig.BaseURL),
			ollama.WithModel(LLMconfig.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedding llm: %w", err)
		}
		return newLangchainEmbedder(llm)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", LLMconfig.Provider)
	}
}

func newLangchainEmbedder(client embeddings.EmbedderClient) (Embedder, error) {
	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}

// EmbedChunks embeds every chunk, one call each, and returns the records
// to upsert under namespace. The first failing call aborts the batch.
func EmbedChunks(ctx context.Context, embedder Embedder, namespace string, chunks []models.Chunk) ([]models.VectorRecord, error) {
	if len(chunks) == 0 {
		log.Info().Str("namespace", namespace).Msg("No chunks to embed")
		return nil, nil
	}

	records := make([]models.VectorRecord, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := embedder.EmbedQuery(ctx, chunk.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk %d: %w", chunk.Index, err)
		}
		records = append(records, models.VectorRecord{
			ID:        RecordID(namespace, chunk.Index),
			Namespace: namespace,
			Content:   chunk.Content,
			Embedding: vector,
			Metadata: map[string]string{
				models.MetadataText:       chunk.Content,
				models.MetadataChunkIndex: strconv.Itoa(chunk.Index),
			},
		})
	}
	log.Debug().Str("namespace", namespace).Int("records", len(records)).Msg("Embedded chunks")
	return records, nil
}

// RecordID is the vector id of chunk index within namespace.
func RecordID(namespace string, index int) string {
	return fmt.Sprintf(models.NamespaceChunkFormat, namespace, index)
}

// ChunkIndex reads the chunk position stored in a record's metadata, or
// -1 when it is missing.
func ChunkIndex(r models.VectorRecord) int {
	i, err := strconv.Atoi(r.Metadata[models.MetadataChunkIndex])
	if err != nil {
		return -1
	}
	return i
}
