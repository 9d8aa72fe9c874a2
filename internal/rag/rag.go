package rag

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"pdf-quiz/internal/config"
	"pdf-quiz/internal/embedding"
	"pdf-quiz/internal/helper"
	"pdf-quiz/internal/llmservice"
	"pdf-quiz/internal/models"
	"pdf-quiz/internal/parser"
	"pdf-quiz/internal/quiz"
	"pdf-quiz/internal/vectorstore"

	"github.com/rs/zerolog/log"
)

// Upload is one document to turn into a quiz.
type Upload struct {
	Path string
	// Name is the original file name; the namespace is derived from it.
	// Defaults to Path.
	Name         string
	ChunkSize    int
	NumQuestions int
	Topic        string
}

// Pipeline runs extract, chunk, embed, store, generate and parse for a
// document.
type Pipeline struct {
	embedder  embedding.Embedder
	store     vectorstore.Store
	generator llmservice.Generator
	cfg       *config.Config

	// newRand returns a fresh source per sampling call (nil means first
	// chunks); a rand.Rand must not be shared between requests.
	newRand func() *rand.Rand
	extract func(path string) (string, error)
}

func NewPipeline(embedder embedding.Embedder, store vectorstore.Store, generator llmservice.Generator, cfg *config.Config) *Pipeline {
	p := &Pipeline{
		embedder:  embedder,
		store:     store,
		generator: generator,
		cfg:       cfg,
		extract:   parser.ExtractText,
		newRand:   func() *rand.Rand { return nil },
	}
	if cfg.RAG.RandomSample {
		p.newRand = func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		}
	}
	return p
}

// Process extracts the text of u.Path and generates questions from it.
func (p *Pipeline) Process(ctx context.Context, u Upload) ([]models.Question, error) {
	log.Info().Str("file", u.Path).Msg("Extracting text")
	text, err := p.extract(u.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text from %s: %w", u.Path, err)
	}
	if u.Name == "" {
		u.Name = u.Path
	}
	return p.FromText(ctx, u, text)
}

// FromText runs the pipeline on already extracted text.
func (p *Pipeline) FromText(ctx context.Context, u Upload, text string) ([]models.Question, error) {
	chunkSize := u.ChunkSize
	if chunkSize <= 0 {
		chunkSize = p.cfg.RAG.ChunkSize
	}
	n := u.NumQuestions
	if n <= 0 {
		n = p.cfg.Quiz.NumQuestions
	}
	namespace := helper.Namespace(u.Name)

	chunks := parser.ChunkText(text, chunkSize)
	log.Info().Str("namespace", namespace).Int("chunks", len(chunks)).Int("chunk_size", chunkSize).Msg("Chunked document")

	records, err := embedding.EmbedChunks(ctx, p.embedder, namespace, chunks)
	if err != nil {
		return nil, err
	}
	if err := p.store.Upsert(ctx, namespace, records); err != nil {
		return nil, err
	}
	if p.cfg.RAG.ClearAfterQuiz {
		defer func() {
			if err := p.store.DeleteNamespace(context.WithoutCancel(ctx), namespace); err != nil {
				log.Error().Err(err).Str("namespace", namespace).Msg("Failed to clear namespace")
			}
		}()
	}

	docContext, err := p.buildContext(ctx, namespace, chunks, u.Topic)
	if err != nil {
		return nil, err
	}

	var raw string
	if p.cfg.Quiz.UseRetry {
		raw, err = quiz.NewRetryPolicy(p.cfg.Quiz).Generate(ctx, p.generator, docContext, n)
	} else {
		raw, err = quiz.Generate(ctx, p.generator, docContext, n)
	}
	if err != nil {
		return nil, err
	}

	questions := quiz.ParseMCQs(raw)
	if len(questions) < n {
		log.Warn().Int("requested", n).Int("parsed", len(questions)).Msg("Fewer questions than requested")
	}
	log.Info().Str("namespace", namespace).Int("questions", len(questions)).Msg("Generated quiz")
	return questions, nil
}

func (p *Pipeline) buildContext(ctx context.Context, namespace string, chunks []models.Chunk, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return quiz.JoinContext(quiz.SampleChunks(chunks, p.cfg.RAG.ContextChunks, p.newRand())), nil
	}
	retrieved, err := p.Retrieve(ctx, namespace, topic, p.cfg.RAG.TopK)
	if err != nil {
		return "", err
	}
	return quiz.JoinContext(retrieved), nil
}

// Retrieve returns the k chunks of namespace nearest to query, in
// document order.
func (p *Pipeline) Retrieve(ctx context.Context, namespace, query string, k int) ([]models.Chunk, error) {
	vector, err := p.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	records, err := p.store.Query(ctx, namespace, vector, k)
	if err != nil {
		return nil, err
	}

	chunks := make([]models.Chunk, len(records))
	for i, r := range records {
		chunks[i] = models.Chunk{Index: embedding.ChunkIndex(r), Content: r.Content}
	}
	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })
	log.Debug().Str("namespace", namespace).Int("retrieved", len(chunks)).Msg("Retrieved chunks")
	return chunks, nil
}

// Clear deletes a stored namespace.
func (p *Pipeline) Clear(ctx context.Context, namespace string) error {
	return p.store.DeleteNamespace(ctx, namespace)
}
