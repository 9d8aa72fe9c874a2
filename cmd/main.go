package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pdf-quiz/internal/api"
	"pdf-quiz/internal/config"
	"pdf-quiz/internal/embedding"
	"pdf-quiz/internal/helper"
	"pdf-quiz/internal/llmservice"
	"pdf-quiz/internal/parser"
	"pdf-quiz/internal/rag"
	"pdf-quiz/internal/vectorstore"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	filePath := flag.String("file", "", "Path to the document file")
	chunkSize := flag.Int("chunk-size", 0, "Chunk size in characters (default from config)")
	numQuestions := flag.Int("num-questions", 0, "Number of questions to generate (default from config)")
	topic := flag.String("topic", "", "Build the context from chunks nearest to this topic")
	retry := flag.Bool("retry", false, "Retry generation until the output has a well-formed question")
	dryRun := flag.Bool("dry-run", false, "Extract and chunk only, do not call any service")
	serve := flag.Bool("serve", false, "Start the web server")
	clearNS := flag.String("clear", "", "Delete the given namespace from the vector store")
	reset := flag.Bool("reset", false, "Delete every namespace from the vector store")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("log_level", cfg.LogLevel).Msg("Invalid log level")
	}
	zerolog.SetGlobalLevel(level)
	if *retry {
		cfg.Quiz.UseRetry = true
	}

	ctx := context.Background()
	switch {
	case *dryRun && *filePath != "":
		chunkDocument(*filePath, *chunkSize, cfg)
	case *reset:
		resetStore(ctx, cfg)
	case *clearNS != "":
		clearNamespace(ctx, *clearNS, cfg)
	case *serve:
		runServer(ctx, cfg)
	case *filePath != "":
		generateQuiz(ctx, rag.Upload{
			Path:         *filePath,
			ChunkSize:    *chunkSize,
			NumQuestions: *numQuestions,
			Topic:        *topic,
		}, cfg)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func newPipeline(ctx context.Context, cfg *config.Config) (*rag.Pipeline, func() error) {
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}
	generator, err := llmservice.NewGenerator(&cfg.InferenceLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing generator")
	}
	store, closeStore, err := vectorstore.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing vector store")
	}
	return rag.NewPipeline(embedder, store, generator, cfg), closeStore
}

func generateQuiz(ctx context.Context, upload rag.Upload, cfg *config.Config) {
	pipeline, closeStore := newPipeline(ctx, cfg)
	defer closeStore()

	questions, err := pipeline.Process(ctx, upload)
	if err != nil {
		log.Error().Err(err).Str("file", upload.Path).Msg("Error generating quiz")
		return
	}
	helper.PrettyPrint(questions)
}

func chunkDocument(filePath string, chunkSize int, cfg *config.Config) {
	text, err := parser.ExtractText(filePath)
	if err != nil {
		log.Error().Err(err).Msg("Error parsing document")
		return
	}
	if chunkSize <= 0 {
		chunkSize = cfg.RAG.ChunkSize
	}
	chunks := parser.ChunkText(text, chunkSize)
	log.Info().
		Str("namespace", helper.Namespace(filePath)).
		Int("chars", len(text)).
		Int("chunks", len(chunks)).
		Msg("Dry run, nothing embedded")
	helper.PrettyPrint(chunks)
}

func clearNamespace(ctx context.Context, namespace string, cfg *config.Config) {
	store, closeStore, err := vectorstore.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing vector store")
	}
	defer closeStore()
	if err := store.DeleteNamespace(ctx, namespace); err != nil {
		log.Error().Err(err).Msg("Error clearing namespace")
	}
}

func resetStore(ctx context.Context, cfg *config.Config) {
	store, closeStore, err := vectorstore.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing vector store")
	}
	defer closeStore()
	r, ok := store.(vectorstore.Resetter)
	if !ok {
		log.Error().Str("backend", cfg.VectorStore.Backend).Msg("Vector store cannot be reset")
		return
	}
	if err := r.Reset(ctx); err != nil {
		log.Error().Err(err).Msg("Error resetting vector store")
	}
}

func runServer(ctx context.Context, cfg *config.Config) {
	pipeline, closeStore := newPipeline(ctx, cfg)
	defer closeStore()

	if level := zerolog.GlobalLevel(); level > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	handler, err := api.NewHandler(pipeline, cfg.Server.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing handler")
	}
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.NewRouter(handler, cfg.Server),
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
}
