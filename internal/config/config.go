package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultChunkSize     = 1000
	DefaultNumQuestions  = 2
	DefaultContextChunks = 3
	DefaultMaxAttempts   = 3
	DefaultRetryDelay    = 5 * time.Second
)

type Config struct {
	LogLevel     string            `yaml:"log_level"`
	Server       ServerConfig      `yaml:"server"`
	EmbedLLM     LLMConfig         `yaml:"embed_llm"`
	InferenceLLM LLMConfig         `yaml:"inference_llm"`
	VectorStore  VectorStoreConfig `yaml:"vector_store"`
	Database     DatabaseConfig    `yaml:"database"`
	RAG          RAGConfig         `yaml:"rag"`
	Quiz         QuizConfig        `yaml:"quiz"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	UploadDir      string   `yaml:"upload_dir"`
	MaxUploadMB    int64    `yaml:"max_upload_mb"`
	SessionSecret  string   `yaml:"session_secret"`
	// AllowedOrigins enables CORS for these origins when set.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LLMConfig describes one model endpoint. Provider is one of
// "openai", "openrouter" or "ollama".
type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

type VectorStoreConfig struct {
	Backend       string `yaml:"backend"` // chromem | postgres
	Path          string `yaml:"path"`
	InMemory      bool   `yaml:"in_memory"`
	Compress      bool   `yaml:"compress"`
	EncryptionKey string `yaml:"encryption_key"`
}

type DatabaseConfig struct {
	Driver     string `yaml:"driver"` // pgdriver | postgres
	DSN        string `yaml:"dsn"`
	Password   string `yaml:"password"`
	VectorSize int    `yaml:"vector_size"`
	Debug      bool   `yaml:"debug"`
}

type RAGConfig struct {
	ChunkSize      int  `yaml:"chunk_size"`
	ContextChunks  int  `yaml:"context_chunks"`
	RandomSample   bool `yaml:"random_sample"`
	TopK           int  `yaml:"top_k"`
	ClearAfterQuiz bool `yaml:"clear_after_quiz"`
}

type QuizConfig struct {
	NumQuestions int           `yaml:"num_questions"`
	UseRetry     bool          `yaml:"use_retry"`
	MaxAttempts  int           `yaml:"max_attempts"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
}

// LoadConfig reads the YAML file at path, fills defaults and applies
// environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = "uploads"
	}
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = 32
	}
	if c.EmbedLLM.Provider == "" {
		c.EmbedLLM.Provider = "openai"
	}
	if c.EmbedLLM.Model == "" {
		c.EmbedLLM.Model = "text-embedding-3-small"
	}
	if c.InferenceLLM.Provider == "" {
		c.InferenceLLM.Provider = "openai"
	}
	if c.InferenceLLM.Model == "" {
		c.InferenceLLM.Model = "gpt-4o"
	}
	if c.VectorStore.Backend == "" {
		c.VectorStore.Backend = "chromem"
	}
	if c.VectorStore.Path == "" {
		c.VectorStore.Path = "./chromemdb"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "pgdriver"
	}
	if c.Database.VectorSize == 0 {
		c.Database.VectorSize = 1536
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = DefaultChunkSize
	}
	if c.RAG.ContextChunks == 0 {
		c.RAG.ContextChunks = DefaultContextChunks
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = DefaultContextChunks
	}
	if c.Quiz.NumQuestions == 0 {
		c.Quiz.NumQuestions = DefaultNumQuestions
	}
	if c.Quiz.MaxAttempts == 0 {
		c.Quiz.MaxAttempts = DefaultMaxAttempts
	}
	if c.Quiz.RetryDelay == 0 {
		c.Quiz.RetryDelay = DefaultRetryDelay
	}
}

func (c *Config) applyEnv() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if c.EmbedLLM.Key == "" {
			c.EmbedLLM.Key = key
		}
		if c.InferenceLLM.Key == "" {
			c.InferenceLLM.Key = key
		}
	}
	if key := os.Getenv("EMBED_API_KEY"); key != "" {
		c.EmbedLLM.Key = key
	}
	if key := os.Getenv("INFERENCE_API_KEY"); key != "" {
		c.InferenceLLM.Key = key
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("SESSION_SECRET"); secret != "" {
		c.Server.SessionSecret = secret
	}
	if key := os.Getenv("VECTOR_ENCRYPTION_KEY"); key != "" {
		c.VectorStore.EncryptionKey = key
	}
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.RAG.ChunkSize < 0 {
		return fmt.Errorf("rag.chunk_size must be positive, got %d", c.RAG.ChunkSize)
	}
	if c.RAG.ContextChunks < 0 || c.RAG.TopK < 0 {
		return errors.New("rag.context_chunks and rag.top_k must be positive")
	}
	if c.Quiz.NumQuestions < 0 {
		return fmt.Errorf("quiz.num_questions must be positive, got %d", c.Quiz.NumQuestions)
	}
	if c.Quiz.MaxAttempts < 0 || c.Quiz.RetryDelay < 0 {
		return errors.New("quiz.max_attempts and quiz.retry_delay must not be negative")
	}
	for _, l := range []LLMConfig{c.EmbedLLM, c.InferenceLLM} {
		switch l.Provider {
		case "openai", "openrouter", "ollama":
		default:
			return fmt.Errorf("unknown llm provider %q", l.Provider)
		}
	}
	switch c.VectorStore.Backend {
	case "chromem":
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required for the postgres vector store")
		}
	default:
		return fmt.Errorf("unknown vector store backend %q", c.VectorStore.Backend)
	}
	switch c.Database.Driver {
	case "pgdriver", "postgres":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	return nil
}
