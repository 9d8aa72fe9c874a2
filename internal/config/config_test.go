package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RAG.ChunkSize != DefaultChunkSize {
		t.Errorf("chunk size = %d, want %d", cfg.RAG.ChunkSize, DefaultChunkSize)
	}
	if cfg.Quiz.MaxAttempts != 3 || cfg.Quiz.RetryDelay != 5*time.Second {
		t.Errorf("retry defaults = %d/%s", cfg.Quiz.MaxAttempts, cfg.Quiz.RetryDelay)
	}
	if cfg.VectorStore.Backend != "chromem" {
		t.Errorf("backend = %q", cfg.VectorStore.Backend)
	}
}

func TestLoadConfigYAML(t *testing.T) {
	t.Setenv("PORT", "")
	path := writeConfig(t, `
rag:
  chunk_size: 500
quiz:
  num_questions: 4
  use_retry: true
  retry_delay: 250ms
inference_llm:
  provider: ollama
  base_url: http://localhost:11434
  model: llama3
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RAG.ChunkSize != 500 || cfg.Quiz.NumQuestions != 4 || !cfg.Quiz.UseRetry {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Quiz.RetryDelay != 250*time.Millisecond {
		t.Errorf("retry delay = %s", cfg.Quiz.RetryDelay)
	}
	if cfg.InferenceLLM.Provider != "ollama" || cfg.InferenceLLM.Model != "llama3" {
		t.Errorf("inference llm = %+v", cfg.InferenceLLM)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-shared")
	t.Setenv("INFERENCE_API_KEY", "sk-inference")
	t.Setenv("PORT", "8081")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.EmbedLLM.Key != "sk-shared" {
		t.Errorf("embed key = %q", cfg.EmbedLLM.Key)
	}
	if cfg.InferenceLLM.Key != "sk-inference" {
		t.Errorf("inference key = %q", cfg.InferenceLLM.Key)
	}
	if cfg.Server.Addr != ":8081" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative chunk size", "rag:\n  chunk_size: -1\n"},
		{"unknown provider", "embed_llm:\n  provider: nope\n"},
		{"unknown backend", "vector_store:\n  backend: pinecone\n"},
		{"postgres without dsn", "vector_store:\n  backend: postgres\n"},
	}
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.body)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
