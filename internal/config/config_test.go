package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PINECONE_API_KEY", "pc-test")
}

func TestLoadIncludesRecommendationDefaults(t *testing.T) {
	setCredentials(t)
	t.Setenv("RECOMMEND_TOP_K", "")
	t.Setenv("GENERATION_TEMPERATURE", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("VECTOR_BACKEND", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RecommendTopK != 3 {
		t.Fatalf("expected default top k 3, got %d", cfg.RecommendTopK)
	}
	if cfg.GenerationTemperature != 0.2 || cfg.GenerationMaxTokens != 150 {
		t.Fatalf("unexpected generation defaults: %v %d", cfg.GenerationTemperature, cfg.GenerationMaxTokens)
	}
	if cfg.OpenAIEmbedModel != "text-embedding-3-large" || cfg.OpenAIGenModel != "gpt-4.1" {
		t.Fatalf("unexpected model defaults: %q %q", cfg.OpenAIEmbedModel, cfg.OpenAIGenModel)
	}
	if cfg.PineconeIndex != "fragrance-recommendations-openai" {
		t.Fatalf("unexpected index default %q", cfg.PineconeIndex)
	}
	if cfg.LLMProvider != ProviderOpenAI || cfg.VectorBackend != BackendPinecone {
		t.Fatalf("unexpected provider defaults: %q %q", cfg.LLMProvider, cfg.VectorBackend)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	setCredentials(t)
	t.Setenv("RECOMMEND_TOP_K", "5")
	t.Setenv("GENERATION_TEMPERATURE", "0")
	t.Setenv("REASONING_CONCURRENCY", "1")
	t.Setenv("RETRIEVAL_STRICT", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RecommendTopK != 5 || cfg.GenerationTemperature != 0 || cfg.ReasoningConcurrency != 1 || !cfg.RetrievalStrict {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRequiresHostedCredentials(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("PINECONE_API_KEY", "pc-test")
	t.Setenv("LLM_PROVIDER", "openai")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected missing OpenAI key to fail validation")
	}
	if !strings.Contains(err.Error(), "OpenAIAPIKey") {
		t.Fatalf("expected OpenAIAPIKey in error, got %v", err)
	}
}

func TestLoadOllamaAndQdrantNeedNoKeys(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("PINECONE_API_KEY", "")
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("VECTOR_BACKEND", "qdrant")

	if _, err := Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestLoadRejectsOutOfRangeTopK(t *testing.T) {
	setCredentials(t)
	t.Setenv("RECOMMEND_TOP_K", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("expected top k 0 to fail validation")
	}
}

func TestLoadOverlaysYAMLFileBelowEnv(t *testing.T) {
	setCredentials(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "recommend_top_k: 7\nopenai_gen_model: gpt-4.1-mini\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("RECOMMEND_TOP_K", "4")
	t.Setenv("OPENAI_GEN_MODEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OpenAIGenModel != "gpt-4.1-mini" {
		t.Fatalf("expected model from file, got %q", cfg.OpenAIGenModel)
	}
	if cfg.RecommendTopK != 4 {
		t.Fatalf("expected env to win over file, got %d", cfg.RecommendTopK)
	}
}
