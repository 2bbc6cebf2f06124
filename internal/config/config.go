package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	BackendPinecone = "pinecone"
	BackendQdrant   = "qdrant"
)

type Config struct {
	APIPort         string `yaml:"api_port" validate:"required"`
	LogLevel        string `yaml:"log_level"`
	MaxRequestBytes int64  `yaml:"max_request_bytes" validate:"gte=1024"`

	LLMProvider string `yaml:"llm_provider" validate:"oneof=openai ollama"`

	OpenAIAPIKey     string `yaml:"-" validate:"required_if=LLMProvider openai"`
	OpenAIBaseURL    string `yaml:"openai_base_url" validate:"omitempty,url"`
	OpenAIEmbedModel string `yaml:"openai_embed_model" validate:"required_if=LLMProvider openai"`
	OpenAIGenModel   string `yaml:"openai_gen_model" validate:"required_if=LLMProvider openai"`

	OllamaURL        string `yaml:"ollama_url" validate:"omitempty,url"`
	OllamaEmbedModel string `yaml:"ollama_embed_model" validate:"required_if=LLMProvider ollama"`
	OllamaGenModel   string `yaml:"ollama_gen_model" validate:"required_if=LLMProvider ollama"`

	VectorBackend string `yaml:"vector_backend" validate:"oneof=pinecone qdrant"`

	PineconeAPIKey     string `yaml:"-" validate:"required_if=VectorBackend pinecone"`
	PineconeIndex      string `yaml:"pinecone_index" validate:"required_without=PineconeIndexHost"`
	PineconeIndexHost  string `yaml:"pinecone_index_host"`
	PineconeControlURL string `yaml:"pinecone_control_url" validate:"omitempty,url"`
	PineconeNamespace  string `yaml:"pinecone_namespace"`

	QdrantURL        string `yaml:"qdrant_url" validate:"omitempty,url"`
	QdrantAPIKey     string `yaml:"-"`
	QdrantCollection string `yaml:"qdrant_collection" validate:"required_if=VectorBackend qdrant"`

	RecommendTopK         int     `yaml:"recommend_top_k" validate:"min=1,max=50"`
	GenerationTemperature float64 `yaml:"generation_temperature" validate:"gte=0,lte=2"`
	GenerationMaxTokens   int     `yaml:"generation_max_tokens" validate:"min=1"`
	ReasoningConcurrency  int     `yaml:"reasoning_concurrency" validate:"min=1,max=16"`
	RetrievalStrict       bool    `yaml:"retrieval_strict"`

	EmbedTimeoutSeconds      int `yaml:"embed_timeout_seconds" validate:"min=1"`
	IndexTimeoutSeconds      int `yaml:"index_timeout_seconds" validate:"min=1"`
	GenerationTimeoutSeconds int `yaml:"generation_timeout_seconds" validate:"min=1"`

	BreakerEnabled         bool    `yaml:"breaker_enabled"`
	GenerationRateLimitRPS float64 `yaml:"generation_rate_limit_rps" validate:"gte=0"`
}

func Defaults() Config {
	return Config{
		APIPort:         "8080",
		LogLevel:        "info",
		MaxRequestBytes: 1 << 20,

		LLMProvider:      ProviderOpenAI,
		OpenAIBaseURL:    "https://api.openai.com/v1",
		OpenAIEmbedModel: "text-embedding-3-large",
		OpenAIGenModel:   "gpt-4.1",

		OllamaURL:        "http://localhost:11434",
		OllamaEmbedModel: "nomic-embed-text",
		OllamaGenModel:   "llama3.1:8b",

		VectorBackend:      BackendPinecone,
		PineconeIndex:      "fragrance-recommendations-openai",
		PineconeControlURL: "https://api.pinecone.io",

		QdrantURL:        "http://localhost:6333",
		QdrantCollection: "fragrances",

		RecommendTopK:         3,
		GenerationTemperature: 0.2,
		GenerationMaxTokens:   150,
		ReasoningConcurrency:  3,

		EmbedTimeoutSeconds:      15,
		IndexTimeoutSeconds:      10,
		GenerationTimeoutSeconds: 30,

		BreakerEnabled: true,
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by CONFIG_FILE and the environment, in that order of precedence.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	cfg = Config{
		APIPort:         mustEnv("API_PORT", cfg.APIPort),
		LogLevel:        mustEnv("LOG_LEVEL", cfg.LogLevel),
		MaxRequestBytes: int64(mustEnvInt("MAX_REQUEST_BYTES", int(cfg.MaxRequestBytes))),

		LLMProvider: mustEnv("LLM_PROVIDER", cfg.LLMProvider),

		OpenAIAPIKey:     mustEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey),
		OpenAIBaseURL:    mustEnv("OPENAI_BASE_URL", cfg.OpenAIBaseURL),
		OpenAIEmbedModel: mustEnv("OPENAI_EMBED_MODEL", cfg.OpenAIEmbedModel),
		OpenAIGenModel:   mustEnv("OPENAI_GEN_MODEL", cfg.OpenAIGenModel),

		OllamaURL:        mustEnv("OLLAMA_URL", cfg.OllamaURL),
		OllamaEmbedModel: mustEnv("OLLAMA_EMBED_MODEL", cfg.OllamaEmbedModel),
		OllamaGenModel:   mustEnv("OLLAMA_GEN_MODEL", cfg.OllamaGenModel),

		VectorBackend: mustEnv("VECTOR_BACKEND", cfg.VectorBackend),

		PineconeAPIKey:     mustEnv("PINECONE_API_KEY", cfg.PineconeAPIKey),
		PineconeIndex:      mustEnv("PINECONE_INDEX", cfg.PineconeIndex),
		PineconeIndexHost:  mustEnv("PINECONE_INDEX_HOST", cfg.PineconeIndexHost),
		PineconeControlURL: mustEnv("PINECONE_CONTROL_URL", cfg.PineconeControlURL),
		PineconeNamespace:  mustEnv("PINECONE_NAMESPACE", cfg.PineconeNamespace),

		QdrantURL:        mustEnv("QDRANT_URL", cfg.QdrantURL),
		QdrantAPIKey:     mustEnv("QDRANT_API_KEY", cfg.QdrantAPIKey),
		QdrantCollection: mustEnv("QDRANT_COLLECTION", cfg.QdrantCollection),

		RecommendTopK:         mustEnvInt("RECOMMEND_TOP_K", cfg.RecommendTopK),
		GenerationTemperature: mustEnvFloat("GENERATION_TEMPERATURE", cfg.GenerationTemperature),
		GenerationMaxTokens:   mustEnvInt("GENERATION_MAX_TOKENS", cfg.GenerationMaxTokens),
		ReasoningConcurrency:  mustEnvInt("REASONING_CONCURRENCY", cfg.ReasoningConcurrency),
		RetrievalStrict:       mustEnvBool("RETRIEVAL_STRICT", cfg.RetrievalStrict),

		EmbedTimeoutSeconds:      mustEnvInt("EMBED_TIMEOUT_SECONDS", cfg.EmbedTimeoutSeconds),
		IndexTimeoutSeconds:      mustEnvInt("INDEX_TIMEOUT_SECONDS", cfg.IndexTimeoutSeconds),
		GenerationTimeoutSeconds: mustEnvInt("GENERATION_TIMEOUT_SECONDS", cfg.GenerationTimeoutSeconds),

		BreakerEnabled:         mustEnvBool("BREAKER_ENABLED", cfg.BreakerEnabled),
		GenerationRateLimitRPS: mustEnvFloat("GENERATION_RATE_LIMIT_RPS", cfg.GenerationRateLimitRPS),
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func overlayFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
