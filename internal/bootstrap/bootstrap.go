package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/fragrance-recommender/internal/adapters/http/openapi"
	"github.com/kirillkom/fragrance-recommender/internal/config"
	"github.com/kirillkom/fragrance-recommender/internal/core/ports"
	"github.com/kirillkom/fragrance-recommender/internal/core/usecase"
	"github.com/kirillkom/fragrance-recommender/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/fragrance-recommender/internal/infrastructure/llm/openai"
	"github.com/kirillkom/fragrance-recommender/internal/infrastructure/resilience"
	"github.com/kirillkom/fragrance-recommender/internal/infrastructure/vector/pinecone"
	"github.com/kirillkom/fragrance-recommender/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/fragrance-recommender/internal/observability/metrics"
)

const ServiceName = "fragrance-api"

type App struct {
	Config config.Config

	Embedder    ports.Embedder
	Index       ports.VectorIndex
	Generator   ports.TextGenerator
	Recommender ports.Recommender

	Validator *openapi.Validator
	Metrics   *metrics.HTTPServerMetrics
}

// New wires the external clients, the pipeline use cases and the HTTP
// support objects once per process. The clients are shared by all requests.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	embedExec := resilience.NewExecutor(executorConfig(cfg, cfg.EmbedTimeoutSeconds, 0))
	indexExec := resilience.NewExecutor(executorConfig(cfg, cfg.IndexTimeoutSeconds, 0))
	genExec := resilience.NewExecutor(executorConfig(cfg, cfg.GenerationTimeoutSeconds, cfg.GenerationRateLimitRPS))

	embedder, generator, err := newLanguageModel(cfg, embedExec, genExec)
	if err != nil {
		return nil, err
	}
	index, err := newVectorIndex(ctx, cfg, indexExec)
	if err != nil {
		return nil, err
	}

	validator, err := openapi.NewValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("init request validator: %w", err)
	}
	httpMetrics := metrics.NewHTTPServerMetrics(ServiceName)

	retrievalUC := usecase.NewRetrievalUseCase(embedder, index)
	reasoningUC := usecase.NewReasoningUseCase(generator, usecase.ReasoningOptions{
		Temperature: cfg.GenerationTemperature,
		MaxTokens:   cfg.GenerationMaxTokens,
	})
	recommendUC := usecase.NewRecommendUseCase(retrievalUC, reasoningUC, httpMetrics, usecase.RecommendOptions{
		TopK:            cfg.RecommendTopK,
		Concurrency:     cfg.ReasoningConcurrency,
		StrictRetrieval: cfg.RetrievalStrict,
	})

	slog.Info("bootstrap_ready",
		"llm_provider", cfg.LLMProvider,
		"vector_backend", cfg.VectorBackend,
		"top_k", cfg.RecommendTopK,
		"reasoning_concurrency", cfg.ReasoningConcurrency,
	)

	return &App{
		Config:      cfg,
		Embedder:    embedder,
		Index:       index,
		Generator:   generator,
		Recommender: recommendUC,
		Validator:   validator,
		Metrics:     httpMetrics,
	}, nil
}

func executorConfig(cfg config.Config, timeoutSeconds int, rps float64) resilience.Config {
	rc := resilience.DefaultConfig()
	rc.CallTimeout = time.Duration(timeoutSeconds) * time.Second
	rc.BreakerEnabled = cfg.BreakerEnabled
	rc.RateLimitRPS = rps
	if rps > 0 {
		rc.RateLimitBurst = int(rps) + 1
	}
	return rc
}

func newLanguageModel(cfg config.Config, embedExec, genExec *resilience.Executor) (ports.Embedder, ports.TextGenerator, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		embedClient := openai.New(openai.Options{
			BaseURL:    cfg.OpenAIBaseURL,
			APIKey:     cfg.OpenAIAPIKey,
			EmbedModel: cfg.OpenAIEmbedModel,
			Executor:   embedExec,
		})
		genClient := openai.New(openai.Options{
			BaseURL:  cfg.OpenAIBaseURL,
			APIKey:   cfg.OpenAIAPIKey,
			GenModel: cfg.OpenAIGenModel,
			Executor: genExec,
		})
		return openai.NewEmbedder(embedClient), openai.NewGenerator(genClient), nil
	case config.ProviderOllama:
		embedClient := ollama.New(cfg.OllamaURL, "", cfg.OllamaEmbedModel, embedExec)
		genClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, "", genExec)
		return ollama.NewEmbedder(embedClient), ollama.NewGenerator(genClient), nil
	default:
		return nil, nil, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
}

func newVectorIndex(ctx context.Context, cfg config.Config, exec *resilience.Executor) (ports.VectorIndex, error) {
	switch cfg.VectorBackend {
	case config.BackendPinecone:
		host := cfg.PineconeIndexHost
		if host == "" {
			resolveCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.IndexTimeoutSeconds)*time.Second)
			defer cancel()
			resolved, err := pinecone.ResolveHost(resolveCtx, cfg.PineconeControlURL, cfg.PineconeAPIKey, cfg.PineconeIndex)
			if err != nil {
				return nil, fmt.Errorf("resolve pinecone index %s: %w", cfg.PineconeIndex, err)
			}
			host = resolved
		}
		return pinecone.New(pinecone.Options{
			Host:      host,
			APIKey:    cfg.PineconeAPIKey,
			Namespace: cfg.PineconeNamespace,
			Executor:  exec,
		}), nil
	case config.BackendQdrant:
		return qdrant.New(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.QdrantCollection, exec), nil
	default:
		return nil, fmt.Errorf("unsupported vector backend %q", cfg.VectorBackend)
	}
}
