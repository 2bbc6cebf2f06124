package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/kirillkom/fragrance-recommender/internal/core/domain"
	"github.com/kirillkom/fragrance-recommender/internal/infrastructure/resilience"
)

const DefaultBaseURL = "https://api.openai.com/v1"

var ErrEmptyCompletion = errors.New("openai empty completion")

type Client struct {
	baseURL    string
	apiKey     string
	genModel   string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	BaseURL    string
	APIKey     string
	GenModel   string
	EmbedModel string
	// Executor guards each call; nil means a default executor.
	Executor *resilience.Executor
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	executor := opts.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     opts.APIKey,
		genModel:   opts.GenModel,
		embedModel: opts.EmbedModel,
		httpClient: &http.Client{},
		executor:   executor,
	}
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	request := map[string]any{
		"model": e.client.embedModel,
		"input": []string{text},
	}

	var response struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := e.client.call(ctx, "/embeddings", request, &response, "embeddings"); err != nil {
		return nil, err
	}
	if len(response.Data) == 0 || len(response.Data[0].Embedding) == 0 {
		return nil, errors.New("openai empty embedding result")
	}
	return response.Data[0].Embedding, nil
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	request := map[string]any{
		"model": g.client.genModel,
		"messages": []map[string]string{
			{"role": "system", "content": req.System},
			{"role": "user", "content": req.User},
		},
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		request["max_tokens"] = req.MaxTokens
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := g.client.call(ctx, "/chat/completions", request, &response, "chat completion"); err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	content := strings.TrimSpace(response.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}

func (c *Client) call(ctx context.Context, path string, payload any, out any, operation string) error {
	err := c.executor.Execute(ctx, "openai_"+strings.ReplaceAll(operation, " ", "_"), func(callCtx context.Context) error {
		return c.postJSON(callCtx, path, payload, out, operation)
	}, classifyOpenAIError)
	return wrapTemporaryIfNeeded("openai "+operation, err)
}
