package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kirillkom/fragrance-recommender/internal/core/domain"
	"github.com/kirillkom/fragrance-recommender/internal/infrastructure/resilience"
)

const (
	DefaultControlURL = "https://api.pinecone.io"
	apiVersion        = "2024-07"
)

// Client queries a single Pinecone index through its data plane host.
type Client struct {
	host       string
	apiKey     string
	namespace  string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	// Host is the index data plane host, with or without scheme.
	Host      string
	APIKey    string
	Namespace string
	Executor  *resilience.Executor
}

func New(opts Options) *Client {
	executor := opts.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{
		host:       normalizeHost(opts.Host),
		apiKey:     opts.APIKey,
		namespace:  opts.Namespace,
		httpClient: &http.Client{},
		executor:   executor,
	}
}

// ResolveHost looks up the data plane host of an index by name.
func ResolveHost(ctx context.Context, controlURL, apiKey, index string) (string, error) {
	if strings.TrimSpace(controlURL) == "" {
		controlURL = DefaultControlURL
	}
	url := fmt.Sprintf("%s/indexes/%s", strings.TrimRight(controlURL, "/"), index)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create describe index request: %w", err)
	}
	setHeaders(req, apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("pinecone describe index request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", newStatusError("describe index", resp)
	}

	var describe struct {
		Host string `json:"host"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&describe); err != nil {
		return "", fmt.Errorf("decode describe index response: %w", err)
	}
	if describe.Host == "" {
		return "", fmt.Errorf("pinecone index %q has no host", index)
	}
	return describe.Host, nil
}

func (c *Client) Query(ctx context.Context, vector []float32, topK int) ([]domain.ItemMatch, error) {
	var out []domain.ItemMatch
	err := c.executor.Execute(ctx, "pinecone_query", func(callCtx context.Context) error {
		matches, err := c.query(callCtx, vector, topK)
		if err != nil {
			return err
		}
		out = matches
		return nil
	}, classifyPineconeError)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) query(ctx context.Context, vector []float32, topK int) ([]domain.ItemMatch, error) {
	reqBody := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
		"includeValues":   false,
	}
	if c.namespace != "" {
		reqBody["namespace"] = c.namespace
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal query body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	setHeaders(req, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pinecone query request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, newStatusError("query", resp)
	}

	var queryResp struct {
		Matches []struct {
			ID       string         `json:"id"`
			Score    float64        `json:"score"`
			Metadata map[string]any `json:"metadata"`
		} `json:"matches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}

	out := make([]domain.ItemMatch, 0, len(queryResp.Matches))
	for _, m := range queryResp.Matches {
		out = append(out, domain.ItemMatch{
			ID:       m.ID,
			Score:    m.Score,
			Metadata: domain.ParseItemMetadata(m.Metadata),
		})
	}
	return out, nil
}

func setHeaders(req *http.Request, apiKey string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Pinecone-API-Version", apiVersion)
	if apiKey != "" {
		req.Header.Set("Api-Key", apiKey)
	}
}

func normalizeHost(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return host
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return host
}

func newStatusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &StatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(body),
	}
}
