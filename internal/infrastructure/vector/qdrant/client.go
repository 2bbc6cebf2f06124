package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/kirillkom/fragrance-recommender/internal/core/domain"
	"github.com/kirillkom/fragrance-recommender/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	apiKey     string
	collection string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, apiKey, collection string, executor *resilience.Executor) *Client {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		collection: collection,
		httpClient: &http.Client{},
		executor:   executor,
	}
}

type statusError struct {
	statusCode int
	status     string
	body       string
}

func (e *statusError) Error() string {
	if msg := strings.TrimSpace(e.body); msg != "" {
		return fmt.Sprintf("qdrant search status: %s: %s", e.status, msg)
	}
	return fmt.Sprintf("qdrant search status: %s", e.status)
}

func (c *Client) Query(ctx context.Context, vector []float32, topK int) ([]domain.ItemMatch, error) {
	var out []domain.ItemMatch
	err := c.executor.Execute(ctx, "qdrant_search", func(callCtx context.Context) error {
		matches, err := c.search(callCtx, vector, topK)
		if err != nil {
			return err
		}
		out = matches
		return nil
	}, classifyQdrantError)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) search(ctx context.Context, vector []float32, limit int) ([]domain.ItemMatch, error) {
	reqBody := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &statusError{statusCode: resp.StatusCode, status: resp.Status, body: string(msg)}
	}

	var searchResp struct {
		Result []struct {
			ID      json.RawMessage `json:"id"`
			Score   float64         `json:"score"`
			Payload map[string]any  `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.ItemMatch, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.ItemMatch{
			ID:       pointID(r.ID),
			Score:    r.Score,
			Metadata: domain.ParseItemMetadata(r.Payload),
		})
	}
	return out, nil
}

// pointID renders a qdrant point id, which is either an unsigned integer or a UUID string.
func pointID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func classifyQdrantError(err error) resilience.ErrorClassification {
	if err == nil || errors.Is(err, context.Canceled) {
		return resilience.ErrorClassification{}
	}
	var statusErr *statusError
	if errors.As(err, &statusErr) {
		temporary := statusErr.statusCode >= 500 || statusErr.statusCode == http.StatusTooManyRequests
		return resilience.ErrorClassification{Temporary: temporary, RecordFailure: temporary}
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Temporary: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{RecordFailure: true}
}
