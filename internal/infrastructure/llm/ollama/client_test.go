package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/fragrance-recommender/internal/core/domain"
)

func TestGeneratorSendsChatMessagesAndOptions(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":" ok \n"}}`))
	}))
	defer server.Close()

	client := New(server.URL, "gen", "embed", nil)
	text, err := NewGenerator(client).Complete(context.Background(), domain.CompletionRequest{
		System:      "persona",
		User:        "question?",
		Temperature: 0.2,
		MaxTokens:   150,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if text != "ok" {
		t.Fatalf("unexpected text %q", text)
	}
	if payload["model"] != "gen" || payload["stream"] != false {
		t.Fatalf("unexpected payload %v", payload)
	}
	options, _ := payload["options"].(map[string]any)
	if options["temperature"] != 0.2 || options["num_predict"] != float64(150) {
		t.Fatalf("unexpected options %v", options)
	}
	messages, _ := payload["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system and user messages, got %v", payload["messages"])
	}
}

func TestEmbedQueryReturnsFirstVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2,0.3]]}`))
	}))
	defer server.Close()

	vector, err := NewEmbedder(New(server.URL, "gen", "embed", nil)).EmbedQuery(context.Background(), "hello")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if len(vector) != 3 {
		t.Fatalf("unexpected vector %v", vector)
	}
}

func TestEmbedIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "gen", "embed", nil))
	_, err := embedder.EmbedQuery(context.Background(), "hello")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected 502 to be temporary, got %v", err)
	}
}
