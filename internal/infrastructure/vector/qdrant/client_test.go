package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestQueryMapsPayloadToMetadata(t *testing.T) {
	var reqBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/collections/fragrances/points/search" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("api-key") != "secret" {
			t.Errorf("expected api-key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"result":[
			{"id":42,"score":0.91,"payload":{"perfume_name":"Santal Noir","handle":"santal-noir","olfactive_profile":{"family":"Woody"}}},
			{"id":"6f1c1a3e-8f9e-4c52-9d41-0f3f1b1b7a10","score":0.85,"payload":{"perfume_name":"Citrus Vetiver"}}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL, "secret", "fragrances", nil)
	matches, err := client.Query(context.Background(), []float32{0.1, 0.2}, 3)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ID != "42" || matches[1].ID != "6f1c1a3e-8f9e-4c52-9d41-0f3f1b1b7a10" {
		t.Fatalf("unexpected ids %q %q", matches[0].ID, matches[1].ID)
	}
	if matches[0].Metadata.Olfactive.Family != "Woody" || matches[0].Score != 0.91 {
		t.Fatalf("unexpected first match %+v", matches[0])
	}
	if reqBody["limit"] != float64(3) || reqBody["with_payload"] != true {
		t.Fatalf("unexpected request body %v", reqBody)
	}
}

func TestQueryIncludesResponseBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "collection not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := New(server.URL, "", "missing", nil).Query(context.Background(), []float32{0.1}, 3)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "collection not found") {
		t.Fatalf("expected error to include body, got %v", err)
	}
}
