package usecase

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kirillkom/fragrance-recommender/internal/core/domain"
)

type embedderFake struct {
	calls atomic.Int32
	text  string
	err   error
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.calls.Add(1)
	f.text = text
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type indexFake struct {
	calls   atomic.Int32
	topK    int
	matches []domain.ItemMatch
	err     error
}

func (f *indexFake) Query(_ context.Context, _ []float32, topK int) ([]domain.ItemMatch, error) {
	f.calls.Add(1)
	f.topK = topK
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

type generatorFake struct {
	mu       sync.Mutex
	calls    int
	requests []domain.CompletionRequest
	// reply computes the completion per request; nil returns "reasoning".
	reply func(req domain.CompletionRequest) (string, error)
}

func (f *generatorFake) Complete(_ context.Context, req domain.CompletionRequest) (string, error) {
	f.mu.Lock()
	f.calls++
	f.requests = append(f.requests, req)
	reply := f.reply
	f.mu.Unlock()

	if reply == nil {
		return "reasoning", nil
	}
	return reply(req)
}

func (f *generatorFake) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type observerFake struct {
	mu        sync.Mutex
	retrieval []string
	reasoning []string
	outcomes  []string
}

func (f *observerFake) ObserveRetrieval(status string, _ int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retrieval = append(f.retrieval, status)
}

func (f *observerFake) ObserveReasoning(status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reasoning = append(f.reasoning, status)
}

func (f *observerFake) ObserveRecommendation(outcome string, _ float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, outcome)
}

func strPtr(s string) *string { return &s }

func sampleMatches(n int) []domain.ItemMatch {
	names := []string{"Santal Noir", "Citrus Vetiver", "Amber Oud", "Iris Powder"}
	out := make([]domain.ItemMatch, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.ItemMatch{
			ID:    names[i],
			Score: 0.9 - float64(i)*0.1,
			Metadata: domain.ItemMetadata{
				PerfumeName: names[i],
				Handle:      strPtr("handle-" + names[i]),
				Olfactive:   domain.OlfactiveProfile{Family: "Woody"},
			},
		})
	}
	return out
}

func slowReply(delays map[string]time.Duration) func(domain.CompletionRequest) (string, error) {
	return func(req domain.CompletionRequest) (string, error) {
		for name, d := range delays {
			if strings.Contains(req.User, name) {
				time.Sleep(d)
				return "because " + name, nil
			}
		}
		return "reasoning", nil
	}
}
