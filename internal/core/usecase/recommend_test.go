package usecase

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/fragrance-recommender/internal/core/domain"
)

type pipeline struct {
	embedder  *embedderFake
	index     *indexFake
	generator *generatorFake
	observer  *observerFake
	uc        *RecommendUseCase
}

func newPipeline(matches []domain.ItemMatch, opts RecommendOptions) *pipeline {
	p := &pipeline{
		embedder:  &embedderFake{},
		index:     &indexFake{matches: matches},
		generator: &generatorFake{},
		observer:  &observerFake{},
	}
	p.uc = NewRecommendUseCase(
		NewRetrievalUseCase(p.embedder, p.index),
		NewReasoningUseCase(p.generator, ReasoningOptions{Temperature: 0, MaxTokens: 150}),
		p.observer,
		opts,
	)
	return p
}

func TestRecommendBuildsRankedResponse(t *testing.T) {
	p := newPipeline(sampleMatches(2), RecommendOptions{TopK: 3, Concurrency: 2})

	resp, err := p.uc.Recommend(context.Background(), domain.RecommendationRequest{
		Fingerprint: "abc",
		QAPairs: []domain.QAPair{
			{Question: "Q1", Answer: "Woody and warm"},
			{Question: "Q2", Answer: "yes"},
		},
	})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if resp.Fingerprint != "abc" {
		t.Fatalf("expected fingerprint passthrough, got %q", resp.Fingerprint)
	}
	if len(resp.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(resp.Recommendations))
	}
	for i, rec := range resp.Recommendations {
		if rec.Rank != i+1 {
			t.Fatalf("expected rank %d, got %d", i+1, rec.Rank)
		}
	}
	first := resp.Recommendations[0]
	if first.PerfumeName != "Santal Noir" || first.Handle == nil || *first.Handle != "handle-Santal Noir" {
		t.Fatalf("unexpected first recommendation: %+v", first)
	}
	if first.SimilarityScore != 0.9 || first.Reasoning != "reasoning" {
		t.Fatalf("unexpected score/reasoning: %+v", first)
	}
	if p.embedder.text != "Woody and warm" {
		t.Fatalf("expected profile 'Woody and warm', got %q", p.embedder.text)
	}
	if p.index.topK != 3 {
		t.Fatalf("expected topK=3, got %d", p.index.topK)
	}
	if p.generator.callCount() != 2 {
		t.Fatalf("expected one generation call per match, got %d", p.generator.callCount())
	}
}

func TestRecommendInvalidInputSkipsExternalCalls(t *testing.T) {
	p := newPipeline(sampleMatches(2), RecommendOptions{})

	_, err := p.uc.Recommend(context.Background(), domain.RecommendationRequest{
		Fingerprint: "abc",
		QAPairs: []domain.QAPair{
			{Question: "Q1", Answer: "yes"},
			{Question: "Q2", Answer: "No"},
		},
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if p.embedder.calls.Load() != 0 || p.index.calls.Load() != 0 || p.generator.callCount() != 0 {
		t.Fatalf("no external calls expected for invalid input")
	}
	if !reflect.DeepEqual(p.observer.outcomes, []string{OutcomeInvalidInput}) {
		t.Fatalf("unexpected outcomes %v", p.observer.outcomes)
	}
}

func TestRecommendNoMatchesSkipsGeneration(t *testing.T) {
	p := newPipeline(nil, RecommendOptions{})

	_, err := p.uc.Recommend(context.Background(), domain.RecommendationRequest{
		QAPairs: []domain.QAPair{{Question: "Q1", Answer: "Fresh citrus"}},
	})
	if !domain.IsKind(err, domain.ErrNoResults) {
		t.Fatalf("expected no results, got %v", err)
	}
	if p.generator.callCount() != 0 {
		t.Fatalf("generation must not run without matches")
	}
	if !reflect.DeepEqual(p.observer.retrieval, []string{RetrievalStatusEmpty}) {
		t.Fatalf("unexpected retrieval statuses %v", p.observer.retrieval)
	}
}

func TestRecommendUpstreamFailureMapsToNoResults(t *testing.T) {
	p := newPipeline(nil, RecommendOptions{})
	p.embedder.err = errors.New("embedding 503")

	_, err := p.uc.Recommend(context.Background(), domain.RecommendationRequest{
		QAPairs: []domain.QAPair{{Question: "Q1", Answer: "Fresh citrus"}},
	})
	if !domain.IsKind(err, domain.ErrNoResults) {
		t.Fatalf("expected no results, got %v", err)
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("non-strict mode must not surface temporary errors")
	}
	if !reflect.DeepEqual(p.observer.outcomes, []string{OutcomeUpstreamError}) {
		t.Fatalf("unexpected outcomes %v", p.observer.outcomes)
	}
}

func TestRecommendStrictRetrievalSurfacesTemporary(t *testing.T) {
	p := newPipeline(nil, RecommendOptions{StrictRetrieval: true})
	p.index.err = errors.New("index timeout")

	_, err := p.uc.Recommend(context.Background(), domain.RecommendationRequest{
		QAPairs: []domain.QAPair{{Question: "Q1", Answer: "Fresh citrus"}},
	})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error in strict mode, got %v", err)
	}
}

func TestRecommendPartialFallbackKeepsSuccess(t *testing.T) {
	p := newPipeline(sampleMatches(3), RecommendOptions{Concurrency: 3})
	p.generator.reply = func(req domain.CompletionRequest) (string, error) {
		if strings.Contains(req.User, "Citrus Vetiver") {
			return "", errors.New("rate limited")
		}
		return "fits you", nil
	}

	resp, err := p.uc.Recommend(context.Background(), domain.RecommendationRequest{
		QAPairs: []domain.QAPair{{Question: "Q1", Answer: "Fresh citrus"}},
	})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	got := []string{resp.Recommendations[0].Reasoning, resp.Recommendations[1].Reasoning, resp.Recommendations[2].Reasoning}
	want := []string{"fits you", FallbackReasoning, "fits you"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected reasoning %v", got)
	}
}

func TestRecommendPreservesRankOrderUnderConcurrency(t *testing.T) {
	p := newPipeline(sampleMatches(3), RecommendOptions{Concurrency: 3})
	p.generator.reply = slowReply(map[string]time.Duration{
		"Santal Noir":    40 * time.Millisecond,
		"Citrus Vetiver": 20 * time.Millisecond,
		"Amber Oud":      0,
	})

	resp, err := p.uc.Recommend(context.Background(), domain.RecommendationRequest{
		QAPairs: []domain.QAPair{{Question: "Q1", Answer: "Warm spice"}},
	})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	for i, name := range []string{"Santal Noir", "Citrus Vetiver", "Amber Oud"} {
		rec := resp.Recommendations[i]
		if rec.Rank != i+1 || rec.PerfumeName != name || rec.Reasoning != "because "+name {
			t.Fatalf("position %d out of order: %+v", i, rec)
		}
	}
}

func TestRecommendIsDeterministicForFixedCollaborators(t *testing.T) {
	p := newPipeline(sampleMatches(2), RecommendOptions{Concurrency: 2})
	req := domain.RecommendationRequest{
		Fingerprint: "fp",
		QAPairs:     []domain.QAPair{{Question: "Q1", Answer: "Woody"}},
	}

	first, err := p.uc.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("first Recommend() error = %v", err)
	}
	second, err := p.uc.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("second Recommend() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical responses:\n%+v\n%+v", first, second)
	}
}
