package usecase

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/fragrance-recommender/internal/core/domain"
	"github.com/kirillkom/fragrance-recommender/internal/core/ports"
)

const (
	OutcomeOK            = "ok"
	OutcomeInvalidInput  = "invalid_input"
	OutcomeNoResults     = "no_results"
	OutcomeUpstreamError = "upstream_error"

	RetrievalStatusMatched       = "matched"
	RetrievalStatusEmpty         = "empty"
	RetrievalStatusUpstreamError = "upstream_error"

	ReasoningStatusGenerated = "generated"
	ReasoningStatusFallback  = "fallback"
)

type RecommendOptions struct {
	TopK int
	// Concurrency bounds in-flight reasoning calls per request.
	Concurrency int
	// StrictRetrieval surfaces swallowed upstream retrieval failures as
	// ErrTemporary instead of ErrNoResults.
	StrictRetrieval bool
}

type RecommendUseCase struct {
	retrieval *RetrievalUseCase
	reasoning *ReasoningUseCase
	observer  ports.PipelineObserver
	opts      RecommendOptions
}

func NewRecommendUseCase(
	retrieval *RetrievalUseCase,
	reasoning *ReasoningUseCase,
	observer ports.PipelineObserver,
	opts RecommendOptions,
) *RecommendUseCase {
	if opts.TopK <= 0 {
		opts.TopK = defaultTopK
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &RecommendUseCase{
		retrieval: retrieval,
		reasoning: reasoning,
		observer:  observer,
		opts:      opts,
	}
}

func (uc *RecommendUseCase) Recommend(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationResponse, error) {
	start := time.Now()

	profile, ok := BuildProfile(req.QAPairs)
	if !ok {
		uc.finish(OutcomeInvalidInput, start)
		return nil, domain.WrapError(domain.ErrInvalidInput, "build profile", errors.New("no descriptive answers in qa pairs"))
	}

	result := uc.retrieval.Retrieve(ctx, profile, uc.opts.TopK)
	if len(result.Matches) == 0 {
		if result.UpstreamFailed() {
			uc.observer.ObserveRetrieval(RetrievalStatusUpstreamError, 0)
			uc.finish(OutcomeUpstreamError, start)
			if uc.opts.StrictRetrieval {
				return nil, domain.WrapError(domain.ErrTemporary, "retrieve matches", result.Err)
			}
			return nil, domain.WrapError(domain.ErrNoResults, "retrieve matches", result.Err)
		}
		uc.observer.ObserveRetrieval(RetrievalStatusEmpty, 0)
		uc.finish(OutcomeNoResults, start)
		return nil, domain.WrapError(domain.ErrNoResults, "retrieve matches", errors.New("index returned no matches"))
	}
	uc.observer.ObserveRetrieval(RetrievalStatusMatched, len(result.Matches))

	recommendations := uc.explainAll(ctx, profile, result.Matches)

	uc.finish(OutcomeOK, start)
	return &domain.RecommendationResponse{
		Fingerprint:     req.Fingerprint,
		Recommendations: recommendations,
	}, nil
}

// explainAll runs one reasoning call per match. Each result is stored at its
// match position, so rank order does not depend on completion order.
func (uc *RecommendUseCase) explainAll(ctx context.Context, profile string, matches []domain.ItemMatch) []domain.Recommendation {
	out := make([]domain.Recommendation, len(matches))

	var g errgroup.Group
	g.SetLimit(uc.opts.Concurrency)
	for i, match := range matches {
		i, match := i, match
		g.Go(func() error {
			reasoning, generated := uc.reasoning.Explain(ctx, profile, match.Metadata)
			if generated {
				uc.observer.ObserveReasoning(ReasoningStatusGenerated)
			} else {
				uc.observer.ObserveReasoning(ReasoningStatusFallback)
			}
			out[i] = domain.Recommendation{
				Rank:            i + 1,
				PerfumeName:     match.Metadata.PerfumeName,
				Handle:          match.Metadata.Handle,
				SimilarityScore: match.Score,
				Reasoning:       reasoning,
			}
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (uc *RecommendUseCase) finish(outcome string, start time.Time) {
	uc.observer.ObserveRecommendation(outcome, time.Since(start).Seconds())
}

type noopObserver struct{}

func (noopObserver) ObserveRetrieval(string, int)          {}
func (noopObserver) ObserveReasoning(string)               {}
func (noopObserver) ObserveRecommendation(string, float64) {}
