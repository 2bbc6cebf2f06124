package ports

import (
	"context"

	"github.com/kirillkom/fragrance-recommender/internal/core/domain"
)

// Embedder turns profile text into a query vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex queries a pre-populated similarity index. It never writes.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, topK int) ([]domain.ItemMatch, error)
}

// TextGenerator produces a single completion for a system+user exchange.
type TextGenerator interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)
}

// PipelineObserver receives per-stage outcomes of the recommendation pipeline.
type PipelineObserver interface {
	ObserveRetrieval(status string, matches int)
	ObserveReasoning(status string)
	ObserveRecommendation(outcome string, seconds float64)
}
