package ports

import (
	"context"

	"github.com/kirillkom/fragrance-recommender/internal/core/domain"
)

// Recommender is the inbound contract for questionnaire-driven recommendations.
type Recommender interface {
	Recommend(ctx context.Context, req domain.RecommendationRequest) (*domain.RecommendationResponse, error)
}
