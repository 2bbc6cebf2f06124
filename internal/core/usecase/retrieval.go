package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/fragrance-recommender/internal/core/domain"
	"github.com/kirillkom/fragrance-recommender/internal/core/ports"
)

const defaultTopK = 3

// RetrievalResult carries the ranked matches, or the upstream failure that
// was absorbed into an empty result.
type RetrievalResult struct {
	Matches []domain.ItemMatch
	Err     error
}

// UpstreamFailed reports whether the empty result came from a failed call
// rather than an index with no neighbors.
func (r RetrievalResult) UpstreamFailed() bool {
	return r.Err != nil
}

type RetrievalUseCase struct {
	embedder ports.Embedder
	index    ports.VectorIndex
}

func NewRetrievalUseCase(embedder ports.Embedder, index ports.VectorIndex) *RetrievalUseCase {
	return &RetrievalUseCase{
		embedder: embedder,
		index:    index,
	}
}

// Retrieve embeds the profile and returns the index neighbors exactly as the
// index ranked them, capped at topK. It never returns an error: failures are
// reported through RetrievalResult.Err with an empty match list.
func (uc *RetrievalUseCase) Retrieve(ctx context.Context, profile string, topK int) RetrievalResult {
	if profile == "" {
		return RetrievalResult{}
	}
	if topK <= 0 {
		topK = defaultTopK
	}

	vector, err := uc.embedder.EmbedQuery(ctx, profile)
	if err != nil {
		return uc.failed("embed profile", err)
	}
	if len(vector) == 0 {
		return uc.failed("embed profile", fmt.Errorf("empty embedding"))
	}

	matches, err := uc.index.Query(ctx, vector, topK)
	if err != nil {
		return uc.failed("query index", err)
	}
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return RetrievalResult{Matches: matches}
}

func (uc *RetrievalUseCase) failed(operation string, err error) RetrievalResult {
	slog.Warn("retrieval_failed", "operation", operation, "error", err)
	return RetrievalResult{Err: fmt.Errorf("%s: %w", operation, err)}
}
