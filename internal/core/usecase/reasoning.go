package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/fragrance-recommender/internal/core/domain"
	"github.com/kirillkom/fragrance-recommender/internal/core/ports"
)

// FallbackReasoning replaces the narrative when the generation call fails.
const FallbackReasoning = "Could not generate reasoning due to an API error."

const reasoningSystemPrompt = `You are a world-class Fragrance Concierge. Your task is to provide a sophisticated and persuasive reasoning for a perfume recommendation. Synthesize the user's preferences with the perfume's characteristics. Go beyond simple matching and create a short, elegant narrative.
Speak directly to the user. Keep it persuasive, under 30 words, and conversational.
At least one reasoning must refer explicitly to the user's preferences.
The tone should feel like a confident friend helping them make a smart choice.
Avoid fluff or poetic language.`

var errEmptyReasoning = errors.New("empty completion")

type ReasoningOptions struct {
	Temperature float64
	MaxTokens   int
}

type ReasoningUseCase struct {
	generator ports.TextGenerator
	opts      ReasoningOptions
}

func NewReasoningUseCase(generator ports.TextGenerator, opts ReasoningOptions) *ReasoningUseCase {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 150
	}
	return &ReasoningUseCase{
		generator: generator,
		opts:      opts,
	}
}

// Explain writes a short justification of item for the given profile. A
// failed generation yields FallbackReasoning and generated=false.
func (uc *ReasoningUseCase) Explain(ctx context.Context, profile string, item domain.ItemMetadata) (text string, generated bool) {
	text, err := uc.generate(ctx, profile, item)
	if err != nil {
		slog.Warn("reasoning_fallback", "perfume_name", item.PerfumeName, "error", err)
		return FallbackReasoning, false
	}
	return text, true
}

func (uc *ReasoningUseCase) generate(ctx context.Context, profile string, item domain.ItemMetadata) (string, error) {
	out, err := uc.generator.Complete(ctx, domain.CompletionRequest{
		System:      reasoningSystemPrompt,
		User:        buildReasoningPrompt(profile, FormatItemFacts(item)),
		Temperature: uc.opts.Temperature,
		MaxTokens:   uc.opts.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errEmptyReasoning
	}
	return out, nil
}

// FormatItemFacts renders the present metadata fields as "Label: value"
// pairs in a fixed order. Absent fields contribute nothing.
func FormatItemFacts(item domain.ItemMetadata) string {
	parts := make([]string, 0, 5)
	appendFact := func(label, value string) {
		if value != "" {
			parts = append(parts, label+": "+value)
		}
	}

	appendFact("Perfume Name", item.PerfumeName)
	appendFact("Family", item.Olfactive.Family)
	if !item.Semantic.IsEmpty() {
		appendFact("Gender", item.Semantic.Gender)
		appendFact("Occasion", item.Semantic.Occasion)
		appendFact("Mood", item.Semantic.Mood)
	}
	return strings.Join(parts, ". ")
}

func buildReasoningPrompt(profile, facts string) string {
	return fmt.Sprintf(`User Preference Profile: "%s"

Recommended Fragrance Details: "%s"

Please generate the reasoning text.`, profile, facts)
}
