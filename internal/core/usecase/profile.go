package usecase

import (
	"strings"

	"github.com/kirillkom/fragrance-recommender/internal/core/domain"
)

const profileSeparator = ". "

// BuildProfile joins the descriptive answers in input order. Bare
// "yes"/"no" answers carry no preference signal and are dropped. The second
// return value is false when no usable profile remains.
func BuildProfile(pairs []domain.QAPair) (string, bool) {
	if len(pairs) == 0 {
		return "", false
	}

	answers := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		if isBinaryAnswer(pair.Answer) {
			continue
		}
		answers = append(answers, pair.Answer)
	}

	profile := strings.Join(answers, profileSeparator)
	if profile == "" {
		return "", false
	}
	return profile, true
}

func isBinaryAnswer(answer string) bool {
	switch strings.ToLower(answer) {
	case "yes", "no":
		return true
	default:
		return false
	}
}
