package domain

type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type RecommendationRequest struct {
	Fingerprint string   `json:"fingerprint"`
	QAPairs     []QAPair `json:"qa_pairs"`
}

// ItemMatch is one neighbor returned by the vector index, in index rank order.
type ItemMatch struct {
	ID       string
	Score    float64
	Metadata ItemMetadata
}

type Recommendation struct {
	Rank            int     `json:"rank"`
	PerfumeName     string  `json:"perfume_name"`
	Handle          *string `json:"handle"`
	SimilarityScore float64 `json:"similarity_score"`
	Reasoning       string  `json:"reasoning"`
}

type RecommendationResponse struct {
	Fingerprint     string           `json:"fingerprint"`
	Recommendations []Recommendation `json:"recommendations"`
}

// CompletionRequest is a single system+user exchange sent to a text generation model.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}
