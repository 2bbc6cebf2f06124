package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/kirillkom/fragrance-recommender/internal/adapters/http/openapi"
	"github.com/kirillkom/fragrance-recommender/internal/config"
	"github.com/kirillkom/fragrance-recommender/internal/core/domain"
	"github.com/kirillkom/fragrance-recommender/internal/core/ports"
	"github.com/kirillkom/fragrance-recommender/internal/observability/metrics"
)

const healthMessage = "Fragrance Recommendation API is running."

type Router struct {
	recommender     ports.Recommender
	validator       *openapi.Validator
	metrics         *metrics.HTTPServerMetrics
	maxRequestBytes int64
}

func NewRouter(
	cfg config.Config,
	recommender ports.Recommender,
	validator *openapi.Validator,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	maxBytes := cfg.MaxRequestBytes
	if maxBytes <= 0 {
		maxBytes = config.Defaults().MaxRequestBytes
	}
	return &Router{
		recommender:     recommender,
		validator:       validator,
		metrics:         httpMetrics,
		maxRequestBytes: maxBytes,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", rt.health)
	mux.HandleFunc("/generate-recommendations", rt.generateRecommendations)
	mux.HandleFunc("/openapi.yaml", rt.openAPIDocument)

	var handler http.Handler = recoverMiddleware(mux)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
		handler = rt.metrics.Middleware(handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": healthMessage,
	})
}

func (rt *Router) openAPIDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openapi.Document())
}

func (rt *Router) generateRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	req, err := rt.decodeRecommendationRequest(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := rt.recommender.Recommend(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if resp.Recommendations == nil {
		resp.Recommendations = []domain.Recommendation{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeRecommendationRequest checks the body against the contract before
// binding it to typed structs.
func (rt *Router) decodeRecommendationRequest(w http.ResponseWriter, r *http.Request) (domain.RecommendationRequest, error) {
	const op = "decode request"

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, rt.maxRequestBytes))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return domain.RecommendationRequest{}, err
		}
		return domain.RecommendationRequest{}, domain.WrapError(domain.ErrMalformedRequest, op, err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return domain.RecommendationRequest{}, domain.WrapError(domain.ErrMalformedRequest, op, err)
	}
	if rt.validator != nil {
		if err := rt.validator.ValidateRecommendationRequest(generic); err != nil {
			return domain.RecommendationRequest{}, domain.WrapError(domain.ErrMalformedRequest, op, err)
		}
	}

	var req domain.RecommendationRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return domain.RecommendationRequest{}, domain.WrapError(domain.ErrMalformedRequest, op, err)
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
