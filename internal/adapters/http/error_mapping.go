package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kirillkom/fragrance-recommender/internal/core/domain"
)

const (
	detailInvalidInput = "Q&A pairs were empty or invalid."
	detailNoResults    = "No recommendations could be generated for this profile."
	detailTemporary    = "The recommendation service is temporarily unavailable."
	detailInternal     = "Internal server error."
	detailTooLarge     = "Request body too large."
)

func mapErrorToHTTPStatus(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case domain.IsKind(err, domain.ErrMalformedRequest):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNoResults):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorDetail(status int, err error) string {
	switch status {
	case http.StatusRequestEntityTooLarge:
		return detailTooLarge
	case http.StatusUnprocessableEntity:
		return err.Error()
	case http.StatusBadRequest:
		return detailInvalidInput
	case http.StatusNotFound:
		return detailNoResults
	case http.StatusServiceUnavailable:
		return detailTemporary
	default:
		return detailInternal
	}
}

// writeError maps err to a status and a {"detail": ...} body. Upstream causes
// are logged, never returned to the caller.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	attrs := []any{
		"request_id", requestIDFromContext(r.Context()),
		"path", r.URL.Path,
		"status", status,
		"error", err.Error(),
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed", attrs...)
	} else {
		slog.Info("request_rejected", attrs...)
	}
	writeDetail(w, status, errorDetail(status, err))
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
