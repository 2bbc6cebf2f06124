package pinecone

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/kirillkom/fragrance-recommender/internal/infrastructure/resilience"
)

type StatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("pinecone %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("pinecone %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func classifyPineconeError(err error) resilience.ErrorClassification {
	if err == nil || errors.Is(err, context.Canceled) {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Temporary: true, RecordFailure: true}
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusTooManyRequests, statusErr.StatusCode >= 500:
			return resilience.ErrorClassification{Temporary: true, RecordFailure: true}
		default:
			return resilience.ErrorClassification{}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Temporary: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{RecordFailure: true}
}
