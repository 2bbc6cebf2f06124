package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fragrance"

// HTTPServerMetrics owns a private registry with the HTTP server collectors
// and the recommendation pipeline collectors.
type HTTPServerMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	recommendationsTotal   *prometheus.CounterVec
	recommendationDuration *prometheus.HistogramVec
	retrievalResultsTotal  *prometheus.CounterVec
	retrievedItems         *prometheus.HistogramVec
	reasoningTotal         *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	recommendationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "recommendations_total",
			Help:      "Total recommendation requests by outcome.",
		},
		[]string{"service", "outcome"},
	)
	recommendationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Recommendation pipeline duration in seconds by outcome.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"service", "outcome"},
	)
	retrievalResultsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "results_total",
			Help:      "Total retrieval attempts by status.",
		},
		[]string{"service", "status"},
	)
	retrievedItems := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "items",
			Help:      "Distribution of items returned by the vector index per request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	reasoningTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reasoning",
			Name:      "total",
			Help:      "Total reasoning texts by status.",
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		recommendationsTotal,
		recommendationDuration,
		retrievalResultsTotal,
		retrievedItems,
		reasoningTotal,
	)

	return &HTTPServerMetrics{
		registry:               registry,
		service:                service,
		requestTotal:           requestTotal,
		requestDuration:        requestDuration,
		requestInFlight:        requestInFlight,
		recommendationsTotal:   recommendationsTotal,
		recommendationDuration: recommendationDuration,
		retrievalResultsTotal:  retrievalResultsTotal,
		retrievedItems:         retrievedItems,
		reasoningTotal:         reasoningTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath keeps label cardinality bounded to the served routes.
func normalizePath(path string) string {
	switch path {
	case "/", "/generate-recommendations", "/openapi.yaml", "/metrics":
		return path
	default:
		return "other"
	}
}

func (m *HTTPServerMetrics) ObserveRetrieval(status string, matches int) {
	if status == "" {
		status = "unknown"
	}
	m.retrievalResultsTotal.WithLabelValues(m.service, status).Inc()
	if matches >= 0 {
		m.retrievedItems.WithLabelValues(m.service).Observe(float64(matches))
	}
}

func (m *HTTPServerMetrics) ObserveReasoning(status string) {
	if status == "" {
		status = "unknown"
	}
	m.reasoningTotal.WithLabelValues(m.service, status).Inc()
}

func (m *HTTPServerMetrics) ObserveRecommendation(outcome string, seconds float64) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.recommendationsTotal.WithLabelValues(m.service, outcome).Inc()
	m.recommendationDuration.WithLabelValues(m.service, outcome).Observe(seconds)
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
