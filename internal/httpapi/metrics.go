package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poszz_http_requests_total",
		Help: "HTTP requests served, by method, path and status.",
	}, []string{"method", "path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "poszz_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// statusRecorder captures the status code written by a handler so the
// middleware can label metrics after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func observeRequest(method, path string, status int, elapsed time.Duration) {
	path = metricPath(path)
	requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// metricPath collapses id-bearing paths so label cardinality stays bounded.
func metricPath(path string) string {
	if strings.HasPrefix(path, "/api/v1/sales/") && strings.HasSuffix(path, "/receipt") {
		return "/api/v1/sales/{id}/receipt"
	}
	if strings.HasPrefix(path, "/api/v1/items/") {
		switch path {
		case "/api/v1/items/import", "/api/v1/items/template", "/api/v1/items/export":
			return path
		}
		return "/api/v1/items/{id}"
	}
	return path
}
