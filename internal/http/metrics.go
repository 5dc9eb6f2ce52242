package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served.",
		},
		[]string{"route", "method", "status"},
	)
	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	readingsRecordedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "readings_recorded_total",
			Help: "Total number of meter readings recorded.",
		},
	)
	readingConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reading_conflicts_total",
			Help: "Total number of reading submissions rejected by the index compare-and-swap.",
		},
	)
)

// ObserveReadingRecorded counts a committed reading.
func ObserveReadingRecorded() {
	readingsRecordedTotal.Inc()
}

// ObserveReadingConflict counts a lost index race.
func ObserveReadingConflict() {
	readingConflictsTotal.Inc()
}

// MetricsMiddleware records request counts and latencies labelled by
// chi route pattern.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(ww.status)).Inc()
		httpRequestDurationSeconds.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
