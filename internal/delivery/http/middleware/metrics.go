package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "eventplanner_http_request_duration_seconds",
	Help:    "HTTP request latency by route pattern, method and status",
	Buckets: prometheus.DefBuckets,
}, []string{"route", "method", "status"})

// MetricsMiddleware records request latency labelled by the matched route pattern.
// Requests that match no route are recorded as "unmatched".
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		httpRequestDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(wrapped.status)).
			Observe(time.Since(start).Seconds())
	})
}
