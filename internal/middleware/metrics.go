package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	pageLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "web_request_duration_seconds",
			Help:    "Time to serve a page or endpoint, upstream calls included.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)
	pageBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "web_response_size_bytes",
			Help:    "Size of rendered responses.",
			Buckets: prometheus.ExponentialBuckets(256, 4, 6),
		},
		[]string{"route"},
	)

	registerOnce sync.Once
)

// HTTPMetrics observes every response by chi route pattern, so
// /accounts/{iban} is one series however many accounts are viewed.
func HTTPMetrics(next http.Handler) http.Handler {
	registerOnce.Do(func() {
		_ = prometheus.Register(pageLatency)
		_ = prometheus.Register(pageBytes)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newRecorder(w)
		next.ServeHTTP(rec, r)

		route := routeLabel(r)
		pageLatency.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
		pageBytes.WithLabelValues(route).Observe(float64(rec.bytes))
	})
}

func routeLabel(r *http.Request) string {
	rc := chi.RouteContext(r.Context())
	if rc == nil || rc.RoutePattern() == "" {
		return "unmatched"
	}
	return rc.RoutePattern()
}
