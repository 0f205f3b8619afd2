package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Bank API calls
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankapi_requests_total",
			Help: "Bank API requests by operation and outcome",
		},
		[]string{"op", "outcome"}, // outcome: ok|rejected|unreachable
	)
	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bankapi_request_duration_seconds",
			Help:    "Latency of bank API requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// Transfer form
	TransferSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfer_submissions_total",
			Help: "Transfer form submissions by result",
		},
		[]string{"result"}, // created|rejected|invalid|duplicate
	)

	// Discarded out-of-order list responses
	StaleResponses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stale_responses_discarded_total",
			Help: "List responses dropped because a newer request was issued",
		},
		[]string{"view"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ui_sessions_active",
			Help: "Browser sessions currently held in memory",
		},
	)
)

// /metrics endpoint handler
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(UpstreamRequests)
	prometheus.MustRegister(UpstreamLatency)
	prometheus.MustRegister(TransferSubmissions)
	prometheus.MustRegister(StaleResponses)
	prometheus.MustRegister(ActiveSessions)
}
