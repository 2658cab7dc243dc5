package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration tracks request latency by method, route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path", "status"},
	)

	// ConversionsTotal counts conversions by outcome.
	ConversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "currency_conversions_total",
			Help: "Total number of conversion requests by outcome",
		},
		[]string{"outcome"}, // success, invalid_request, invalid_amount, unknown_currency, upstream_failure
	)

	// UpstreamRequestDuration tracks calls to the rate provider.
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "currency_upstream_request_duration_seconds",
			Help:    "Rate provider request duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"status"}, // HTTP status code, or "error" on transport failure
	)
)
