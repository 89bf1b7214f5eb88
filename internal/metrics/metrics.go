// Package metrics exposes the Prometheus collectors shared by the HTTP layer,
// the inference pipeline and the wardrobe service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts handled requests by route template and status code.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardrobe_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration measures request latency by route template.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wardrobe_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	// InferenceDuration measures each pipeline stage.
	// Labels:
	//   - stage: "background", "color", "category"
	//   - backend: classifier or remover implementation
	InferenceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wardrobe_inference_duration_seconds",
			Help:    "Duration of inference stages in seconds",
			Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage", "backend"},
	)

	// Predictions counts predicted labels.
	Predictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardrobe_predictions_total",
			Help: "Total number of predicted labels",
		},
		[]string{"kind", "label"},
	)

	// Uploads counts classify-and-store outcomes ("success", "rejected", "error").
	Uploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardrobe_uploads_total",
			Help: "Total number of processed uploads",
		},
		[]string{"outcome"},
	)

	// MixMatches counts match-and-package outcomes.
	MixMatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wardrobe_mix_match_total",
			Help: "Total number of outfit generation requests",
		},
		[]string{"outcome"},
	)

	// OutfitSize observes how many items a generated collection holds.
	OutfitSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wardrobe_outfit_items",
			Help:    "Number of items in generated outfit collections",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		},
	)

	// BreakerState reports circuit breaker state per remote dependency
	// (0 closed, 1 half-open, 2 open).
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wardrobe_circuit_breaker_state",
			Help: "Circuit breaker state of remote inference dependencies",
		},
		[]string{"name"},
	)
)
