// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_http_requests_total",
			Help: "Total HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Workflow metrics, updated from the service layer.
var (
	// SagaTotal counts publish/validate/retract runs by outcome.
	SagaTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_saga_total",
			Help: "Publication workflow runs by operation and result.",
		},
		[]string{"operation", "result"},
	)

	SagaDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "folio_saga_duration_seconds",
			Help: "Publication workflow duration in seconds.",
			// Publishing waits on conversion, which takes minutes.
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600, 900},
		},
		[]string{"operation"},
	)

	ConversionPollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_conversion_polls_total",
			Help: "Draft conversion status polls by observed state.",
		},
		[]string{"state"},
	)

	RetractBackendTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_retract_backend_total",
			Help: "Per-backend deletion outcomes during retraction.",
		},
		[]string{"backend", "result"},
	)

	InconsistencyAlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_inconsistency_alerts_total",
			Help: "Records left on only one backend, by operation and alert delivery result.",
		},
		[]string{"operation", "result"},
	)
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultPartial = "partial"
	ResultError   = "error"
)
