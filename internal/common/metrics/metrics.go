// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_provider_requests_total",
			Help: "Total number of provider calls by outcome",
		},
		[]string{"provider", "outcome"},
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "wizard_provider_request_duration_seconds",
			Help: "Duration of provider calls in seconds",
		},
		[]string{"provider"},
	)

	CircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wizard_circuit_state",
			Help: "Circuit breaker state per provider (0 closed, 1 half-open, 2 open)",
		},
		[]string{"provider"},
	)

	ResponseCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wizard_response_cache_hits_total",
			Help: "Orchestrator response cache hits",
		},
	)

	ResponseCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wizard_response_cache_misses_total",
			Help: "Orchestrator response cache misses",
		},
	)

	HealthProbes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_health_probes_total",
			Help: "Health probes by provider and result",
		},
		[]string{"provider", "result"},
	)
)
