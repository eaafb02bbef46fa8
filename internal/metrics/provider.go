package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Provider search outcome labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Provider fan-out Prometheus metrics.
var (
	ProviderSearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "serverscout",
			Name:      "provider_searches_total",
			Help:      "Total provider search invocations by outcome",
		},
		[]string{"provider", "status"},
	)

	ProviderSearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "serverscout",
			Name:      "provider_search_duration_seconds",
			Help:      "Provider search duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)
)

var providerMetricsRegistered bool

// RegisterProviderMetrics registers provider metrics. Must be called once from main.
func RegisterProviderMetrics() {
	if providerMetricsRegistered {
		return
	}
	prometheus.MustRegister(ProviderSearchesTotal)
	prometheus.MustRegister(ProviderSearchDuration)
	providerMetricsRegistered = true
}

// ObserveProviderSearch records one provider invocation outcome.
func ObserveProviderSearch(provider, status string, duration time.Duration) {
	ProviderSearchesTotal.WithLabelValues(provider, status).Inc()
	if status == StatusOK {
		ProviderSearchDuration.WithLabelValues(provider).Observe(duration.Seconds())
	}
}
