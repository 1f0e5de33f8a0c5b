// Package metrics holds the service's Prometheus instruments behind an
// explicit registry instance, so no component depends on process-wide
// metric globals.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Registry *prometheus.Registry

	// StorageCalls counts invocations of the storage processor functions,
	// labeled by function name.
	StorageCalls *prometheus.CounterVec

	// CryptographyCalls counts invocations of the cryptography functions,
	// labeled by function name.
	CryptographyCalls *prometheus.CounterVec

	// Health is 1 while the service is starting or stopping and 2 once it
	// is consuming jobs.
	Health prometheus.Gauge

	// Up is 1 while the consumer is accepting jobs.
	Up prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		Registry: registry,
		StorageCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storage_calls_total",
			Help: "Total calls to storage processor functions",
		}, []string{"function"}),
		CryptographyCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cryptography_calls_total",
			Help: "Total calls to cryptography functions",
		}, []string{"function"}),
		Health: factory.NewGauge(prometheus.GaugeOpts{
			Name: "storage_service_health",
			Help: "Service health state (1 starting or stopping, 2 ready)",
		}),
		Up: factory.NewGauge(prometheus.GaugeOpts{
			Name: "storage_service_up",
			Help: "Whether the consumer is accepting jobs",
		}),
	}
}

// EnableRuntimeMetrics registers the Go runtime and process collectors.
func (m *Metrics) EnableRuntimeMetrics() {
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}
