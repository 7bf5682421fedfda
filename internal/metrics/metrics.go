// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once     sync.Once
	registry *Registry
)

// Registry holds all fwapi metrics.
type Registry struct {
	// GC engine
	GCPasses     *prometheus.CounterVec // result: ok|failed
	GCDecisions  *prometheus.CounterVec // decision: keep|delete
	RulesDeleted prometheus.Counter
	VMLookups    prometheus.Counter

	// API surface
	APIRequests *prometheus.CounterVec
	APILatency  *prometheus.HistogramVec
}

// Get returns the global metrics registry, creating it if necessary.
func Get() *Registry {
	once.Do(func() {
		registry = &Registry{
			GCPasses: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "fwapi_gc_passes_total",
				Help: "VM-triggered GC passes by result",
			}, []string{"result"}),
			GCDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "fwapi_gc_decisions_total",
				Help: "Per-rule GC decisions",
			}, []string{"decision"}),
			RulesDeleted: promauto.NewCounter(prometheus.CounterOpts{
				Name: "fwapi_rules_deleted_total",
				Help: "Rules deleted by the GC engine",
			}),
			VMLookups: promauto.NewCounter(prometheus.CounterOpts{
				Name: "fwapi_vm_lookups_total",
				Help: "VM inventory lookups issued while probing rule sides",
			}),
			APIRequests: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "fwapi_api_requests_total",
				Help: "API requests by method, route and status",
			}, []string{"method", "route", "status"}),
			APILatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "fwapi_api_latency_seconds",
				Help:    "API request latency",
				Buckets: prometheus.DefBuckets,
			}, []string{"method", "route"}),
		}
	})
	return registry
}

// Handler returns the HTTP handler that serves the metrics endpoint.
func Handler() http.Handler {
	Get()
	return promhttp.Handler()
}
