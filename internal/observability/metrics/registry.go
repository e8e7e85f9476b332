package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry creates the Prometheus registry and registers the default
// Go runtime and process collectors. Safe to call multiple times; only the
// first invocation performs initialisation.
func InitRegistry() *prometheus.Registry {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
	return registry
}

// GetRegistry returns the singleton Prometheus registry, or nil when
// InitRegistry has not been called (metrics then degrade to no-ops).
func GetRegistry() *prometheus.Registry {
	return registry
}
