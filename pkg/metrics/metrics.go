// Package metrics provides the Prometheus implementation of the route data
// engine's telemetry observer.
//
// Metrics collected:
//   - routekit_data_calls_total: Counter of loader/action calls by kind,
//     route and outcome
//   - routekit_data_call_duration_seconds: Histogram of call duration by kind
//   - routekit_module_loads_total: Counter of module cache lookups by result
//
// Example:
//
//	collector := metrics.NewCollector(metrics.WithRegistry(reg))
//	engine := routedata.NewEngine(origin, fetcher, loader,
//	    routedata.WithObserver(collector))
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the Prometheus collector.
type Config struct {
	// Namespace is the metrics namespace (default: "routekit").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for call duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the Prometheus collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) { c.Namespace = namespace }
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) { c.Subsystem = subsystem }
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) { c.ConstLabels = labels }
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) { c.Buckets = buckets }
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) { c.Registry = registry }
}

func defaultConfig() Config {
	return Config{
		Namespace: "routekit",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector implements routedata.Observer backed by Prometheus metrics.
type Collector struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	moduleLoads  *prometheus.CounterVec
}

// NewCollector creates a collector and registers its metrics.
func NewCollector(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)
	return &Collector{
		callsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "data_calls_total",
			Help:        "Total number of route loader/action calls",
			ConstLabels: config.ConstLabels,
		}, []string{"kind", "route", "outcome"}),

		callDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "data_call_duration_seconds",
			Help:        "Route loader/action call duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),

		moduleLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "module_loads_total",
			Help:        "Total number of route module cache lookups",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),
	}
}

// ObserveCall implements routedata.Observer.
func (c *Collector) ObserveCall(kind, routeID, outcome string, duration time.Duration) {
	c.callsTotal.WithLabelValues(kind, routeID, outcome).Inc()
	c.callDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// ObserveModuleLoad implements routedata.Observer.
func (c *Collector) ObserveModuleLoad(routeID string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.moduleLoads.WithLabelValues(result).Inc()
}
