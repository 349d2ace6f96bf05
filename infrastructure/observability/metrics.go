// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Engine metrics
	TickDuration   prometheus.Histogram
	LayoutSteps    prometheus.Counter
	Rebuilds       *prometheus.CounterVec
	InferencePairs prometheus.Counter
	GeneratedEdges prometheus.Counter
	SnapshotLoads  *prometheus.CounterVec
	LiveSessions   prometheus.Gauge
}

// NewCollector creates a collector with its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		TickDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tick_duration_seconds",
				Help:      "Time spent advancing one session by one frame",
				Buckets:   []float64{0.0005, 0.001, 0.002, 0.004, 0.008, 0.016, 0.033, 0.066},
			},
		),
		LayoutSteps: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "layout_steps_total",
				Help:      "Total number of layout integration steps",
			},
		),
		Rebuilds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "layout_rebuilds_total",
				Help:      "Total number of layout engine rebuilds",
			},
			[]string{"reason"},
		),
		InferencePairs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inference_pairs_total",
				Help:      "Total number of node pairs evaluated by relationship inference",
			},
		),
		GeneratedEdges: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generated_edges_total",
				Help:      "Total number of inferred edges added to graphs",
			},
		),
		SnapshotLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshot_loads_total",
				Help:      "Total number of snapshot loads by outcome",
			},
			[]string{"outcome"},
		),
		LiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "live_sessions",
				Help:      "Number of open view sessions",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.TickDuration,
		c.LayoutSteps,
		c.Rebuilds,
		c.InferencePairs,
		c.GeneratedEdges,
		c.SnapshotLoads,
		c.LiveSessions,
	)
	return c
}

// Registry returns the collector's registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records a served request
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) ObserveTick(d time.Duration) { c.TickDuration.Observe(d.Seconds()) }
func (c *Collector) IncLayoutSteps()             { c.LayoutSteps.Inc() }
func (c *Collector) IncRebuilds(reason string)   { c.Rebuilds.WithLabelValues(reason).Inc() }
func (c *Collector) IncSnapshotLoads(o string)   { c.SnapshotLoads.WithLabelValues(o).Inc() }
func (c *Collector) SetLiveSessions(n int)       { c.LiveSessions.Set(float64(n)) }

func (c *Collector) AddInferencePairs(n int) {
	if n > 0 {
		c.InferencePairs.Add(float64(n))
	}
}

func (c *Collector) AddGeneratedEdges(n int) {
	if n > 0 {
		c.GeneratedEdges.Add(float64(n))
	}
}
