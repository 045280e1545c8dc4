// Package metrics exposes Prometheus counters and histograms for upstream
// calls, tool calls and the HTTP API. A nil *Collector records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "restmcp"

// Collector owns a private registry so tests and multiple servers never
// collide on the global one.
type Collector struct {
	registry *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	upstreamRetries  *prometheus.CounterVec

	toolCalls *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	registryTools prometheus.Gauge
}

// NewCollector creates a collector with process and Go runtime collectors.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Collector{
		registry: reg,
		upstreamRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "upstream_requests_total",
				Help:      "Upstream API executions by endpoint and outcome",
			},
			[]string{"endpoint", "status"},
		),
		upstreamDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "Upstream execution time including retries",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"endpoint"},
		),
		upstreamRetries: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "upstream_retries_total",
				Help:      "Retried upstream attempts",
			},
			[]string{"endpoint"},
		),
		toolCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "tool_calls_total",
				Help:      "Tool calls by tool and result",
			},
			[]string{"tool", "result"},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "HTTP API requests",
			},
			[]string{"method", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP API request duration",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		registryTools: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "registry_tools",
			Help:      "Tools currently registered",
		}),
	}
}

// RecordExecution records one finished Execute call.
func (c *Collector) RecordExecution(endpoint string, statusCode, attempts int, success bool, d time.Duration) {
	if c == nil {
		return
	}
	status := strconv.Itoa(statusCode)
	switch {
	case statusCode == 0 && !success:
		status = "error"
	case statusCode == 0:
		status = "ok"
	}
	c.upstreamRequests.WithLabelValues(endpoint, status).Inc()
	c.upstreamDuration.WithLabelValues(endpoint).Observe(d.Seconds())
	if attempts > 1 {
		c.upstreamRetries.WithLabelValues(endpoint).Add(float64(attempts - 1))
	}
}

// RecordToolCall counts a tool call. result is "success", "error" or "unresolved".
func (c *Collector) RecordToolCall(tool, result string) {
	if c == nil {
		return
	}
	c.toolCalls.WithLabelValues(tool, result).Inc()
}

// RecordHTTPRequest records one request served by the HTTP API.
func (c *Collector) RecordHTTPRequest(method string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method).Observe(d.Seconds())
}

// SetRegistryTools sets the registered tool gauge.
func (c *Collector) SetRegistryTools(n int) {
	if c == nil {
		return
	}
	c.registryTools.Set(float64(n))
}

// Registry exposes the underlying registry for tests and extra collectors.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
