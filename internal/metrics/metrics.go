// Package metrics exposes Prometheus instrumentation for the AgriDash
// service. A single Collector owns all metric vectors and implements the
// core.MetricsCollector interface for HTTP telemetry; domain packages record
// through the typed helper methods.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registers and records all service metrics. Construct one per
// process with NewCollector; it registers against its own registry so tests
// can create collectors without duplicate-registration panics.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	riskEvaluations  *prometheus.CounterVec
	upstreamFetches  *prometheus.CounterVec
	webhookDelivered *prometheus.CounterVec
	listingsCreated  prometheus.Counter
	weatherCacheHits *prometheus.CounterVec
}

// NewCollector creates a Collector with all metric vectors registered.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agridash_http_requests_total",
				Help: "Total number of API requests served",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agridash_http_request_duration_seconds",
				Help:    "API request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		riskEvaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agridash_risk_evaluations_total",
				Help: "Risk heuristic evaluations by crop and resulting band",
			},
			[]string{"crop", "band"},
		),
		upstreamFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agridash_upstream_fetches_total",
				Help: "Outbound fetches to upstream providers by source and status",
			},
			[]string{"source", "status"},
		),
		webhookDelivered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agridash_webhook_deliveries_total",
				Help: "Webhook forwarding attempts by outcome",
			},
			[]string{"status"},
		),
		listingsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "agridash_listings_created_total",
				Help: "Classified listings created",
			},
		),
		weatherCacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agridash_weather_cache_requests_total",
				Help: "Weather cache lookups by result (hit/miss)",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.requestDuration,
		c.riskEvaluations,
		c.upstreamFetches,
		c.webhookDelivered,
		c.listingsCreated,
		c.weatherCacheHits,
	)

	return c
}

// Handler returns the Prometheus exposition handler for GET /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordRequest implements core.MetricsCollector.
func (c *Collector) RecordRequest(method, endpoint, status string, duration time.Duration) {
	c.requestsTotal.WithLabelValues(method, endpoint, status).Inc()
	c.requestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordRiskEvaluation records one heuristic evaluation.
func (c *Collector) RecordRiskEvaluation(crop, band string) {
	c.riskEvaluations.WithLabelValues(crop, band).Inc()
}

// RecordUpstreamFetch records one outbound provider fetch.
func (c *Collector) RecordUpstreamFetch(source string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.upstreamFetches.WithLabelValues(source, status).Inc()
}

// RecordWebhookDelivery records one webhook forwarding attempt.
func (c *Collector) RecordWebhookDelivery(status string) {
	c.webhookDelivered.WithLabelValues(status).Inc()
}

// RecordListingCreated increments the created-listings counter.
func (c *Collector) RecordListingCreated() {
	c.listingsCreated.Inc()
}

// RecordWeatherCache records a cache lookup result ("hit" or "miss").
func (c *Collector) RecordWeatherCache(result string) {
	c.weatherCacheHits.WithLabelValues(result).Inc()
}
