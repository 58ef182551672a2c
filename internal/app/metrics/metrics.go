// Package metrics provides Prometheus metrics for the retrieval engine and its HTTP surface
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"video-qa/internal/app/model"
)

const namespace = "vqa"

// Metrics holds every collector the service exports
type Metrics struct {
	registry *prometheus.Registry

	// Index metrics
	BuildsTotal   *prometheus.CounterVec
	BuildDuration prometheus.Histogram
	FramesIndexed prometheus.Counter

	// Search metrics
	SearchesTotal     *prometheus.CounterVec
	SearchDuration    *prometheus.HistogramVec
	SearchResultCount prometheus.Histogram
	VariantFailures   *prometheus.CounterVec

	// Cache metrics
	CacheOperations *prometheus.CounterVec

	// Synthesis metrics
	SynthesisFallbacks *prometheus.CounterVec

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates all collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		BuildsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_builds_total",
			Help:      "Total number of index builds by outcome",
		}, []string{"outcome"}),
		BuildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "index_build_duration_seconds",
			Help:      "Duration of index builds in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
		FramesIndexed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_indexed_total",
			Help:      "Total number of frames committed to role indices",
		}),

		SearchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of searches by role and path",
		}, []string{"role", "path"}),
		SearchDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of searches in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"role", "path"}),
		SearchResultCount: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_result_count",
			Help:      "Number of results returned per search",
			Buckets:   prometheus.LinearBuckets(0, 2, 10),
		}),
		VariantFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_variant_failures_total",
			Help:      "Total number of query variants skipped after an error",
		}, []string{"role"}),

		CacheOperations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_cache_operations_total",
			Help:      "Index cache lookups by result",
		}, []string{"role", "result"}),

		SynthesisFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_fallbacks_total",
			Help:      "Answers produced by a fallback rule",
		}, []string{"reason"}),

		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CacheHit(role model.Role) {
	m.CacheOperations.WithLabelValues(role.String(), "hit").Inc()
}

func (m *Metrics) CacheMiss(role model.Role) {
	m.CacheOperations.WithLabelValues(role.String(), "miss").Inc()
}

func (m *Metrics) VariantFailed(role model.Role) {
	m.VariantFailures.WithLabelValues(role.String()).Inc()
}

func (m *Metrics) SearchObserved(role model.Role, path string, elapsed time.Duration, results int) {
	m.SearchesTotal.WithLabelValues(role.String(), path).Inc()
	m.SearchDuration.WithLabelValues(role.String(), path).Observe(elapsed.Seconds())
	m.SearchResultCount.Observe(float64(results))
}

func (m *Metrics) SynthesisFallback(reason string) {
	m.SynthesisFallbacks.WithLabelValues(reason).Inc()
}

func (m *Metrics) BuildObserved(outcome string, elapsed time.Duration, frames int) {
	m.BuildsTotal.WithLabelValues(outcome).Inc()
	m.BuildDuration.Observe(elapsed.Seconds())
	if outcome == "success" {
		m.FramesIndexed.Add(float64(frames))
	}
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
