// Package metrics defines the Prometheus metric collectors used across the
// forward-index build and stats daemons and exposes an HTTP handler for
// scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the forward-index pipeline.
type Metrics struct {
	DocsIndexedTotal       prometheus.Counter
	EmptyDocsTotal         prometheus.Counter
	RAMBudgetWarningsTotal prometheus.Counter
	BuildDuration          *prometheus.HistogramVec
	VocabularyBytes        prometheus.Gauge
	VocabularyTerms        prometheus.Gauge
	ChunkMergeTotal        *prometheus.CounterVec
	ActiveBuilds           prometheus.Gauge
	CircuitBreakerState    *prometheus.GaugeVec
	HTTPRequestsInFlight   prometheus.Gauge
	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fwdindex_docs_indexed_total",
				Help: "Total documents tokenized and written to the forward index.",
			},
		),
		EmptyDocsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fwdindex_empty_docs_total",
				Help: "Total documents that produced zero postings after tokenization.",
			},
		),
		RAMBudgetWarningsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fwdindex_ram_budget_warnings_total",
				Help: "Total times the tokenization driver logged the once-only RAM budget warning.",
			},
		),
		BuildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fwdindex_build_duration_seconds",
				Help:    "Wall-clock duration of a forward-index build step, by path.",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900, 3600},
			},
			[]string{"path"},
		),
		VocabularyBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fwdindex_vocabulary_bytes",
				Help: "Estimated memory used by the in-progress vocabulary set.",
			},
		),
		VocabularyTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fwdindex_vocabulary_terms",
				Help: "Number of unique terms in the committed vocabulary.",
			},
		),
		ChunkMergeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fwdindex_chunk_merge_total",
				Help: "Total completed k-way merge runs, by outcome.",
			},
			[]string{"outcome"},
		),
		ActiveBuilds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fwdindex_active_builds",
				Help: "Number of forward-index builds currently in progress.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fwdindex_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fwdindex_http_requests_in_flight",
				Help: "Number of HTTP requests currently being served by the stats daemon.",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fwdindex_http_requests_total",
				Help: "Total HTTP requests served by the stats daemon, by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fwdindex_http_request_duration_seconds",
				Help:    "HTTP request latency for the stats daemon, by method and path.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	prometheus.MustRegister(
		m.DocsIndexedTotal,
		m.EmptyDocsTotal,
		m.RAMBudgetWarningsTotal,
		m.BuildDuration,
		m.VocabularyBytes,
		m.VocabularyTerms,
		m.ChunkMergeTotal,
		m.ActiveBuilds,
		m.CircuitBreakerState,
		m.HTTPRequestsInFlight,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
