//-------------------------------------------------------------------------
//
// pgEdge Rerank Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package metrics defines the Prometheus collectors of the rerank server
// and the handler that exposes them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rerank outcomes recorded by RerankTotal.
const (
	OutcomeRanked  = "ranked"
	OutcomeEmpty   = "empty"
	OutcomeInvalid = "invalid"
)

// Metrics holds all Prometheus collectors for the server.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	RerankTotal         *prometheus.CounterVec
	RerankDuration      prometheus.Histogram
	RerankCandidates    prometheus.Histogram
	RerankReturned      prometheus.Histogram
	SkippedDocuments    *prometheus.CounterVec
	DetectedLanguages   *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go
// runtime and process collectors, on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rerank_http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rerank_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		RerankTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rerank_calls_total",
				Help: "Rerank calls by outcome (ranked, empty, invalid).",
			},
			[]string{"outcome"},
		),
		RerankDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rerank_duration_seconds",
				Help:    "Time spent computing corpus statistics, scoring, and sorting.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
		),
		RerankCandidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rerank_candidates",
				Help:    "Number of candidate documents per rerank call.",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100, 250},
			},
		),
		RerankReturned: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rerank_returned_documents",
				Help:    "Number of documents returned per rerank call.",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
			},
		),
		SkippedDocuments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rerank_skipped_documents_total",
				Help: "Candidate documents left out of the statistics by reason (empty, malformed).",
			},
			[]string{"reason"},
		),
		DetectedLanguages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rerank_query_languages_total",
				Help: "Detected language of rerank queries.",
			},
			[]string{"language"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.RerankTotal,
		m.RerankDuration,
		m.RerankCandidates,
		m.RerankReturned,
		m.SkippedDocuments,
		m.DetectedLanguages,
	)

	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus scrape HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served HTTP request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
