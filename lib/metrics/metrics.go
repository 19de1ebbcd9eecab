// Copyright 2026 The Shields Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics defines the Prometheus instruments for the shields
// service. All instruments live on an explicit registry rather than the
// package-global default so that tests can create isolated sets.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus instruments.
type Metrics struct {
	registry *prometheus.Registry

	// BadgeRequests counts badge requests by outcome
	// ("ok", "error", "bad_request").
	BadgeRequests *prometheus.CounterVec

	// CacheResults counts cache lookups by result ("hit", "miss").
	CacheResults *prometheus.CounterVec

	// PipelineDuration observes end-to-end member-count resolution
	// latency in seconds, cache misses only.
	PipelineDuration prometheus.Histogram
}

// New creates a Metrics set on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		BadgeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shields",
			Name:      "badge_requests_total",
			Help:      "Badge requests served, by outcome.",
		}, []string{"outcome"}),
		CacheResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shields",
			Name:      "cache_results_total",
			Help:      "Badge cache lookups, by result.",
		}, []string{"result"}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shields",
			Name:      "pipeline_duration_seconds",
			Help:      "End-to-end member-count resolution latency.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		}),
	}

	registry.MustRegister(m.BadgeRequests, m.CacheResults, m.PipelineDuration)
	return m
}

// Handler returns the HTTP handler serving this registry in the
// Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
