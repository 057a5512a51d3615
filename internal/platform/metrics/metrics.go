// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package metrics owns the Prometheus collectors exported on /metrics.
//
// Collectors are registered on a private registry rather than the global
// default so that tests can build as many instances as they need.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "alfurqan"

// Metrics groups every collector the API server updates.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Submissions counts new contributions by content type and initial status.
	Submissions *prometheus.CounterVec
	// Decisions counts review outcomes by content type and decision.
	Decisions *prometheus.CounterVec
	// ReviewConflicts counts decisions that lost the race against another reviewer.
	ReviewConflicts *prometheus.CounterVec
	// CacheLookups counts approved-item cache lookups by result (hit, miss, error).
	CacheLookups *prometheus.CounterVec
}

// New builds and registers all collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "moderation",
			Name:      "submissions_total",
			Help:      "Contributions created by content type and initial status.",
		}, []string{"content_type", "status"}),
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "moderation",
			Name:      "decisions_total",
			Help:      "Review decisions by content type and outcome.",
		}, []string{"content_type", "decision"}),
		ReviewConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "moderation",
			Name:      "review_conflicts_total",
			Help:      "Decisions rejected because the item was no longer pending.",
		}, []string{"content_type"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Approved-item cache lookups by result.",
		}, []string{"result"}),
	}

	registry.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.Submissions,
		m.Decisions,
		m.ReviewConflicts,
		m.CacheLookups,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records a finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, seconds float64) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(seconds)
}
