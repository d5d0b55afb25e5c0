// File: internal/metrics/metrics.go
// Package metrics holds the prometheus instruments for the execution loop
// and its HTTP surface.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors on one registry so tests can build isolated
// instances instead of sharing process-global state.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal         *prometheus.CounterVec
	StepsTotal        prometheus.Counter
	ActionsTotal      *prometheus.CounterVec
	ActionErrorsTotal prometheus.Counter
	PlannerSeconds    prometheus.Histogram
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deskhand_runs_total",
		Help: "Completed execution runs by outcome.",
	}, []string{"outcome"})

	m.StepsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deskhand_steps_total",
		Help: "Loop iterations executed.",
	})

	m.ActionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deskhand_actions_total",
		Help: "Canonical actions executed by action tag.",
	}, []string{"action"})

	m.ActionErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deskhand_action_errors_total",
		Help: "Primitive operations that returned an error result.",
	})

	m.PlannerSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "deskhand_planner_request_seconds",
		Help:    "Latency of planner/backend action generation.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	m.registry.MustRegister(
		m.RunsTotal,
		m.StepsTotal,
		m.ActionsTotal,
		m.ActionErrorsTotal,
		m.PlannerSeconds,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
