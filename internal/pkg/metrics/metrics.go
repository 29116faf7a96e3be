// Package metrics exposes Prometheus collectors for the rollup engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "building"
)

// Registry holds every engine collector. It is separate from the default
// registerer so embedding programs and tests control exposure.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// Ledger
	ProgressEventsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "progress_events_total",
			Help:      "Progress ledger writes by outcome",
		},
		[]string{"action", "result"},
	)

	// Rollup
	RecomputeTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rollup",
			Name:      "recompute_total",
			Help:      "Hierarchy recomputations by scope",
		},
		[]string{"scope"},
	)

	RecomputeDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rollup",
			Name:      "recompute_duration_seconds",
			Help:      "Duration of a full line-stage-work recomputation",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// Alerts
	AlertsGeneratedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "generated_total",
			Help:      "Rule-generated alerts materialized by rule family",
		},
		[]string{"rule"},
	)

	AlertRebuildsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "rebuilds_total",
			Help:      "Alert rebuild cycles",
		},
	)

	// Service use cases
	UseCaseTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "use_case_total",
			Help:      "Service use-case executions",
		},
		[]string{"use_case", "success"},
	)

	UseCaseDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "use_case_duration_seconds",
			Help:      "Service use-case duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"use_case"},
	)
)
