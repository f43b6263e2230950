package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proofengine_queries_executed_total",
		Help: "Total number of query executions, labelled by regulation and verdict.",
	}, []string{"regulation", "verdict"})

	QueryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proofengine_query_failures_total",
		Help: "Total number of query executions skipped after a pipeline failure.",
	}, []string{"regulation"})

	FetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proofengine_fetch_failures_total",
		Help: "Total number of evidence fetches that degraded to an empty result.",
	}, []string{"kind"})

	CriteriaEvaluated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "proofengine_criteria_evaluated_total",
		Help: "Total number of criterion evaluations, labelled by type and outcome.",
	}, []string{"type", "met"})

	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "proofengine_query_duration_ms",
		Help:    "End-to-end single query execution latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 10000},
	})

	SummaryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "proofengine_summary_duration_ms",
		Help:    "Compliance summary latency in milliseconds.",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
	})

	CatalogQueries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "proofengine_catalog_queries",
		Help: "Number of query definitions in the active catalog.",
	})
)
