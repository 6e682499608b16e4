// Package telemetry exposes Prometheus collectors for the crawl pipeline.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topcv_fetch_requests_total",
			Help: "Total number of HTTP fetch attempts, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	fetchRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "topcv_fetch_retries_total",
			Help: "Total number of fetch retries after a transient failure.",
		},
	)

	listingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topcv_listings_total",
			Help: "Total number of listing summaries extracted, labeled by keyword slug.",
		},
		[]string{"keyword"},
	)

	partialRecordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "topcv_partial_records_total",
			Help: "Total number of records emitted without detail fields.",
		},
	)

	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topcv_runs_total",
			Help: "Total number of crawl runs, labeled by status.",
		},
		[]string{"status"},
	)
)

// ObserveFetch records one fetch attempt outcome ("success", "retryable",
// "failed").
func ObserveFetch(outcome string) {
	fetchRequestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRetry records one retry of a transient fetch failure.
func ObserveRetry() {
	fetchRetriesTotal.Inc()
}

// ObserveListings records listing summaries extracted for a keyword.
func ObserveListings(keywordSlug string, n int) {
	listingsTotal.WithLabelValues(keywordSlug).Add(float64(n))
}

// ObservePartialRecord records a listing that lost its detail fields.
func ObservePartialRecord() {
	partialRecordsTotal.Inc()
}

// ObserveRun records a completed run ("succeeded", "canceled", "failed").
func ObserveRun(status string) {
	runsTotal.WithLabelValues(status).Inc()
}

// Handler returns the /metrics handler for the scheduled-run listener.
func Handler() http.Handler {
	return promhttp.Handler()
}
