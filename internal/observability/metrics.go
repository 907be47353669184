// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Rebuild metrics
	RebuildsTotal   *prometheus.CounterVec // label: status
	RebuildDuration prometheus.Histogram
	RecordsDropped  prometheus.Counter
	SalesRetained   prometheus.Gauge
	RentalsRetained prometheus.Gauge
	LastRebuildUnix prometheus.Gauge

	// Query metrics
	FilteredQueries       *prometheus.CounterVec // label: result (hit|miss|empty)
	FilteredQueryDuration prometheus.Histogram
	ProjectLookups        *prometheus.CounterVec // label: result (hit|miss)

	// Persistence metrics
	ExportErrors *prometheus.CounterVec // label: store
}

// NewMetrics creates a Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "property_analytics"
	}

	return &Metrics{
		RebuildsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebuilds_total",
			Help:      "Full rebuild attempts by status.",
		}, []string{"status"}),
		RebuildDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rebuild_duration_seconds",
			Help:      "Full rebuild duration.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		RecordsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Rows rejected at normalization.",
		}),
		SalesRetained: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sales_retained",
			Help:      "Sale records in the current snapshot.",
		}),
		RentalsRetained: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rentals_retained",
			Help:      "Rental records in the current snapshot.",
		}),
		LastRebuildUnix: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_rebuild_timestamp_seconds",
			Help:      "Unix time of the last successful rebuild.",
		}),
		FilteredQueries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filtered_queries_total",
			Help:      "Filtered re-aggregation queries by result.",
		}, []string{"result"}),
		FilteredQueryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filtered_query_duration_seconds",
			Help:      "Filtered re-aggregation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
		ProjectLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "project_lookups_total",
			Help:      "Project-detail lookups by cache result.",
		}, []string{"result"}),
		ExportErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_errors_total",
			Help:      "Persistence/export failures by store.",
		}, []string{"store"}),
	}
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
