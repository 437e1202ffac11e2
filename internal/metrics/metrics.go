// Package metrics defines Prometheus metrics for the network map.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wifimap_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wifimap_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ResponseBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wifimap_http_response_bytes",
			Help:    "HTTP response body size in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 8, 8),
		},
		[]string{"path"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wifimap_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	ImportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wifimap_imports_total",
			Help: "Import runs by detected schema and outcome",
		},
		[]string{"schema", "outcome"},
	)

	ImportRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wifimap_import_rows_total",
			Help: "Imported candidate rows by reconcile action",
		},
		[]string{"action"},
	)

	ImportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wifimap_import_duration_seconds",
			Help:    "Time spent inside the exclusive import section",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		},
	)

	ImportsWaiting = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wifimap_imports_waiting",
			Help: "Imports queued behind the one in flight",
		},
	)

	NotesSavedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wifimap_notes_saved_total",
			Help: "Notes written through the annotation API",
		},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wifimap_websocket_connections",
			Help: "Active WebSocket connections",
		},
	)

	NetworkCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "wifimap_networks_total",
			Help: "Total stored network count",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ResponseBytes, ErrorsTotal,
		ImportsTotal, ImportRowsTotal, ImportDuration, ImportsWaiting,
		NotesSavedTotal, WSConnections, NetworkCount,
	)
}
