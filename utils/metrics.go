// utils/metrics.go
package utils

import "github.com/prometheus/client_golang/prometheus"

var (
	SyncPasses = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "indexer_sync_passes_total", Help: "Completed sync passes"},
		[]string{"status"},
	)
	SyncPassDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "indexer_sync_pass_duration_seconds", Help: "Full pass latency", Buckets: prometheus.DefBuckets},
	)
	RecordWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "indexer_record_writes_total", Help: "Mirrored record writes"},
		[]string{"entity", "op"},
	)
	RecordFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "indexer_record_failures_total", Help: "Mirrored record writes that failed"},
		[]string{"entity"},
	)
	ChainQueryErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "indexer_chain_query_errors_total", Help: "Chain query soft errors"},
		[]string{"reason"},
	)
	BlobFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "indexer_blob_fetches_total", Help: "Blob fetch attempts"},
		[]string{"status"},
	)
	ListenerState = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "indexer_listener_state", Help: "0=connecting 1=subscribed 2=degraded_polling"},
	)
)

func init() {
	prometheus.MustRegister(SyncPasses, SyncPassDuration, RecordWrites, RecordFailures, ChainQueryErrors, BlobFetches, ListenerState)
}
