// Package metrics exposes the Prometheus counters and histograms this
// service reports, following the teacher's promauto registration style.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var CacheHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "inferencestore_cache_hits_total",
		Help: "Cache lookups satisfied by a stored entry, by model and version",
	},
	[]string{"model_name", "model_version"},
)

var CacheMisses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "inferencestore_cache_misses_total",
		Help: "Cache lookups with no matching stored entry, by model and version",
	},
	[]string{"model_name", "model_version"},
)

var CacheInserts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "inferencestore_cache_inserts_total",
		Help: "New entries persisted to the store, by model and version",
	},
	[]string{"model_name", "model_version"},
)

var CacheErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "inferencestore_cache_errors_total",
		Help: "Errors encountered while dispatching a request, by model, version, and stage",
	},
	[]string{"model_name", "model_version", "stage"},
)

var RpcResponseLatencyHistogram = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "inferencestore_rpc_response_latency_seconds",
		Help:    "RPC response latency, by method",
		Buckets: prometheus.ExponentialBuckets(0.0001, 10, 8),
	},
	[]string{"rpc_method"},
)

// Counters implements dispatcher.Counters on top of the vectors above.
type Counters struct{}

func (Counters) Hit(modelName, modelVersion string) {
	CacheHits.WithLabelValues(modelName, modelVersion).Inc()
}

func (Counters) Miss(modelName, modelVersion string) {
	CacheMisses.WithLabelValues(modelName, modelVersion).Inc()
}

func (Counters) Insert(modelName, modelVersion string) {
	CacheInserts.WithLabelValues(modelName, modelVersion).Inc()
}

func (Counters) Error(modelName, modelVersion, stage string) {
	CacheErrors.WithLabelValues(modelName, modelVersion, stage).Inc()
}

func (Counters) Observe(rpcMethod string, elapsed time.Duration) {
	RpcResponseLatencyHistogram.WithLabelValues(rpcMethod).Observe(elapsed.Seconds())
}
