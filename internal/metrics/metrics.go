package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "minikv_master_requests_total",
		Help: "Total requests handled, by HTTP method and outcome class (2xx/3xx/4xx/5xx).",
	}, []string{"method", "outcome"})

	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "minikv_master_request_duration_seconds",
		Help:    "Request handling latency, by HTTP method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	VolumeErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "minikv_volume_errors_total",
		Help: "Total volume RPC failures, by operation (put/get/delete).",
	}, []string{"op"})

	KeysTracked = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "minikv_index_keys_estimate",
		Help: "Best-effort count of live keys, updated periodically from index scans.",
	})

	ReplicationLagSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "minikv_replication_seconds",
		Help:    "Time taken to replicate a blob from the primary to the remaining replicas.",
		Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30},
	})

	KeyLockHoldersInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "minikv_keylock_holders_in_flight",
		Help: "Number of key-lock shards currently held by an in-progress request.",
	})
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		VolumeErrorsTotal,
		KeysTracked,
		ReplicationLagSeconds,
		KeyLockHoldersInFlight,
	)
}

// ObserveRequest records a completed request's outcome class and
// latency. outcomeClass is one of the labels OutcomeClass returns.
func ObserveRequest(method, outcomeClass string, start time.Time) {
	RequestsTotal.WithLabelValues(method, outcomeClass).Inc()
	RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

// OutcomeClass maps an HTTP status code to its outcome-class label.
func OutcomeClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
