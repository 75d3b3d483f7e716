package handler

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	rpcRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orders_ms",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Total number of RPC commands processed",
		},
		[]string{"command", "status"},
	)

	rpcRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "orders_ms",
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "Histogram of RPC command durations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	rpcInProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "orders_ms",
			Subsystem: "rpc",
			Name:      "requests_in_progress",
			Help:      "Number of RPC commands currently being processed",
		},
	)
)

func RegisterMetrics() {
	prometheus.MustRegister(
		rpcRequestsTotal,
		rpcRequestDuration,
		rpcInProgress,
	)
}
