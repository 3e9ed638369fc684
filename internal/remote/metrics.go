package remote

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "barcodegen_remote_fetch_duration_seconds",
			Help:    "Duration of remote barcode fetches",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"code", "method"},
	)

	fetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barcodegen_remote_fetch_requests_total",
			Help: "Total number of remote barcode fetches",
		},
		[]string{"code", "method"},
	)

	staleDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "barcodegen_remote_stale_dropped_total",
			Help: "Remote completions discarded because a newer trigger superseded them",
		},
	)
)
