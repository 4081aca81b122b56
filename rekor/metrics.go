package rekor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rekor_client_requests_total",
			Help: "How many requests were sent to the transparency log, by endpoint and response code.",
		},
		[]string{"endpoint", "code"},
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rekor_client_request_duration_seconds",
			Help:    "Latency of transparency log requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)
