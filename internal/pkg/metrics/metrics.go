package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sasgate_upstream_requests_total",
		Help: "Report requests sent to the affiliate API, by outcome",
	}, []string{"action", "status"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sasgate_upstream_latency_seconds",
		Help:    "Upstream round trip plus decode time in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})

	DecodedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sasgate_decoded_rows_total",
		Help: "Report rows decoded from upstream CSV payloads",
	}, []string{"action"})

	QuotaRejects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sasgate_quota_rejects_total",
		Help: "Requests rejected before reaching upstream",
	}, []string{"reason"})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sasgate_http_latency_seconds",
		Help:    "Gateway request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
