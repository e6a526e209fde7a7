// Package metrics declares the Prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LikeMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "apicatalog",
		Name:      "like_mutations_total",
		Help:      "Like and dislike requests by operation and whether the liked-set changed.",
	}, []string{"op", "changed"})

	ViewsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "apicatalog",
		Name:      "views_recorded_total",
		Help:      "Entry views by delivery path (queued or inline).",
	}, []string{"path"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "apicatalog",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "apicatalog",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func ObserveLike(op string, changed bool) {
	LikeMutations.WithLabelValues(op, strconv.FormatBool(changed)).Inc()
}
