// Package metrics holds the prometheus collectors shared by the HTTP layer
// and the media lifecycle code.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipebox_http_requests_total",
		Help: "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recipebox_http_request_duration_seconds",
		Help:    "HTTP request latency by route and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipebox_media_uploads_total",
		Help: "Blob uploads by bucket prefix and outcome.",
	}, []string{"bucket", "outcome"})

	MediaCleanupFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipebox_media_cleanup_failures_total",
		Help: "Blob deletions that failed and were left for out-of-band collection.",
	}, []string{"bucket"})
)
