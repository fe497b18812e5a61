// Package metrics holds the Prometheus collectors for the HTTP layer and the processing pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicememo_http_requests_total",
			Help: "HTTP requests by route pattern and status code",
		},
		[]string{"method", "route", "status"},
	)

	Uploads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voicememo_recordings_uploaded_total",
			Help: "Recordings accepted by the upload endpoints",
		},
	)

	ProcessingOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voicememo_processing_outcomes_total",
			Help: "Finished processing jobs by final status",
		},
		[]string{"status"},
	)

	ProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "voicememo_processing_duration_seconds",
			Help:    "Wall time from processing start to final status",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	SweptRecordings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voicememo_recordings_swept_total",
			Help: "Stale recordings marked failed by the sweeper",
		},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
