package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goalcheck_http_requests_total",
		Help: "Total HTTP requests processed by the goalcheck backend",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "goalcheck_http_request_duration_seconds",
		Help:    "HTTP request duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	streamsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goalcheck_streams_total",
		Help: "Generation streams served grouped by kind and outcome",
	}, []string{"kind", "outcome"})

	streamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "goalcheck_stream_duration_seconds",
		Help:    "Duration of generation streams",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"kind"})

	streamEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goalcheck_stream_events_total",
		Help: "Stream events emitted grouped by kind and status",
	}, []string{"kind", "status"})

	enrichDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "goalcheck_enrich_job_duration_seconds",
		Help:    "Duration of enrichment jobs executed by the enricher",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"status"})

	enrichTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "goalcheck_enrich_jobs_total",
		Help: "Enrichment jobs completed grouped by status",
	}, []string{"status"})
)

// ObserveHTTP records one served request.
func ObserveHTTP(method, path string, status int, latency time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(latency.Seconds())
}

// ObserveStream records a finished stream. outcome is completed, error or
// cancelled.
func ObserveStream(kind, outcome string, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	streamsTotal.WithLabelValues(kind, outcome).Inc()
	streamDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// ObserveEvent counts one emitted stream event.
func ObserveEvent(kind, status string) {
	streamEventsTotal.WithLabelValues(kind, status).Inc()
}

// ObserveEnrichJob records the duration and status of an enrichment job.
func ObserveEnrichJob(status string, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}
	enrichDuration.WithLabelValues(status).Observe(duration.Seconds())
	enrichTotal.WithLabelValues(status).Inc()
}
