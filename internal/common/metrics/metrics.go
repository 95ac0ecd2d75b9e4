// internal/common/metrics/metrics.go
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	ShortlistOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlist_operations_total",
			Help: "Shortlist store operations by outcome",
		},
		[]string{"operation", "status"},
	)

	ShortlistOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shortlist_operation_duration_seconds",
			Help:    "Duration of shortlist store operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	ShortlistEventSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shortlist_event_subscribers",
			Help: "Open change-stream connections",
		},
	)
)

// StoreRecorder feeds shortlist store operations into the Prometheus collectors.
type StoreRecorder struct{}

func (StoreRecorder) RecordOperation(_ context.Context, operation, status string, duration time.Duration) {
	ShortlistOperations.WithLabelValues(operation, status).Inc()
	ShortlistOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
