package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "file_processor_jobs_processed_total",
		Help: "Total number of jobs processed, by status",
	}, []string{"status"})

	JobProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "file_processor_job_processing_duration_seconds",
		Help:    "Duration of the processing pipeline",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	ArtifactEntriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "file_processor_artifact_entries_total",
		Help: "Total number of files packaged into output archives",
	})

	ActiveJobs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "file_processor_active_jobs",
		Help: "Number of jobs currently being processed",
	})

	DeadLetteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "file_processor_dead_lettered_total",
		Help: "Total number of messages sent to the dead-letter queue",
	})
)
