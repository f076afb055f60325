package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AudioJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_jobs_total",
			Help: "Audio generation jobs by provider and terminal status",
		},
		[]string{"provider", "status"},
	)

	AudioJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audio_job_duration_seconds",
			Help:    "Wall-clock duration of audio generation jobs",
			Buckets: []float64{1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"provider"},
	)

	// AudioMergesTotal counts merge attempts. mode is remote or local,
	// result is queued, completed, fallback or failed.
	AudioMergesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audio_merges_total",
			Help: "Full-book merge attempts by mode and result",
		},
		[]string{"mode", "result"},
	)

	StorageCleanupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storage_cleanup_failures_total",
			Help: "Best-effort object deletions that failed",
		},
	)

	StaleJobsReaped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audio_stale_jobs_reaped_total",
			Help: "Audio jobs failed by the stale job reaper",
		},
	)
)
