package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"guildsync/internal/pkg/config"
)

// WorkerMetrics provides Prometheus metrics for the sync worker. It embeds
// the standard ConfigMetrics for configuration monitoring and adds job-level
// metrics for the two cron jobs (labelled "rss" and "gallery").
//
// Embedded metrics (from ConfigMetrics):
//   - worker_config_load_timestamp: Unix timestamp of last configuration load
//   - worker_config_validation_errors_total: Total validation errors by field
//   - worker_config_fallbacks_total: Total fallback operations by field
//   - worker_config_fallback_active: 1 if any fallback active, 0 otherwise
//
// Worker-specific metrics:
//   - worker_sync_runs_total: Total sync pass runs by job and status
//   - worker_sync_duration_seconds: Duration histogram of sync passes by job
//   - worker_sync_overlap_skips_total: Passes skipped because the previous
//     run of the same job was still going
//   - worker_sync_last_success_timestamp: Unix timestamp of the last
//     successful pass by job
type WorkerMetrics struct {
	*config.ConfigMetrics

	// SyncRunsTotal counts sync pass runs.
	// Labels: job (rss, gallery), status (success, failure, skipped)
	SyncRunsTotal *prometheus.CounterVec

	// SyncDurationSeconds measures the duration of full sync passes.
	// Labels: job (rss, gallery)
	// Buckets tuned for passes that normally finish in seconds but can
	// stretch to the sync timeout when Discord pacing dominates.
	SyncDurationSeconds *prometheus.HistogramVec

	// SyncOverlapSkipsTotal counts passes dropped by the re-entrancy
	// guard. A growing counter means the schedule outruns the work.
	// Labels: job (rss, gallery)
	SyncOverlapSkipsTotal *prometheus.CounterVec

	// SyncLastSuccessTimestamp records the Unix timestamp of the last
	// successful pass, per job. Alert when it goes stale.
	SyncLastSuccessTimestamp *prometheus.GaugeVec
}

// NewWorkerMetrics creates a WorkerMetrics instance. Metrics are registered
// with the default Prometheus registry via promauto on creation.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		SyncRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_sync_runs_total",
			Help: "Total number of sync pass runs by job and status",
		}, []string{"job", "status"}),

		SyncDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worker_sync_duration_seconds",
			Help:    "Duration of full sync passes in seconds",
			Buckets: []float64{0.5, 1, 5, 15, 60, 300, 600},
		}, []string{"job"}),

		SyncOverlapSkipsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_sync_overlap_skips_total",
			Help: "Sync passes skipped because the previous run had not finished",
		}, []string{"job"}),

		SyncLastSuccessTimestamp: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "worker_sync_last_success_timestamp",
			Help: "Unix timestamp of the last successful sync pass by job",
		}, []string{"job"}),
	}
}

// MustRegister is a no-op kept for the usual metrics initialization pattern;
// registration already happened via promauto in NewWorkerMetrics.
func (m *WorkerMetrics) MustRegister() {}

// RecordRun increments the run counter for the given job and status.
// Status should be "success", "failure", or "skipped".
func (m *WorkerMetrics) RecordRun(job, status string) {
	m.SyncRunsTotal.WithLabelValues(job, status).Inc()
}

// RecordDuration observes the duration of one sync pass in seconds.
func (m *WorkerMetrics) RecordDuration(job string, seconds float64) {
	m.SyncDurationSeconds.WithLabelValues(job).Observe(seconds)
}

// RecordOverlapSkip counts a pass dropped by the re-entrancy guard.
func (m *WorkerMetrics) RecordOverlapSkip(job string) {
	m.SyncOverlapSkipsTotal.WithLabelValues(job).Inc()
	m.RecordRun(job, "skipped")
}

// RecordLastSuccess records the current time as the job's last successful
// pass completion.
func (m *WorkerMetrics) RecordLastSuccess(job string) {
	m.SyncLastSuccessTimestamp.WithLabelValues(job).SetToCurrentTime()
}
