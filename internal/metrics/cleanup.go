package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cleanup subsystem metrics
var (
	// CleanupDuration tracks how long a single target cleanup takes
	CleanupDuration prometheus.Histogram

	// FilesDeletedTotal tracks total stale files removed
	FilesDeletedTotal prometheus.Counter

	// DirsDeletedTotal tracks directories removed after becoming empty
	DirsDeletedTotal prometheus.Counter

	// BytesFreedTotal tracks total bytes freed across all cleanups
	BytesFreedTotal prometheus.Counter

	// ProtectedDirsTotal counts directories skipped because of a marker file
	ProtectedDirsTotal prometheus.Counter

	// ErrorsTotal counts cleanups aborted by an error
	ErrorsTotal prometheus.Counter

	// CleanupLastRunTimestamp records Unix timestamp of the last cycle
	CleanupLastRunTimestamp prometheus.Gauge

	// TargetBytesFreedTotal tracks bytes freed per configured root
	TargetBytesFreedTotal *prometheus.CounterVec
)

func initCleanupMetrics() {
	CleanupDuration = NewDurationHistogram(
		"stalecleaner_cleanup_duration_seconds",
		"Duration of a single target cleanup in seconds.",
	)

	FilesDeletedTotal = NewCounter(
		"stalecleaner_files_deleted_total",
		"Total number of stale files deleted.",
	)

	DirsDeletedTotal = NewCounter(
		"stalecleaner_dirs_deleted_total",
		"Total number of emptied directories deleted.",
	)

	BytesFreedTotal = NewCounter(
		"stalecleaner_bytes_freed_total",
		"Total bytes freed by deleting stale files.",
	)

	ProtectedDirsTotal = NewCounter(
		"stalecleaner_protected_dirs_total",
		"Total number of directories skipped because they contain a marker file.",
	)

	ErrorsTotal = NewCounter(
		"stalecleaner_errors_total",
		"Total number of cleanups aborted by an error.",
	)

	CleanupLastRunTimestamp = NewGauge(
		"stalecleaner_cleanup_last_run_timestamp",
		"Timestamp of the last cleanup cycle (Unix epoch seconds).",
	)

	TargetBytesFreedTotal = NewCounterVec(
		"stalecleaner_target_bytes_freed_total",
		"Total bytes freed per cleanup root.",
		[]string{"root"},
	)
}

func registerCleanupMetrics(reg prometheus.Registerer) {
	reg.MustRegister(
		CleanupDuration,
		FilesDeletedTotal,
		DirsDeletedTotal,
		BytesFreedTotal,
		ProtectedDirsTotal,
		ErrorsTotal,
		CleanupLastRunTimestamp,
		TargetBytesFreedTotal,
	)
}

// RecordCleanupRun updates the last run timestamp
func RecordCleanupRun(now time.Time) {
	CleanupLastRunTimestamp.Set(float64(now.Unix()))
}

// RecordFileDeletion counts one removed file of the given size under root
func RecordFileDeletion(root string, bytes int64) {
	FilesDeletedTotal.Inc()
	BytesFreedTotal.Add(float64(bytes))
	TargetBytesFreedTotal.WithLabelValues(root).Add(float64(bytes))
}
