package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scan metrics
var (
	ScanRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vrchat_albums_scan_runs_total",
			Help: "Total number of photo scan runs by mode and outcome",
		},
		[]string{"mode", "status"}, // mode: "full", "incremental"; status: "success", "error"
	)

	ScanLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vrchat_albums_scan_last_run_duration_seconds",
			Help: "Duration of the last photo scan run in seconds",
		},
	)

	ScanLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vrchat_albums_scan_last_run_timestamp",
			Help: "Unix timestamp of the last completed photo scan",
		},
	)

	ScanIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vrchat_albums_scan_running",
			Help: "Whether a photo scan is currently running (1 = running, 0 = idle)",
		},
	)

	ScanFoldersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vrchat_albums_scan_folders_total",
			Help: "Folders visited by the scanner by outcome",
		},
		[]string{"outcome"}, // "unchanged", "changed", "skipped"
	)

	ScanFilesExtracted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vrchat_albums_scan_files_extracted_total",
			Help: "Total number of photo files whose metadata was extracted",
		},
	)

	ScanEntriesPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vrchat_albums_scan_entries_persisted_total",
			Help: "Total number of photo index entries written by the scanner",
		},
	)

	ScanSkipsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vrchat_albums_scan_skips_total",
			Help: "Folders and files skipped for expected reasons",
		},
		[]string{"category"},
	)

	ScanBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vrchat_albums_scan_batch_duration_seconds",
			Help:    "Time spent extracting and persisting one batch of photos",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

// Thumbnail cache metrics
var (
	ThumbnailCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vrchat_albums_thumbnail_cache_lookups_total",
			Help: "Thumbnail cache lookups by result",
		},
		[]string{"result"}, // "hit", "not_found", "expired", "error"
	)

	ThumbnailCacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vrchat_albums_thumbnail_cache_writes_total",
			Help: "Thumbnail cache writes by status",
		},
		[]string{"status"}, // "success", "error", "deduplicated"
	)

	ThumbnailGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vrchat_albums_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	ThumbnailBatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vrchat_albums_thumbnail_batch_failures_total",
			Help: "Per-item failures in batch thumbnail requests by reason",
		},
		[]string{"reason"},
	)

	ThumbnailEvictionRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vrchat_albums_thumbnail_eviction_runs_total",
			Help: "Total number of cache eviction passes that deleted files",
		},
	)

	ThumbnailEvictedBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vrchat_albums_thumbnail_evicted_bytes_total",
			Help: "Total bytes removed from the thumbnail cache by eviction",
		},
	)

	ThumbnailEvictedFiles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vrchat_albums_thumbnail_evicted_files_total",
			Help: "Total files removed from the thumbnail cache by eviction",
		},
	)

	ThumbnailCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vrchat_albums_thumbnail_cache_size_bytes",
			Help: "Total size of the thumbnail cache in bytes",
		},
	)

	ThumbnailCacheCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vrchat_albums_thumbnail_cache_count",
			Help: "Number of thumbnails in the cache",
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vrchat_albums_memory_usage_ratio",
			Help: "Sampled heap usage as a fraction of the configured limit",
		},
	)

	MemoryPeakBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vrchat_albums_memory_peak_bytes",
			Help: "Peak sampled heap usage since the last reset",
		},
	)

	MemoryBackoffsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vrchat_albums_memory_backoffs_total",
			Help: "Number of times work was delayed because memory was critical",
		},
	)

	MemoryRecommendedParallelism = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vrchat_albums_memory_recommended_parallelism",
			Help: "Most recent concurrency recommended by the memory governor",
		},
	)
)

// Filesystem metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vrchat_albums_filesystem_retry_attempts_total",
			Help: "Filesystem operations retried after a stale file handle",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vrchat_albums_filesystem_retry_failures_total",
			Help: "Filesystem operations that still failed after all retries",
		},
		[]string{"operation"},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vrchat_albums_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vrchat_albums_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	PhotosTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vrchat_albums_photos_total",
			Help: "Number of photos in the index",
		},
	)

	KnownFoldersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vrchat_albums_known_folders_total",
			Help: "Number of folders with a recorded scan state",
		},
	)
)
