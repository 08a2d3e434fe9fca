package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, mode := range []string{"full", "incremental"} {
		for _, status := range []string{"success", "error"} {
			ScanRunsTotal.WithLabelValues(mode, status)
		}
	}

	for _, outcome := range []string{"unchanged", "changed", "skipped"} {
		ScanFoldersTotal.WithLabelValues(outcome)
	}

	for _, category := range []string{
		"folder_not_found", "folder_permission_denied",
		"file_not_found", "file_permission_denied", "file_corrupt", "file_unrecognized_name",
	} {
		ScanSkipsTotal.WithLabelValues(category)
	}

	for _, result := range []string{"hit", "not_found", "expired", "error"} {
		ThumbnailCacheLookups.WithLabelValues(result)
	}

	for _, status := range []string{"success", "error", "deduplicated"} {
		ThumbnailCacheWrites.WithLabelValues(status)
	}

	for _, reason := range []string{"not_found", "unexpected"} {
		ThumbnailBatchFailures.WithLabelValues(reason)
	}

	for _, op := range []string{"stat", "open", "readdir"} {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
	}

	for _, op := range []string{"upsert_photos", "get_scan_states", "set_scan_states", "count_photos", "count_folders", "recent_photo_paths"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
