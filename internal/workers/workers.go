package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Environment variables that override the computed worker counts.
const (
	ScanWorkersEnv      = "SCAN_WORKERS"
	ThumbnailWorkersEnv = "THUMBNAIL_WORKERS"
)

// Count returns the number of workers for a task type.
// It respects container CPU limits via GOMAXPROCS (Go 1.19+).
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//
// The limit parameter caps the worker count to prevent resource exhaustion.
// Use 0 for no limit. A positive integer in envKey overrides the computed
// count but is still capped by limit.
func Count(envKey string, multiplier float64, limit int) int {
	if envKey != "" {
		if override := os.Getenv(envKey); override != "" {
			if count, err := strconv.Atoi(override); err == nil && count > 0 {
				if limit > 0 && count > limit {
					return limit
				}
				return count
			}
		}
	}

	// GOMAXPROCS is automatically set to container CPU limit in Go 1.19+
	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForScan returns the baseline worker count for metadata extraction.
// Header reads are I/O-bound (2 per CPU). Override with SCAN_WORKERS.
func ForScan(limit int) int {
	return Count(ScanWorkersEnv, 2.0, limit)
}

// ForThumbnails returns the baseline worker count for thumbnail rendering.
// Decoding and resizing are CPU-bound (1 per CPU). Override with THUMBNAIL_WORKERS.
func ForThumbnails(limit int) int {
	return Count(ThumbnailWorkersEnv, 1.0, limit)
}
