package handlers

import (
	"time"

	"vrchat-albums/internal/indexer"
	"vrchat-albums/internal/metrics"
)

// ScanStatus is the part of the indexer the operational endpoints read.
type ScanStatus interface {
	IsScanning() bool
	LastScanTime() time.Time
	LastResult() *indexer.ScanResult
	Progress() indexer.Progress
}

// Handlers serves the health, version and metrics endpoints.
type Handlers struct {
	status    ScanStatus
	stats     metrics.StatsProvider
	startTime time.Time
}

// New creates Handlers. stats may be nil.
func New(status ScanStatus, stats metrics.StatsProvider) *Handlers {
	return &Handlers{
		status:    status,
		stats:     stats,
		startTime: time.Now(),
	}
}
