package indexer

import (
	"context"
	"time"

	"vrchat-albums/internal/photo"
)

// FolderScanState records the last completed scan of one folder.
type FolderScanState struct {
	FolderPath    string
	Digest        FolderDigest
	LastScannedAt time.Time
}

// Settings supplies the photo roots and stores per-folder scan state.
type Settings interface {
	PrimaryPhotoDir() string
	ExtraPhotoDirs() []string
	FolderScanStates(ctx context.Context) (map[string]FolderScanState, error)
	SetFolderScanStates(ctx context.Context, states map[string]FolderScanState) error
}

// PhotoStore persists index entries. It must return an error on any
// storage failure.
type PhotoStore interface {
	UpsertPhotoEntries(ctx context.Context, entries []photo.Entry) ([]photo.Entry, error)
}

// Extractor reads metadata for one photo.
type Extractor interface {
	Extract(ctx context.Context, path string) (photo.Entry, error)
	Flush()
}

// MemoryGovernor bounds concurrency under memory pressure.
type MemoryGovernor interface {
	RecommendedParallelism(baseline int) int
	CheckMemory(ctx context.Context) error
}

// ProgressSink receives scan progress. Emit must not block.
type ProgressSink interface {
	Emit(stage string, percent float64, message string)
}
