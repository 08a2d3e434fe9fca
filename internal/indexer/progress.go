package indexer

import (
	"time"

	"vrchat-albums/internal/logging"
)

// Scan stages reported to the progress sink.
const (
	StageFolders  = "folders"
	StageFiles    = "files"
	StageMetadata = "metadata"
	StageComplete = "complete"
	StageFailed   = "failed"
)

// Progress is a snapshot of the current or last scan.
type Progress struct {
	Stage          string    `json:"stage"`
	Percent        float64   `json:"percent"`
	Message        string    `json:"message"`
	FilesProcessed int64     `json:"filesProcessed"`
	FilesTotal     int64     `json:"filesTotal"`
	IsScanning     bool      `json:"isScanning"`
	StartedAt      time.Time `json:"startedAt,omitempty"`
}

// ProgressEvent is one message delivered by ChannelProgress.
type ProgressEvent struct {
	Stage   string
	Percent float64
	Message string
}

// ChannelProgress delivers progress on a buffered channel. Events are
// dropped when the buffer is full.
type ChannelProgress struct {
	events chan ProgressEvent
}

// NewChannelProgress creates a sink with the given buffer size.
func NewChannelProgress(buffer int) *ChannelProgress {
	return &ChannelProgress{events: make(chan ProgressEvent, buffer)}
}

// Emit implements ProgressSink.
func (c *ChannelProgress) Emit(stage string, percent float64, message string) {
	select {
	case c.events <- ProgressEvent{Stage: stage, Percent: percent, Message: message}:
	default:
	}
}

// Events returns the receive side of the channel.
func (c *ChannelProgress) Events() <-chan ProgressEvent {
	return c.events
}

// LogProgress writes progress to the debug log.
type LogProgress struct{}

// Emit implements ProgressSink.
func (LogProgress) Emit(stage string, percent float64, message string) {
	logging.Debug("Scan progress [%s] %.0f%%: %s", stage, percent, message)
}

type discardProgress struct{}

func (discardProgress) Emit(string, float64, string) {}
