package indexer

import (
	"context"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"vrchat-albums/internal/filesystem"
	"vrchat-albums/internal/logging"
	"vrchat-albums/internal/metrics"
	"vrchat-albums/internal/workers"

	"go.trai.ch/zerr"
)

const (
	// BatchSize is the number of files extracted and persisted together.
	BatchSize = 100

	// MetadataSubBatchSize bounds how many files are probed before the native
	// image cache is flushed.
	MetadataSubBatchSize = 50

	// maxScanWorkers caps the baseline extraction concurrency.
	maxScanWorkers = 16
)

// ErrScanInProgress is returned when a scan or reset is already running.
var ErrScanInProgress = zerr.New("scan already in progress")

// Mode selects how much stored state a scan trusts.
type Mode int

const (
	// ModeIncremental skips unchanged folders and unmodified files.
	ModeIncremental Mode = iota
	// ModeFull treats every folder as changed and every file as a candidate.
	ModeFull
)

func (m Mode) String() string {
	if m == ModeFull {
		return "full"
	}
	return "incremental"
}

// ScanResult summarizes one scan.
type ScanResult struct {
	Mode             Mode
	StartedAt        time.Time
	Duration         time.Duration
	FoldersChanged   int
	FoldersUnchanged int
	FoldersCompleted int
	Candidates       int
	Extracted        int
	Persisted        int
	Skips            *SkipStats
}

// Indexer scans the configured photo roots and keeps the photo index in
// step with the files on disk.
type Indexer struct {
	settings  Settings
	store     PhotoStore
	extractor Extractor
	governor  MemoryGovernor
	progress  ProgressSink

	workers   int
	batchSize int
	retry     filesystem.RetryConfig
	now       func() time.Time

	scanMu       sync.Mutex
	isScanning   bool
	lastScanTime time.Time
	lastResult   *ScanResult

	progressSnapshot atomic.Value
	trigger          chan struct{}
	onScanComplete   func(*ScanResult)
}

// New creates an Indexer.
func New(settings Settings, store PhotoStore, extractor Extractor, governor MemoryGovernor) *Indexer {
	idx := &Indexer{
		settings:  settings,
		store:     store,
		extractor: extractor,
		governor:  governor,
		progress:  discardProgress{},
		workers:   workers.ForScan(maxScanWorkers),
		batchSize: BatchSize,
		retry:     filesystem.DefaultRetryConfig(),
		now:       time.Now,
		trigger:   make(chan struct{}, 1),
	}
	idx.progressSnapshot.Store(Progress{})
	return idx
}

// SetProgressSink sets where progress events are sent.
func (idx *Indexer) SetProgressSink(sink ProgressSink) {
	if sink != nil {
		idx.progress = sink
	}
}

// SetWorkers sets the baseline extraction concurrency before memory
// pressure is applied.
func (idx *Indexer) SetWorkers(n int) {
	if n > 0 {
		idx.workers = n
	}
}

// SetOnScanComplete sets a callback invoked after every successful scan.
func (idx *Indexer) SetOnScanComplete(callback func(*ScanResult)) {
	idx.onScanComplete = callback
}

// Progress returns the latest progress snapshot.
func (idx *Indexer) Progress() Progress {
	if p, ok := idx.progressSnapshot.Load().(Progress); ok {
		return p
	}
	return Progress{}
}

// IsScanning reports whether a scan is running.
func (idx *Indexer) IsScanning() bool {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()
	return idx.isScanning
}

// LastScanTime returns when the last successful scan finished.
func (idx *Indexer) LastScanTime() time.Time {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()
	return idx.lastScanTime
}

// LastResult returns the result of the last successful scan, or nil.
func (idx *Indexer) LastResult() *ScanResult {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()
	return idx.lastResult
}

// tryStartScan attempts to start scanning, returns false if already in progress.
func (idx *Indexer) tryStartScan() bool {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()

	if idx.isScanning {
		return false
	}
	idx.isScanning = true
	return true
}

// finishScan marks scanning as complete.
func (idx *Indexer) finishScan(result *ScanResult) {
	idx.scanMu.Lock()
	defer idx.scanMu.Unlock()

	idx.isScanning = false
	if result != nil {
		idx.lastScanTime = idx.now()
		idx.lastResult = result
	}
}

// Scan runs one pass over all photo roots.
//
// Folder states are written back when Scan returns, whether or not it
// succeeded, so completed folders are not reprocessed by the next run.
func (idx *Indexer) Scan(ctx context.Context, mode Mode) (result *ScanResult, err error) {
	if !idx.tryStartScan() {
		return nil, ErrScanInProgress
	}
	var completed *ScanResult
	defer func() { idx.finishScan(completed) }()

	metrics.ScanIsRunning.Set(1)
	defer metrics.ScanIsRunning.Set(0)

	startedAt := idx.now()
	logging.Info("Starting %s photo scan...", mode)
	if r, ok := idx.governor.(interface{ ResetStats() }); ok {
		r.ResetStats()
	}

	stored, err := idx.settings.FolderScanStates(ctx)
	if err != nil {
		metrics.ScanRunsTotal.WithLabelValues(mode.String(), "error").Inc()
		return nil, zerr.Wrap(err, "load folder scan states")
	}

	run := newScanRun(idx, mode, startedAt, stored)

	defer func() {
		// states must survive cancellation
		saveCtx := context.WithoutCancel(ctx)
		if saveErr := idx.settings.SetFolderScanStates(saveCtx, run.states); saveErr != nil {
			logging.Error("Failed to save folder scan states: %v", saveErr)
			if err == nil {
				err = zerr.Wrap(saveErr, "save folder scan states")
			}
		}

		run.result.Duration = time.Since(startedAt)
		run.skips.logSummary()
		if s, ok := idx.governor.(interface{ LogSummary(string) }); ok {
			s.LogSummary("Scan")
		}

		if err != nil {
			metrics.ScanRunsTotal.WithLabelValues(mode.String(), "error").Inc()
			logging.Error("Photo scan failed after %v: %v", run.result.Duration, err)
			if n := run.tracker.pending(); n > 0 {
				logging.Warn("%d partially processed folders will be rescanned next run", n)
			}
			idx.setProgress(Progress{Stage: StageFailed, Message: "scan failed", StartedAt: startedAt})
			return
		}

		metrics.ScanRunsTotal.WithLabelValues(mode.String(), "success").Inc()
		metrics.ScanLastRunDuration.Set(run.result.Duration.Seconds())
		metrics.ScanLastRunTimestamp.Set(float64(time.Now().Unix()))

		logging.Info("Photo scan complete: %d folders changed, %d unchanged, %d files extracted, %d entries persisted in %v",
			run.result.FoldersChanged, run.result.FoldersUnchanged, run.result.Extracted, run.result.Persisted,
			run.result.Duration)
		idx.emit(StageComplete, 100, "scan complete", Progress{StartedAt: startedAt})

		result = run.result
		completed = run.result
		if idx.onScanComplete != nil {
			idx.onScanComplete(result)
		}
	}()

	return nil, run.execute(ctx)
}

// ResetScanState clears every stored folder state so the next incremental
// scan revisits all folders.
func (idx *Indexer) ResetScanState(ctx context.Context) error {
	if !idx.tryStartScan() {
		return ErrScanInProgress
	}
	defer idx.finishScan(nil)

	if err := idx.settings.SetFolderScanStates(ctx, map[string]FolderScanState{}); err != nil {
		return zerr.Wrap(err, "reset folder scan states")
	}
	logging.Info("Folder scan state reset")
	return nil
}

// TriggerScan requests an incremental scan from Run. Requests made while
// one is already pending are merged.
func (idx *Indexer) TriggerScan() {
	select {
	case idx.trigger <- struct{}{}:
	default:
	}
}

// Run performs an initial incremental scan, then scans again every interval
// and whenever TriggerScan is called, until ctx is done.
func (idx *Indexer) Run(ctx context.Context, interval time.Duration) {
	idx.runScheduled(ctx, "Initial")

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
		logging.Info("Periodic photo scans every %v", interval)
	}

	for {
		select {
		case <-tick:
			logging.Debug("Periodic scan triggered")
			idx.runScheduled(ctx, "Periodic")
		case <-idx.trigger:
			logging.Debug("Scan triggered by folder change")
			idx.runScheduled(ctx, "Triggered")
		case <-ctx.Done():
			logging.Info("Photo scan scheduler stopped")
			return
		}
	}
}

func (idx *Indexer) runScheduled(ctx context.Context, label string) {
	if _, err := idx.Scan(ctx, ModeIncremental); err != nil && ctx.Err() == nil {
		logging.Error("%s scan failed: %v", label, err)
	}
}

func (idx *Indexer) setProgress(p Progress) {
	idx.progressSnapshot.Store(p)
}

// emit records a snapshot and forwards it to the sink.
func (idx *Indexer) emit(stage string, percent float64, message string, p Progress) {
	p.Stage = stage
	p.Percent = percent
	p.Message = message
	p.IsScanning = stage != StageComplete
	idx.setProgress(p)
	idx.progress.Emit(stage, percent, message)
}

func cloneStates(states map[string]FolderScanState) map[string]FolderScanState {
	if states == nil {
		return make(map[string]FolderScanState)
	}
	return maps.Clone(states)
}
