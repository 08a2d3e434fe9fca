package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"vrchat-albums/internal/filesystem"
	"vrchat-albums/internal/logging"
	"vrchat-albums/internal/metrics"
	"vrchat-albums/internal/photo"

	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// scanRun holds the state of one Scan call.
type scanRun struct {
	idx       *Indexer
	mode      Mode
	startedAt time.Time
	stored    map[string]FolderScanState
	states    map[string]FolderScanState
	visited   map[string]bool
	changed   []*folderListing
	tracker   *folderTracker
	skips     *SkipStats
	result    *ScanResult
}

func newScanRun(idx *Indexer, mode Mode, startedAt time.Time, stored map[string]FolderScanState) *scanRun {
	skips := newSkipStats()
	return &scanRun{
		idx:       idx,
		mode:      mode,
		startedAt: startedAt,
		stored:    cloneStates(stored),
		states:    cloneStates(stored),
		visited:   make(map[string]bool),
		tracker:   newFolderTracker(),
		skips:     skips,
		result:    &ScanResult{Mode: mode, StartedAt: startedAt, Skips: skips},
	}
}

func (r *scanRun) execute(ctx context.Context) error {
	if err := r.discoverFolders(ctx); err != nil {
		return err
	}

	candidates, err := r.selectFiles(ctx)
	if err != nil {
		return err
	}

	return r.extractAndPersist(ctx, candidates)
}

// roots returns the configured photo directories, cleaned and de-duplicated.
func (r *scanRun) roots() []string {
	var roots []string
	seen := make(map[string]bool)
	for _, dir := range append([]string{r.idx.settings.PrimaryPhotoDir()}, r.idx.settings.ExtraPhotoDirs()...) {
		if dir == "" {
			continue
		}
		dir = filepath.Clean(dir)
		if !seen[dir] {
			seen[dir] = true
			roots = append(roots, dir)
		}
	}
	return roots
}

// discoverFolders is stage 1: walk every root and keep the folders whose
// digest differs from the stored one.
func (r *scanRun) discoverFolders(ctx context.Context) error {
	roots := r.roots()
	if len(roots) == 0 {
		logging.Warn("No photo directories configured, nothing to scan")
		return nil
	}

	for i, root := range roots {
		r.idx.emit(StageFolders, percentOf(i, len(roots)), "scanning "+root, r.progress())
		if err := r.walk(ctx, root); err != nil {
			return err
		}
	}

	logging.Info("Folder scan: %d changed, %d unchanged", r.result.FoldersChanged, r.result.FoldersUnchanged)
	return nil
}

func (r *scanRun) walk(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.visited[dir] {
		return nil
	}
	r.visited[dir] = true

	listing, err := listFolder(dir, r.idx.retry)
	if err != nil {
		var folderErr *FolderError
		if errors.As(err, &folderErr) {
			logging.Warn("Skipping folder %s: %s", dir, folderErr.Reason)
			r.skips.addFolder(folderErr)
			metrics.ScanFoldersTotal.WithLabelValues("skipped").Inc()
			return nil
		}
		return zerr.With(zerr.Wrap(err, "folder discovery failed"), "folder", dir)
	}

	if len(listing.photos) > 0 {
		r.classify(listing)
	}

	for _, sub := range listing.subdirs {
		if err := r.walk(ctx, sub); err != nil {
			return err
		}
	}
	return nil
}

func (r *scanRun) classify(listing *folderListing) {
	if r.mode == ModeIncremental {
		if state, ok := r.stored[listing.path]; ok && state.Digest == listing.digest {
			r.result.FoldersUnchanged++
			metrics.ScanFoldersTotal.WithLabelValues("unchanged").Inc()
			return
		}
	}

	logging.Debug("Folder changed: %s (%d photos)", listing.path, len(listing.photos))
	r.changed = append(r.changed, listing)
	r.result.FoldersChanged++
	metrics.ScanFoldersTotal.WithLabelValues("changed").Inc()
}

// selectFiles is stage 2: narrow each changed folder to files modified
// since its last scan.
func (r *scanRun) selectFiles(ctx context.Context) ([]candidate, error) {
	var candidates []candidate

	for i, listing := range r.changed {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var since time.Time
		if r.mode == ModeIncremental {
			since = r.stored[listing.path].LastScannedAt
		}

		selected, err := r.filterModified(listing, since)
		if err != nil {
			return nil, err
		}

		if r.tracker.add(listing.path, listing.digest, len(selected)) {
			r.completeFolder(listing.path)
		}
		for _, path := range selected {
			candidates = append(candidates, candidate{folder: listing.path, path: path})
		}

		r.idx.emit(StageFiles, percentOf(i+1, len(r.changed)),
			fmt.Sprintf("%s: %d of %d files changed", filepath.Base(listing.path), len(selected), len(listing.photos)),
			r.progress())
	}

	r.result.Candidates = len(candidates)
	logging.Info("File scan: %d candidate files in %d changed folders", len(candidates), len(r.changed))
	return candidates, nil
}

func (r *scanRun) filterModified(listing *folderListing, since time.Time) ([]string, error) {
	selected := make([]string, 0, len(listing.photos))

	for _, name := range listing.photos {
		path := filepath.Join(listing.path, name)
		if since.IsZero() {
			selected = append(selected, path)
			continue
		}

		info, err := filesystem.StatWithRetry(path, r.idx.retry)
		if err != nil {
			switch {
			case filesystem.IsNotFound(err):
				r.skips.addFile(&photo.SkipError{Path: path, Reason: photo.SkipFileNotFound, Err: err})
				continue
			case filesystem.IsPermission(err):
				logging.Warn("Skipping %s: permission denied", path)
				r.skips.addFile(&photo.SkipError{Path: path, Reason: photo.SkipPermissionDenied, Err: err})
				continue
			default:
				return nil, zerr.With(zerr.Wrap(err, "stat photo failed"), "path", path)
			}
		}

		if info.ModTime().After(since) {
			selected = append(selected, path)
		}
	}

	return selected, nil
}

// extractAndPersist is stage 3: extract metadata batch by batch and persist
// each batch with a single store call.
func (r *scanRun) extractAndPersist(ctx context.Context, candidates []candidate) error {
	total := len(candidates)
	if total == 0 {
		return nil
	}

	processed := 0
	batchNum := 0
	for batch := range slices.Chunk(candidates, r.idx.batchSize) {
		if err := ctx.Err(); err != nil {
			return err
		}
		batchNum++

		if err := r.processBatch(ctx, batchNum, batch); err != nil {
			return err
		}

		processed += len(batch)
		p := r.progress()
		p.FilesProcessed = int64(processed)
		p.FilesTotal = int64(total)
		r.idx.emit(StageMetadata, percentOf(processed, total),
			fmt.Sprintf("%d/%d files", processed, total), p)
	}

	return nil
}

func (r *scanRun) processBatch(ctx context.Context, batchNum int, batch []candidate) error {
	start := time.Now()
	defer func() {
		metrics.ScanBatchDuration.Observe(time.Since(start).Seconds())
	}()

	entries := make([]photo.Entry, 0, len(batch))
	for sub := range slices.Chunk(batch, MetadataSubBatchSize) {
		extracted, err := r.extractAll(ctx, sub)
		if err != nil {
			return err
		}
		entries = append(entries, extracted...)

		if len(batch) > MetadataSubBatchSize {
			r.idx.extractor.Flush()
		}
	}
	r.result.Extracted += len(entries)

	if len(entries) > 0 {
		stored, err := r.idx.store.UpsertPhotoEntries(ctx, entries)
		if err != nil {
			logging.Error("Failed to persist batch %d (%d entries, %s .. %s): %v",
				batchNum, len(entries), entries[0].PhotoPath, entries[len(entries)-1].PhotoPath, err)
			return zerr.With(zerr.With(zerr.Wrap(err, "persist photo entries"), "batch", batchNum), "entries", len(entries))
		}
		r.result.Persisted += len(stored)
		metrics.ScanEntriesPersisted.Add(float64(len(stored)))
	}

	for _, c := range batch {
		if r.tracker.done(c.folder) {
			r.completeFolder(c.folder)
		}
	}
	return nil
}

// extractAll probes one sub-batch with governor-bounded concurrency. Skipped
// files are counted; any other failure cancels the rest and is returned.
func (r *scanRun) extractAll(ctx context.Context, sub []candidate) ([]photo.Entry, error) {
	results := make([]photo.Entry, len(sub))
	ok := make([]bool, len(sub))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.idx.governor.RecommendedParallelism(r.idx.workers))

	for i, c := range sub {
		g.Go(func() error {
			if err := r.idx.governor.CheckMemory(gctx); err != nil {
				return err
			}

			entry, err := r.idx.extractor.Extract(gctx, c.path)
			if err != nil {
				if skip, isSkip := photo.AsSkip(err); isSkip {
					r.skips.addFile(skip)
					return nil
				}
				return err
			}

			results[i] = entry
			ok[i] = true
			metrics.ScanFilesExtracted.Inc()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var extractErr *photo.ExtractError
		if errors.As(err, &extractErr) {
			return nil, zerr.With(zerr.Wrap(err, "metadata extraction failed"), "path", extractErr.Path)
		}
		return nil, err
	}

	entries := make([]photo.Entry, 0, len(sub))
	for i := range results {
		if ok[i] {
			entries = append(entries, results[i])
		}
	}
	return entries, nil
}

// completeFolder records the folder's new digest with the run start time.
func (r *scanRun) completeFolder(folder string) {
	r.states[folder] = FolderScanState{
		FolderPath:    folder,
		Digest:        r.tracker.digest(folder),
		LastScannedAt: r.startedAt,
	}
	r.result.FoldersCompleted++
}

func (r *scanRun) progress() Progress {
	return Progress{StartedAt: r.startedAt}
}

func percentOf(done, total int) float64 {
	if total <= 0 {
		return 100
	}
	return float64(done) / float64(total) * 100
}
