package indexer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"vrchat-albums/internal/logging"
	"vrchat-albums/internal/photo"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce collapses bursts of file events, such as VRChat
// writing a photo in several steps, into one scan request.
const DefaultWatchDebounce = 2 * time.Second

// Watcher calls onChange when photos are added, removed or renamed under
// the watched roots.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	roots     []string
	debounce  time.Duration
	onChange  func()

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher over roots. Subdirectories are added
// recursively when Run starts and as they are created.
func NewWatcher(roots []string, debounce time.Duration, onChange func()) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		roots:     roots,
		debounce:  debounce,
		onChange:  onChange,
	}, nil
}

// Run watches until ctx is done, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		if err := w.fsWatcher.Close(); err != nil {
			logging.Error("failed to close folder watcher: %v", err)
		}
	}()

	count := 0
	for _, root := range w.roots {
		count += w.addRecursive(root)
	}
	logging.Info("Watching %d photo folders for changes", count)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logging.Error("Folder watcher error: %v", err)
		}
	}
}

// addRecursive adds dir and its non-hidden subdirectories.
func (w *Watcher) addRecursive(dir string) int {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable folders are reported by the scanner
			return nil //nolint:nilerr
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if addErr := w.fsWatcher.Add(path); addErr != nil {
			logging.Warn("failed to add path to watcher %s: %v", path, addErr)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		logging.Warn("failed to walk %s for watcher: %v", dir, err)
	}
	return count
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addRecursive(event.Name)
			w.schedule()
			return
		}
	}

	if !photo.IsPhotoFile(name) {
		return
	}
	if event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Write) {
		logging.Debug("Photo change detected: %s %s", event.Op, event.Name)
		w.schedule()
	}
}

// schedule (re)starts the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}
