package indexer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vrchat-albums/internal/filesystem"
	"vrchat-albums/internal/photo"

	"github.com/stretchr/testify/require"
)

type fakeSettings struct {
	mu      sync.Mutex
	primary string
	extras  []string
	states  map[string]FolderScanState
	saves   int
	loadErr error
	saveErr error
}

func newFakeSettings(primary string, extras ...string) *fakeSettings {
	return &fakeSettings{primary: primary, extras: extras, states: map[string]FolderScanState{}}
}

func (s *fakeSettings) PrimaryPhotoDir() string  { return s.primary }
func (s *fakeSettings) ExtraPhotoDirs() []string { return s.extras }

func (s *fakeSettings) FolderScanStates(context.Context) (map[string]FolderScanState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return maps.Clone(s.states), nil
}

func (s *fakeSettings) SetFolderScanStates(_ context.Context, states map[string]FolderScanState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.states = maps.Clone(states)
	return nil
}

func (s *fakeSettings) state(folder string) (FolderScanState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[folder]
	return st, ok
}

var errDiskFull = errors.New("disk full")

type fakeStore struct {
	mu         sync.Mutex
	entries    map[string]photo.Entry
	calls      [][]photo.Entry
	failOnCall int // 1-based, 0 never fails
	nextID     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: map[string]photo.Entry{}}
}

func (s *fakeStore) UpsertPhotoEntries(_ context.Context, entries []photo.Entry) ([]photo.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, entries)
	if s.failOnCall == len(s.calls) {
		return nil, errDiskFull
	}

	stored := make([]photo.Entry, 0, len(entries))
	for _, e := range entries {
		if existing, ok := s.entries[e.PhotoPath]; ok {
			e.ID = existing.ID
		} else {
			s.nextID++
			e.ID = fmt.Sprintf("id-%d", s.nextID)
		}
		s.entries[e.PhotoPath] = e
		stored = append(stored, e)
	}
	return stored, nil
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *fakeStore) persistedPaths(call int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var paths []string
	for _, e := range s.calls[call] {
		paths = append(paths, e.PhotoPath)
	}
	return paths
}

type fakeGovernor struct {
	checks atomic.Int64
}

func (g *fakeGovernor) RecommendedParallelism(baseline int) int { return baseline }

func (g *fakeGovernor) CheckMemory(ctx context.Context) error {
	g.checks.Add(1)
	return ctx.Err()
}

// stubExtractor returns entries without reading files.
type stubExtractor struct {
	flushes atomic.Int64
	fail    map[string]error
}

func (e *stubExtractor) Extract(ctx context.Context, path string) (photo.Entry, error) {
	if err := ctx.Err(); err != nil {
		return photo.Entry{}, err
	}
	if err, ok := e.fail[filepath.Base(path)]; ok {
		return photo.Entry{}, err
	}
	return photo.Entry{PhotoPath: path, TakenAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Width: 1920, Height: 1080}, nil
}

func (e *stubExtractor) Flush() { e.flushes.Add(1) }

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func newTestIndexer(settings Settings, store PhotoStore, extractor Extractor) (*Indexer, *testClock) {
	clock := &testClock{now: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}
	idx := New(settings, store, extractor, &fakeGovernor{})
	idx.SetWorkers(4)
	idx.now = clock.Now
	return idx, clock
}

func photoName(day, minute int) string {
	return fmt.Sprintf("VRChat_2024-01-%02d_10-%02d-00.000_1920x1080.png", day, minute)
}

// writePhoto writes a small PNG with the given modification time.
func writePhoto(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 16, 9))))
	require.NoError(t, f.Close())
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

// touchPhoto creates an empty file for tests that do not read contents.
func touchPhoto(t *testing.T, dir, name string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	return path
}

func fastRetry() filesystem.RetryConfig {
	return filesystem.RetryConfig{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
}
