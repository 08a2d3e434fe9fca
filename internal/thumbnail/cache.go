package thumbnail

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"vrchat-albums/internal/logging"
	"vrchat-albums/internal/metrics"

	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

const (
	// Namespace is the subdirectory of the temp dir that holds the cache.
	Namespace = "vrchat-albums-thumbnails"

	// DefaultTTL is how long an entry is served before it is regenerated.
	DefaultTTL = 7 * 24 * time.Hour

	// failureAlarmThreshold is the number of consecutive write failures
	// reported in one warning.
	failureAlarmThreshold = 10

	tmpSuffix = ".tmp"
)

// MissReason tells why a lookup found nothing usable.
type MissReason string

const (
	MissNotFound MissReason = "not_found"
	MissExpired  MissReason = "expired"
)

// Lookup is the result of Get. Data is set only on a hit.
type Lookup struct {
	Data []byte
	Hit  bool
	Miss MissReason
}

// Renderer produces a preview of a source image.
type Renderer interface {
	// Render returns the encoded preview. A width of 0 keeps the original
	// size. Errors for missing sources must wrap fs.ErrNotExist.
	Render(ctx context.Context, path string, width int) ([]byte, error)
	// Ext is the file extension of rendered output, without the dot.
	Ext() string
}

// Options configures a Store.
type Options struct {
	MaxSizeBytes int64
	TTL          time.Duration
}

// Store is the disk-backed thumbnail cache.
type Store struct {
	dirs     TempDirProvider
	renderer Renderer
	maxSize  int64
	ttl      time.Duration

	now    func() time.Time
	rename func(oldpath, newpath string) error
	remove func(name string) error

	pendingMu sync.Mutex
	pending   map[string]struct{}

	failMu   sync.Mutex
	failures int

	group singleflight.Group
}

// NewStore creates a cache under dirs that renders misses with renderer.
func NewStore(dirs TempDirProvider, renderer Renderer, opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return &Store{
		dirs:     dirs,
		renderer: renderer,
		maxSize:  opts.MaxSizeBytes,
		ttl:      opts.TTL,
		now:      time.Now,
		rename:   os.Rename,
		remove:   os.Remove,
		pending:  make(map[string]struct{}),
	}
}

// Key derives the cache key for a source path and width. A width of 0
// means the original size.
func Key(path string, width int) string {
	size := "original"
	if width > 0 {
		size = strconv.Itoa(width)
	}
	hash := md5.Sum([]byte(filepath.Clean(path) + ":" + size))
	return fmt.Sprintf("%x", hash)
}

// Dir returns the cache directory, creating it if needed.
func (s *Store) Dir() (string, error) {
	base, err := s.dirs.TempDir()
	if err != nil {
		return "", zerr.Wrap(err, "resolve cache temp dir")
	}
	dir := filepath.Join(base, Namespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", zerr.With(zerr.Wrap(err, "create cache dir"), "dir", dir)
	}
	return dir, nil
}

func (s *Store) entryPath(key string) (string, error) {
	dir, err := s.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, key+"."+s.renderer.Ext()), nil
}

// Get reads the cached preview for path at width. A missing or expired
// entry is a miss; any other I/O failure is returned as an error.
func (s *Store) Get(ctx context.Context, path string, width int) (Lookup, error) {
	if err := ctx.Err(); err != nil {
		return Lookup{}, err
	}

	cachePath, err := s.entryPath(Key(path, width))
	if err != nil {
		metrics.ThumbnailCacheLookups.WithLabelValues("error").Inc()
		return Lookup{}, err
	}

	info, err := os.Stat(cachePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			metrics.ThumbnailCacheLookups.WithLabelValues(string(MissNotFound)).Inc()
			return Lookup{Miss: MissNotFound}, nil
		}
		metrics.ThumbnailCacheLookups.WithLabelValues("error").Inc()
		return Lookup{}, zerr.With(zerr.Wrap(err, "stat cache entry"), "path", cachePath)
	}

	if s.now().Sub(info.ModTime()) > s.ttl {
		metrics.ThumbnailCacheLookups.WithLabelValues(string(MissExpired)).Inc()
		return Lookup{Miss: MissExpired}, nil
	}

	data, err := os.ReadFile(cachePath)
	if err != nil {
		// evicted between stat and read
		if errors.Is(err, fs.ErrNotExist) {
			metrics.ThumbnailCacheLookups.WithLabelValues(string(MissNotFound)).Inc()
			return Lookup{Miss: MissNotFound}, nil
		}
		metrics.ThumbnailCacheLookups.WithLabelValues("error").Inc()
		return Lookup{}, zerr.With(zerr.Wrap(err, "read cache entry"), "path", cachePath)
	}

	metrics.ThumbnailCacheLookups.WithLabelValues("hit").Inc()
	return Lookup{Data: data, Hit: true}, nil
}

// Put stores data for path at width. If a write for the same key is already
// in progress it returns nil without writing.
func (s *Store) Put(ctx context.Context, path string, width int, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := Key(path, width)
	if !s.beginWrite(key) {
		metrics.ThumbnailCacheWrites.WithLabelValues("deduplicated").Inc()
		logging.Debug("Thumbnail cache write already pending for %s", path)
		return nil
	}
	defer s.endWrite(key)

	if err := s.write(key, data); err != nil {
		metrics.ThumbnailCacheWrites.WithLabelValues("error").Inc()
		s.recordFailure(path, err)
		return err
	}

	metrics.ThumbnailCacheWrites.WithLabelValues("success").Inc()
	s.resetFailures()
	return nil
}

func (s *Store) write(key string, data []byte) error {
	cachePath, err := s.entryPath(key)
	if err != nil {
		return err
	}

	tmp := cachePath + tmpSuffix
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return zerr.With(zerr.Wrap(err, "write cache entry"), "path", tmp)
	}
	if err := s.rename(tmp, cachePath); err != nil {
		_ = os.Remove(tmp)
		return zerr.With(zerr.Wrap(err, "rename cache entry"), "path", cachePath)
	}
	return nil
}

func (s *Store) beginWrite(key string) bool {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	if _, ok := s.pending[key]; ok {
		return false
	}
	s.pending[key] = struct{}{}
	return true
}

func (s *Store) endWrite(key string) {
	s.pendingMu.Lock()
	delete(s.pending, key)
	s.pendingMu.Unlock()
}

// recordFailure counts a failed write and warns once every
// failureAlarmThreshold consecutive failures.
func (s *Store) recordFailure(path string, err error) {
	s.failMu.Lock()
	s.failures++
	alarm := s.failures >= failureAlarmThreshold
	if alarm {
		s.failures = 0
	}
	s.failMu.Unlock()

	logging.Debug("Thumbnail cache write failed for %s: %v", path, err)
	if alarm {
		logging.Warn("Thumbnail cache: %d consecutive write failures, last for %s: %v",
			failureAlarmThreshold, path, err)
	}
}

func (s *Store) resetFailures() {
	s.failMu.Lock()
	s.failures = 0
	s.failMu.Unlock()
}

// GetOrGenerate returns the cached preview or renders a new one. Cache
// failures are logged and never returned; only render errors are.
func (s *Store) GetOrGenerate(ctx context.Context, path string, width int) ([]byte, error) {
	lookup, err := s.Get(ctx, path, width)
	switch {
	case err != nil && ctx.Err() != nil:
		return nil, ctx.Err()
	case err != nil:
		logging.Warn("Thumbnail cache read failed for %s, regenerating: %v", path, err)
	case lookup.Hit:
		return lookup.Data, nil
	default:
		logging.Debug("Thumbnail cache miss (%s): %s", lookup.Miss, path)
	}

	key := Key(path, width)
	v, err, shared := s.group.Do(key, func() (any, error) {
		start := time.Now()
		data, err := s.renderer.Render(ctx, path, width)
		if err != nil {
			return nil, err
		}
		metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())

		if err := s.Put(context.WithoutCancel(ctx), path, width, data); err != nil {
			logging.Debug("Thumbnail not cached for %s: %v", path, err)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logging.Debug("Thumbnail generation shared for %s", path)
	}
	return v.([]byte), nil
}
