package thumbnail

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"vrchat-albums/internal/logging"
	"vrchat-albums/internal/metrics"

	"github.com/dustin/go-humanize"
	"go.trai.ch/zerr"
)

const (
	// cleanupThreshold is the fraction of MaxSizeBytes that triggers eviction.
	cleanupThreshold = 0.9
	// cleanupTarget is the fraction of MaxSizeBytes eviction shrinks to.
	cleanupTarget = 0.5
)

// EvictResult describes one eviction pass.
type EvictResult struct {
	Files        int
	TotalBytes   int64
	RemovedFiles int
	RemovedBytes int64
	FinalBytes   int64
}

type cacheFile struct {
	path    string
	size    int64
	modTime time.Time
}

// listFiles returns every file in the cache directory. Files that vanish
// while listing are left out.
func (s *Store) listFiles() ([]cacheFile, error) {
	dir, err := s.Dir()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "list cache dir"), "dir", dir)
	}

	files := make([]cacheFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			logging.Warn("Failed to stat cache file %s: %v", entry.Name(), err)
			continue
		}
		files = append(files, cacheFile{
			path:    filepath.Join(dir, entry.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}
	return files, nil
}

// Size returns the total bytes and number of files in the cache.
func (s *Store) Size() (int64, int, error) {
	files, err := s.listFiles()
	if err != nil {
		return 0, 0, err
	}
	var total int64
	for _, f := range files {
		total += f.size
	}
	return total, len(files), nil
}

// Evict deletes the oldest entries once the cache passes 90% of its size
// limit, until it is at or below 50%. Delete failures are logged and the
// pass continues. A Store without a size limit never evicts.
func (s *Store) Evict(ctx context.Context) (EvictResult, error) {
	var result EvictResult
	if s.maxSize <= 0 {
		return result, nil
	}

	files, err := s.listFiles()
	if err != nil {
		return result, err
	}

	for _, f := range files {
		result.TotalBytes += f.size
	}
	result.Files = len(files)
	result.FinalBytes = result.TotalBytes
	metrics.ThumbnailCacheSize.Set(float64(result.TotalBytes))
	metrics.ThumbnailCacheCount.Set(float64(result.Files))

	threshold := int64(float64(s.maxSize) * cleanupThreshold)
	if result.TotalBytes < threshold {
		logging.Debug("Thumbnail cache at %s of %s, no eviction needed",
			humanize.Bytes(uint64(result.TotalBytes)), humanize.Bytes(uint64(s.maxSize)))
		return result, nil
	}

	target := int64(float64(s.maxSize) * cleanupTarget)
	logging.Info("Thumbnail cache at %s of %s, evicting down to %s",
		humanize.Bytes(uint64(result.TotalBytes)), humanize.Bytes(uint64(s.maxSize)),
		humanize.Bytes(uint64(target)))

	slices.SortFunc(files, func(a, b cacheFile) int {
		return a.modTime.Compare(b.modTime)
	})

	for _, f := range files {
		if result.FinalBytes <= target {
			break
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := s.remove(f.path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				result.FinalBytes -= f.size
				continue
			}
			logging.Warn("Failed to evict cache file %s: %v", f.path, err)
			continue
		}

		result.FinalBytes -= f.size
		result.RemovedBytes += f.size
		result.RemovedFiles++
	}

	metrics.ThumbnailEvictionRuns.Inc()
	metrics.ThumbnailEvictedFiles.Add(float64(result.RemovedFiles))
	metrics.ThumbnailEvictedBytes.Add(float64(result.RemovedBytes))
	metrics.ThumbnailCacheSize.Set(float64(result.FinalBytes))
	metrics.ThumbnailCacheCount.Set(float64(result.Files - result.RemovedFiles))

	logging.Info("Thumbnail cache eviction removed %d files (%s), now %s",
		result.RemovedFiles, humanize.Bytes(uint64(result.RemovedBytes)), humanize.Bytes(uint64(result.FinalBytes)))
	return result, nil
}
