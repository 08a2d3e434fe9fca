package commands

import (
	"context"
	"fmt"
	"time"

	"vrchat-albums/internal/database"
	"vrchat-albums/internal/indexer"
	"vrchat-albums/internal/logging"
	"vrchat-albums/internal/media"
	"vrchat-albums/internal/memory"
	"vrchat-albums/internal/metrics"
	"vrchat-albums/internal/photo"
	"vrchat-albums/internal/startup"
	"vrchat-albums/internal/thumbnail"

	"go.trai.ch/zerr"
)

// components is the object graph shared by every command.
type components struct {
	config   *startup.Config
	db       *database.Database
	governor *memory.Governor
	indexer  *indexer.Indexer
	thumbs   *thumbnail.Store
}

func (c *CLI) setup(ctx context.Context) (*components, error) {
	config, err := startup.LoadConfig(c.configPath)
	if err != nil {
		return nil, zerr.Wrap(err, "configuration error")
	}

	startup.LogMemoryConfig(memory.ConfigureFromEnv())
	governor := memory.NewGovernor(memory.DefaultConfig())

	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to initialize database")
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	thumbs, err := c.newThumbnailStore(config)
	if err != nil {
		media.ShutdownVips()
		_ = db.Close()
		return nil, err
	}

	settings := database.NewSettings(db, config.PhotoDir, config.ExtraPhotoDirs)
	extractor := photo.NewExtractor(
		photo.WithLocation(config.Location),
		photo.WithFlushHook(media.ClearCache),
	)
	idx := indexer.New(settings, db, extractor, governor)
	idx.SetProgressSink(indexer.LogProgress{})

	return &components{
		config:   config,
		db:       db,
		governor: governor,
		indexer:  idx,
		thumbs:   thumbs,
	}, nil
}

func (c *CLI) newThumbnailStore(config *startup.Config) (*thumbnail.Store, error) {
	var renderer thumbnail.Renderer
	name := ""

	switch c.renderer {
	case rendererImaging:
		renderer, name = thumbnail.NewImagingRenderer(), "imaging (JPEG)"
	case rendererVips, rendererAuto:
		if err := media.InitVips(); err != nil {
			if c.renderer == rendererVips {
				return nil, zerr.Wrap(err, "libvips renderer unavailable")
			}
			logging.Warn("libvips unavailable, using pure Go renderer: %v", err)
			renderer, name = thumbnail.NewImagingRenderer(), "imaging (JPEG)"
		} else {
			renderer, name = media.NewVipsRenderer(), "libvips (WebP)"
		}
	default:
		return nil, fmt.Errorf("unknown renderer %q", c.renderer)
	}

	store := thumbnail.NewStore(thumbnail.NewTempDirProvider(config.CacheDir), renderer,
		thumbnail.Options{MaxSizeBytes: config.ThumbnailCacheMaxBytes})

	dir, err := store.Dir()
	if err != nil {
		return nil, zerr.Wrap(err, "thumbnail cache directory unavailable")
	}
	startup.LogThumbnailInit(name, dir, config.ThumbnailCacheMaxBytes)
	return store, nil
}

// afterScan records the scan and trims the thumbnail cache.
func (comp *components) afterScan(ctx context.Context, _ *indexer.ScanResult) {
	if err := comp.db.SetLastScan(ctx, time.Now()); err != nil {
		logging.Warn("Failed to record last scan time: %v", err)
	}
	if _, err := comp.thumbs.Evict(ctx); err != nil {
		logging.Warn("Thumbnail cache eviction failed: %v", err)
	}
}

// stats feeds the metrics collector and the health endpoint.
func (comp *components) stats(ctx context.Context) metrics.StatsProvider {
	return metrics.StatsFunc(func() metrics.Stats {
		var stats metrics.Stats
		if n, err := comp.db.CountPhotos(ctx); err == nil {
			stats.TotalPhotos = n
		} else {
			logging.Debug("Failed to count photos: %v", err)
		}
		if n, err := comp.db.CountFolderStates(ctx); err == nil {
			stats.KnownFolders = n
		} else {
			logging.Debug("Failed to count folder states: %v", err)
		}
		if size, files, err := comp.thumbs.Size(); err == nil {
			stats.CacheSizeBytes = size
			stats.CacheFiles = files
		} else {
			logging.Debug("Failed to measure thumbnail cache: %v", err)
		}
		return stats
	})
}

func (comp *components) close() {
	media.ShutdownVips()
	if err := comp.db.Close(); err != nil {
		logging.Warn("Failed to close database: %v", err)
	}
	_ = logging.Sync()
}
