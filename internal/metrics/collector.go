package metrics

import (
	"time"

	"vrchat-albums/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current statistics
type Stats struct {
	TotalPhotos    int
	KnownFolders   int
	CacheSizeBytes int64
	CacheFiles     int
}

// StatsFunc adapts a function to StatsProvider.
type StatsFunc func() Stats

// GetStats implements StatsProvider.
func (f StatsFunc) GetStats() Stats {
	return f()
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	PhotosTotal.Set(float64(stats.TotalPhotos))
	KnownFoldersTotal.Set(float64(stats.KnownFolders))
	ThumbnailCacheSize.Set(float64(stats.CacheSizeBytes))
	ThumbnailCacheCount.Set(float64(stats.CacheFiles))

	logging.Debug("Metrics collected: photos=%d, folders=%d, cache=%d files/%d bytes",
		stats.TotalPhotos, stats.KnownFolders, stats.CacheFiles, stats.CacheSizeBytes)
}
