// Package metrics provides Prometheus instrumentation for the photo indexer.
//
// All collectors are registered with the default registry through promauto
// and are prefixed with "vrchat_albums_".
//
// # Metric Categories
//
// ## Scan Metrics
//
// Track incremental and full photo scans:
//   - ScanRunsTotal: runs by mode and status
//   - ScanFoldersTotal: folders by outcome (unchanged, changed, skipped)
//   - ScanFilesExtracted / ScanEntriesPersisted: per-run throughput
//   - ScanSkipsTotal: expected skips by category
//
// ## Thumbnail Cache Metrics
//
//   - ThumbnailCacheLookups: hit, not_found, expired, error
//   - ThumbnailCacheWrites: success, error, deduplicated
//   - ThumbnailEvicted*: eviction volume
//
// ## Memory Metrics
//
// Exported by the memory governor: usage ratio, peak bytes, backoffs and the
// most recent recommended parallelism.
//
// # Usage
//
// Call [InitializeMetrics] once at startup so every label combination is
// present from the first scrape, and run a [Collector] to keep the photo and
// cache gauges current.
package metrics
