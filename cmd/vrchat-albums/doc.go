// Command vrchat-albums keeps a SQLite index of VRChat photos in step with
// the photo folders on disk and maintains a size-bounded thumbnail cache.
//
// # Commands
//
//	vrchat-albums serve            scan at startup, on an interval and on folder changes
//	vrchat-albums scan [--full]    run one scan and exit
//	vrchat-albums cache evict      trim the thumbnail cache to its size limit
//	vrchat-albums cache warm       pre-render thumbnails for recent photos
//	vrchat-albums state show       print tracked folder count and last scan time
//	vrchat-albums state reset      forget folder digests so the next scan revisits everything
//	vrchat-albums version          print build information
//
// Every command accepts --config for a YAML file and --renderer to pick the
// thumbnail backend. Configuration keys and environment variables are listed
// in package startup.
//
// # Background Services
//
// serve runs these goroutines until SIGINT or SIGTERM:
//
//   - Indexer: incremental scans on a timer and on watcher triggers
//   - Folder watcher: fsnotify events on photo roots, debounced into scan requests
//   - Metrics collector: refreshes index and cache gauges every minute
//   - Metrics server: /metrics, /health, /livez, /readyz and /version
//
// After each successful scan the last scan time is recorded and the
// thumbnail cache is evicted down to its target size.
//
// # Build Requirements
//
// CGO is required for SQLite and libvips. When libvips cannot be
// initialized, --renderer=auto falls back to a pure Go JPEG renderer.
package main
