// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// [Load] reads configuration with viper from, in increasing precedence,
// built-in defaults, an optional YAML file and environment variables. Each
// YAML key is the lower-cased name of its environment variable:
//
//   - PHOTO_DIR: Primary VRChat photo directory (default: /photos)
//   - EXTRA_PHOTO_DIRS: Comma-separated additional photo roots
//   - DATABASE_DIR: Directory holding albums.db (default: /database)
//   - CACHE_DIR: Thumbnail cache parent directory (default: OS temp directory)
//   - THUMBNAIL_CACHE_MAX_MB: Eviction bound for the thumbnail cache, 0 for unlimited (default: 500)
//   - SCAN_INTERVAL: Periodic incremental scan interval as Go duration (default: 30m)
//   - WATCH_ENABLED: Trigger scans from filesystem events (default: true)
//   - METRICS_ENABLED: Enable the metrics server (default: true)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - LOG_LEVEL: debug, info, warn or error (default: info)
//   - LOG_FORMAT: console or json (default: console)
//   - PHOTO_TIMEZONE: IANA zone photo file names are recorded in (default: local time)
//
// [LoadConfig] additionally initializes logging, prints the banner and
// prepares directories: the database directory is required and must be
// writable, while an unusable cache directory falls back to the OS temp
// directory.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Example Usage
//
//	config, err := startup.LoadConfig(configPath)
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//
//	startup.LogDatabaseInit(time.Since(dbStart))
//	startup.LogIndexerInit(config.ScanInterval, config.PhotoDirs(), config.WatchEnabled)
//
//	startup.LogShutdownInitiated("SIGTERM")
//	startup.LogShutdownComplete()
package startup
