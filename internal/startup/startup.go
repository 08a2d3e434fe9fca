package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"vrchat-albums/internal/logging"
	"vrchat-albums/internal/memory"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"go.trai.ch/zerr"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

const (
	keyPhotoDir       = "photo_dir"
	keyExtraPhotoDirs = "extra_photo_dirs"
	keyDatabaseDir    = "database_dir"
	keyCacheDir       = "cache_dir"
	keyCacheMaxMB     = "thumbnail_cache_max_mb"
	keyScanInterval   = "scan_interval"
	keyWatchEnabled   = "watch_enabled"
	keyMetricsEnabled = "metrics_enabled"
	keyMetricsPort    = "metrics_port"
	keyLogLevel       = "log_level"
	keyLogFormat      = "log_format"
	keyTimezone       = "photo_timezone"

	defaultScanInterval = 30 * time.Minute
	databaseFile        = "albums.db"
)

// Config holds all application configuration
type Config struct {
	PhotoDir       string
	ExtraPhotoDirs []string
	DatabaseDir    string
	CacheDir       string
	ScanInterval   time.Duration
	WatchEnabled   bool
	MetricsEnabled bool
	MetricsPort    string
	LogLevel       string
	LogFormat      string

	// ThumbnailCacheMaxBytes bounds the thumbnail cache; 0 disables eviction.
	ThumbnailCacheMaxBytes int64

	// Timezone is the configured name; Location is what file names are parsed in.
	Timezone string
	Location *time.Location

	// Derived paths
	DatabasePath string
}

// newViper registers defaults and environment bindings. Every key maps to
// its upper-cased environment variable (photo_dir -> PHOTO_DIR).
func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(keyPhotoDir, "/photos")
	v.SetDefault(keyExtraPhotoDirs, []string{})
	v.SetDefault(keyDatabaseDir, "/database")
	v.SetDefault(keyCacheDir, "")
	v.SetDefault(keyCacheMaxMB, 500)
	v.SetDefault(keyScanInterval, defaultScanInterval.String())
	v.SetDefault(keyWatchEnabled, true)
	v.SetDefault(keyMetricsEnabled, true)
	v.SetDefault(keyMetricsPort, "9090")
	v.SetDefault(keyLogLevel, "")
	v.SetDefault(keyLogFormat, "console")
	v.SetDefault(keyTimezone, "")
	v.AutomaticEnv()
	return v
}

// Load reads configuration from defaults, the optional YAML file at path and
// the environment, in increasing order of precedence. It has no side effects
// beyond reading the file.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to read config file"), "path", path)
		}
	}

	config := &Config{
		PhotoDir:               v.GetString(keyPhotoDir),
		ExtraPhotoDirs:         splitList(v.GetStringSlice(keyExtraPhotoDirs)),
		DatabaseDir:            v.GetString(keyDatabaseDir),
		CacheDir:               v.GetString(keyCacheDir),
		WatchEnabled:           v.GetBool(keyWatchEnabled),
		MetricsEnabled:         v.GetBool(keyMetricsEnabled),
		MetricsPort:            v.GetString(keyMetricsPort),
		LogLevel:               v.GetString(keyLogLevel),
		LogFormat:              v.GetString(keyLogFormat),
		ThumbnailCacheMaxBytes: v.GetInt64(keyCacheMaxMB) * 1024 * 1024,
		Timezone:               v.GetString(keyTimezone),
	}

	interval, err := time.ParseDuration(v.GetString(keyScanInterval))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "invalid scan_interval"), "value", v.GetString(keyScanInterval))
	}
	config.ScanInterval = interval

	if err := config.Validate(); err != nil {
		return nil, zerr.Wrap(err, "config validation failed")
	}

	config.Location = time.Local
	if config.Timezone != "" {
		loc, err := time.LoadLocation(config.Timezone)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "invalid photo_timezone"), "value", config.Timezone)
		}
		config.Location = loc
	}

	if err := config.resolvePaths(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks value ranges that viper cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.PhotoDir) == "" {
		return errors.New("photo_dir is required")
	}
	if strings.TrimSpace(c.DatabaseDir) == "" {
		return errors.New("database_dir is required")
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("scan_interval must be positive, got %v", c.ScanInterval)
	}
	if c.ThumbnailCacheMaxBytes < 0 {
		return errors.New("thumbnail_cache_max_mb must not be negative")
	}
	if c.MetricsEnabled && c.MetricsPort == "" {
		return errors.New("metrics_port is required when metrics are enabled")
	}
	if c.LogLevel != "" {
		if _, ok := logging.ParseLevel(c.LogLevel); !ok {
			return fmt.Errorf("invalid log_level: %s", c.LogLevel)
		}
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log_format: %s", c.LogFormat)
	}
	return nil
}

// PhotoDirs returns the primary directory followed by the extra ones.
func (c *Config) PhotoDirs() []string {
	return append([]string{c.PhotoDir}, c.ExtraPhotoDirs...)
}

func (c *Config) resolvePaths() error {
	var err error
	if c.PhotoDir, err = filepath.Abs(c.PhotoDir); err != nil {
		return zerr.Wrap(err, "failed to resolve photo directory path")
	}
	for i, dir := range c.ExtraPhotoDirs {
		if c.ExtraPhotoDirs[i], err = filepath.Abs(dir); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to resolve extra photo directory path"), "path", dir)
		}
	}
	if c.DatabaseDir, err = filepath.Abs(c.DatabaseDir); err != nil {
		return zerr.Wrap(err, "failed to resolve database directory path")
	}
	if c.CacheDir != "" {
		if c.CacheDir, err = filepath.Abs(c.CacheDir); err != nil {
			return zerr.Wrap(err, "failed to resolve cache directory path")
		}
	}
	c.DatabasePath = filepath.Join(c.DatabaseDir, databaseFile)
	return nil
}

// splitList flattens comma-separated items. Environment values arrive as a
// single string while YAML lists arrive split already.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// LoadConfig loads configuration, initializes logging from it, logs the
// startup banner and prepares the directories the application writes to.
func LoadConfig(path string) (*Config, error) {
	config, err := Load(path)
	if err != nil {
		return nil, err
	}

	if err := logging.Init(config.LogLevel, config.LogFormat); err != nil {
		return nil, zerr.Wrap(err, "failed to initialize logging")
	}

	printBanner()
	logSystemInfo()
	logConfiguration(config, path)

	if err := setupDirectories(config); err != nil {
		return nil, err
	}
	return config, nil
}

func logConfiguration(config *Config, path string) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	if path != "" {
		logging.Info("  Config file:             %s", path)
	}
	logging.Info("  PHOTO_DIR:               %s", config.PhotoDir)
	logging.Info("  EXTRA_PHOTO_DIRS:        %s", strings.Join(config.ExtraPhotoDirs, ", "))
	logging.Info("  DATABASE_DIR:            %s", config.DatabaseDir)
	if config.CacheDir != "" {
		logging.Info("  CACHE_DIR:               %s", config.CacheDir)
	} else {
		logging.Info("  CACHE_DIR:               (OS temp directory)")
	}
	if config.ThumbnailCacheMaxBytes > 0 {
		logging.Info("  THUMBNAIL_CACHE_MAX_MB:  %s", humanize.IBytes(uint64(config.ThumbnailCacheMaxBytes)))
	} else {
		logging.Info("  THUMBNAIL_CACHE_MAX_MB:  unlimited")
	}
	logging.Info("  SCAN_INTERVAL:           %v", config.ScanInterval)
	logging.Info("  WATCH_ENABLED:           %v", config.WatchEnabled)
	logging.Info("  METRICS_ENABLED:         %v", config.MetricsEnabled)
	logging.Info("  METRICS_PORT:            %s", config.MetricsPort)
	logging.Info("  PHOTO_TIMEZONE:          %s", config.Location)
	logging.Info("  LOG_LEVEL:               %s", logging.GetLevel())
	logging.Info("  LOG_FORMAT:              %s", config.LogFormat)
}

func setupDirectories(config *Config) error {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	for _, dir := range config.PhotoDirs() {
		if err := checkPhotoDirectory(dir); err != nil {
			logging.Warn("  Photo directory issue (%s): %v", dir, err)
		}
	}

	if err := ensureDirectory(config.DatabaseDir, "database"); err != nil {
		return zerr.Wrap(err, "database directory error")
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(config.DatabaseDir); err != nil {
		return zerr.Wrap(err, "database directory is not writable (required for database)")
	}
	logging.Info("  [OK] Database directory is writable")

	if config.CacheDir != "" && !setupOptionalDir(config.CacheDir, "thumbnail cache") {
		logging.Warn("  Falling back to the OS temp directory for thumbnails")
		config.CacheDir = ""
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:    ENABLED (required)")
	logging.Info("    Watcher:     %s", enabledString(config.WatchEnabled))
	logging.Info("    Metrics:     %s", enabledString(config.MetricsEnabled))
	return nil
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		return false
	}
	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogMemoryConfig logs the outcome of memory.ConfigureFromEnv.
func LogMemoryConfig(result memory.ConfigResult) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEMORY CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	if !result.Configured {
		logging.Info("  GOMEMLIMIT: not configured (set MEMORY_LIMIT or GOMEMLIMIT)")
		return
	}

	logging.Info("  Source:          %s", result.Source)
	if result.ContainerLimit > 0 {
		logging.Info("  Container limit: %s", humanize.IBytes(uint64(result.ContainerLimit)))
		logging.Info("  Ratio:           %.0f%%", result.Ratio*100)
	}
	logging.Info("  GOMEMLIMIT:      %s", humanize.IBytes(uint64(result.GoMemLimit)))
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogThumbnailInit logs which renderer backs the thumbnail cache.
func LogThumbnailInit(renderer, dir string, maxBytes int64) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("THUMBNAIL CACHE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Renderer:   %s", renderer)
	logging.Info("  Directory:  %s", dir)
	if maxBytes > 0 {
		logging.Info("  Max size:   %s", humanize.IBytes(uint64(maxBytes)))
	} else {
		logging.Info("  Max size:   unlimited")
	}
}

// LogIndexerInit logs indexer initialization
func LogIndexerInit(interval time.Duration, roots []string, watch bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("INDEXER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Scan interval: %v", interval)
	logging.Info("  Photo roots:   %d", len(roots))
	for _, root := range roots {
		logging.Debug("    %s", root)
	}
	logging.Info("  Watcher:       %s", enabledString(watch))
	logging.Info("  Starting indexer...")
}

// LogIndexerStarted logs successful indexer start
func LogIndexerStarted() {
	logging.Info("  [OK] Indexer started")
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful start with the metrics endpoints
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	if config.MetricsEnabled {
		logging.Info("  Metrics:         http://0.0.0.0:%s/metrics", config.MetricsPort)
		logging.Info("  Health:          http://0.0.0.0:%s/health", config.MetricsPort)
	} else {
		logging.Info("  Metrics:         DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
 _   _________  _____ _           _       _    _ _
| | / / ___ \ \/ / __| |_  __ _| |_    /_\  | | |__ _  _ _ __  ___
| |/ /|   / >  < (__| ' \/ _' |  _|  / _ \ | | '_ \ || | '  \(_-<
|___/ |_|_\/_/\_\___|_||_\__,_|\__| /_/ \_\|_|_.__/\_,_|_|_|_/__/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

// checkPhotoDirectory reports on a photo root without creating it; roots are
// expected to be mounted and a missing one is skipped by the scanner.
func checkPhotoDirectory(path string) error {
	logging.Debug("  Checking photo directory: %s", path)

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New("path exists but is not a directory")
	}

	if logging.IsDebugEnabled() {
		if entries, err := os.ReadDir(path); err == nil {
			dirCount := 0
			for _, e := range entries {
				if e.IsDir() {
					dirCount++
				}
			}
			logging.Debug("    Contents: %d entries, %d month folders (top level)", len(entries), dirCount)
		}
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return zerr.Wrap(err, "failed to create directory")
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return zerr.Wrap(err, "failed to stat directory")
	}

	if !info.IsDir() {
		return zerr.With(zerr.New("path exists but is not a directory"), "path", path)
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}
