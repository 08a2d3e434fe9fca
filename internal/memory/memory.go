package memory

import (
	"context"
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"vrchat-albums/internal/logging"
	"vrchat-albums/internal/metrics"

	"github.com/dustin/go-humanize"
)

// DefaultFallbackLimit is used when neither an explicit limit nor GOMEMLIMIT is set.
const DefaultFallbackLimit int64 = 2 << 30

// Config holds memory management configuration
type Config struct {
	// MemoryLimitBytes is the soft memory limit (0 = use GOMEMLIMIT, then DefaultFallbackLimit)
	MemoryLimitBytes int64

	// HighWaterMark is the fraction of the limit at which concurrency starts to shrink (0.0-1.0)
	HighWaterMark float64

	// CriticalWaterMark is the fraction at which work is serialized and delayed (0.0-1.0)
	CriticalWaterMark float64

	// SampleInterval bounds how often runtime memory stats are read
	SampleInterval time.Duration

	// BackoffDelay is the pause injected by CheckMemory at critical level
	BackoffDelay time.Duration

	// LogCooldown is the minimum gap between critical-memory warnings
	LogCooldown time.Duration
}

// DefaultConfig returns sensible defaults for memory management
func DefaultConfig() Config {
	return Config{
		MemoryLimitBytes:  0,
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		SampleInterval:    500 * time.Millisecond,
		BackoffDelay:      500 * time.Millisecond,
		LogCooldown:       10 * time.Second,
	}
}

// Sampler returns the current heap usage in bytes.
type Sampler func() uint64

// Stats is a point-in-time view of the governor.
type Stats struct {
	Current  uint64
	Peak     uint64
	Limit    int64
	Usage    float64
	Warnings int64
	Backoffs int64
}

// Governor tracks memory usage, recommends concurrency for batch loops and
// injects a delay when usage is critical. One Governor is shared by the
// scanner and the thumbnail service.
type Governor struct {
	config   Config
	limit    int64
	sample   Sampler
	collect  func()
	sleep    func(context.Context, time.Duration) error
	now      func() time.Time
	throttle *logging.Throttle

	mu        sync.Mutex
	current   uint64
	sampledAt time.Time
	peak      uint64
	warnings  int64
	backoffs  int64
}

// NewGovernor creates a governor. The limit falls back to GOMEMLIMIT and then
// to DefaultFallbackLimit.
func NewGovernor(config Config) *Governor {
	limit := config.MemoryLimitBytes

	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < 1<<62 {
			limit = goMemLimit
			logging.Info("Memory governor using GOMEMLIMIT: %s", humanize.IBytes(uint64(limit)))
		}
	}

	if limit <= 0 {
		limit = DefaultFallbackLimit
		logging.Debug("Memory governor: no memory limit configured, using %s", humanize.IBytes(uint64(limit)))
	}

	return &Governor{
		config:   config,
		limit:    limit,
		sample:   readHeapAlloc,
		collect:  runtime.GC,
		sleep:    sleepContext,
		now:      time.Now,
		throttle: logging.NewThrottle(config.LogCooldown),
	}
}

// SetSampler replaces the memory sampler.
func (g *Governor) SetSampler(s Sampler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sample = s
	g.sampledAt = time.Time{}
}

func readHeapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}

// refreshLocked samples memory if the last sample is stale and returns the
// usage ratio. Callers must hold g.mu.
func (g *Governor) refreshLocked() float64 {
	now := g.now()
	if g.sampledAt.IsZero() || g.config.SampleInterval <= 0 || now.Sub(g.sampledAt) >= g.config.SampleInterval {
		g.current = g.sample()
		g.sampledAt = now
		if g.current > g.peak {
			g.peak = g.current
			metrics.MemoryPeakBytes.Set(float64(g.peak))
		}
	}

	usage := float64(g.current) / float64(g.limit)
	metrics.MemoryUsageRatio.Set(usage)
	return usage
}

// RecommendedParallelism returns how many items may be processed at once.
// Below the high-water mark this is baseline; between high and critical it
// shrinks linearly; at or above critical it is 1.
func (g *Governor) RecommendedParallelism(baseline int) int {
	if baseline < 1 {
		baseline = 1
	}

	g.mu.Lock()
	usage := g.refreshLocked()
	g.mu.Unlock()

	high, critical := g.config.HighWaterMark, g.config.CriticalWaterMark

	n := baseline
	switch {
	case usage >= critical:
		n = 1
	case usage >= high && critical > high:
		headroom := (critical - usage) / (critical - high)
		n = int(math.Ceil(float64(baseline) * headroom))
	}

	if n < 1 {
		n = 1
	}
	if n > baseline {
		n = baseline
	}

	metrics.MemoryRecommendedParallelism.Set(float64(n))
	return n
}

// CheckMemory samples memory and, when usage is critical, triggers a GC and
// waits BackoffDelay. The critical warning is logged at most once per
// LogCooldown. It returns ctx.Err() if the context ends while waiting.
func (g *Governor) CheckMemory(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	usage := g.refreshLocked()
	current := g.current
	if usage >= g.config.HighWaterMark {
		g.warnings++
	}
	critical := usage >= g.config.CriticalWaterMark
	if critical {
		g.backoffs++
		// force a fresh sample after the pause
		g.sampledAt = time.Time{}
	}
	g.mu.Unlock()

	if !critical {
		return nil
	}

	metrics.MemoryBackoffsTotal.Inc()
	if g.throttle.Allow() {
		logging.Warn("Memory critical (%.1f%% of limit, %s of %s), backing off for %v",
			usage*100, humanize.IBytes(current), humanize.IBytes(uint64(g.limit)), g.config.BackoffDelay)
	}

	g.collect()
	return g.sleep(ctx, g.config.BackoffDelay)
}

// Stats returns current memory statistics
func (g *Governor) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	return Stats{
		Current:  g.current,
		Peak:     g.peak,
		Limit:    g.limit,
		Usage:    float64(g.current) / float64(g.limit),
		Warnings: g.warnings,
		Backoffs: g.backoffs,
	}
}

// ResetStats clears peak and counters, typically at the start of a run.
func (g *Governor) ResetStats() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.peak = g.current
	g.warnings = 0
	g.backoffs = 0
}

// LogSummary logs peak usage and warning counts for the finished run.
func (g *Governor) LogSummary(label string) {
	s := g.Stats()
	if s.Warnings == 0 {
		logging.Debug("%s memory: peak %s of %s", label, humanize.IBytes(s.Peak), humanize.IBytes(uint64(s.Limit)))
		return
	}
	logging.Info("%s memory: peak %s (%.1f%% of %s), %d high-memory checks, %d backoffs",
		label, humanize.IBytes(s.Peak), float64(s.Peak)/float64(s.Limit)*100,
		humanize.IBytes(uint64(s.Limit)), s.Warnings, s.Backoffs)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
