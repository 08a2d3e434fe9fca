package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorCollect(t *testing.T) {
	provider := StatsFunc(func() Stats {
		return Stats{
			TotalPhotos:    42,
			KnownFolders:   3,
			CacheSizeBytes: 2048,
			CacheFiles:     7,
		}
	})

	c := NewCollector(provider, time.Hour)
	c.collect()

	if got := testutil.ToFloat64(PhotosTotal); got != 42 {
		t.Errorf("Expected PhotosTotal=42, got %v", got)
	}
	if got := testutil.ToFloat64(KnownFoldersTotal); got != 3 {
		t.Errorf("Expected KnownFoldersTotal=3, got %v", got)
	}
	if got := testutil.ToFloat64(ThumbnailCacheSize); got != 2048 {
		t.Errorf("Expected ThumbnailCacheSize=2048, got %v", got)
	}
	if got := testutil.ToFloat64(ThumbnailCacheCount); got != 7 {
		t.Errorf("Expected ThumbnailCacheCount=7, got %v", got)
	}
}

func TestCollectorNilProvider(_ *testing.T) {
	c := NewCollector(nil, time.Hour)
	c.collect()
}

func TestCollectorStartStop(_ *testing.T) {
	c := NewCollector(StatsFunc(func() Stats { return Stats{} }), 10*time.Millisecond)
	c.Start()
	time.Sleep(30 * time.Millisecond)
	c.Stop()
}

func TestInitializeMetrics(t *testing.T) {
	InitializeMetrics()

	if got := testutil.CollectAndCount(ScanSkipsTotal); got != 6 {
		t.Errorf("Expected 6 skip categories, got %d", got)
	}
	if got := testutil.CollectAndCount(ThumbnailCacheLookups); got != 4 {
		t.Errorf("Expected 4 lookup results, got %d", got)
	}
}
