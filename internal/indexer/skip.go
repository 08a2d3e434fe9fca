package indexer

import (
	"fmt"
	"strings"
	"sync"

	"vrchat-albums/internal/logging"
	"vrchat-albums/internal/metrics"
	"vrchat-albums/internal/photo"
)

// skipCategories is the reporting order for skip statistics.
var skipCategories = []string{
	string(FolderNotFound),
	string(FolderPermissionDenied),
	string(photo.SkipFileNotFound),
	string(photo.SkipPermissionDenied),
	string(photo.SkipCorrupt),
	string(photo.SkipUnrecognizedName),
}

// SkipStats counts folders and files left out of a run for expected reasons.
type SkipStats struct {
	mu     sync.Mutex
	counts map[string]int
}

func newSkipStats() *SkipStats {
	return &SkipStats{counts: make(map[string]int)}
}

func (s *SkipStats) add(category string) {
	s.mu.Lock()
	s.counts[category]++
	s.mu.Unlock()
	metrics.ScanSkipsTotal.WithLabelValues(category).Inc()
}

func (s *SkipStats) addFolder(err *FolderError) { s.add(string(err.Reason)) }

func (s *SkipStats) addFile(err *photo.SkipError) { s.add(string(err.Reason)) }

// Count returns the number of skips in a category.
func (s *SkipStats) Count(category string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[category]
}

// Total returns the number of skips across all categories.
func (s *SkipStats) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.counts {
		total += n
	}
	return total
}

// Counts returns a copy of the per-category counts.
func (s *SkipStats) Counts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// String lists non-zero categories, e.g. "file_corrupt=1, folder_not_found=2".
func (s *SkipStats) String() string {
	counts := s.Counts()
	parts := make([]string, 0, len(counts))
	for _, category := range skipCategories {
		if n := counts[category]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", category, n))
		}
	}
	return strings.Join(parts, ", ")
}

func (s *SkipStats) logSummary() {
	if total := s.Total(); total > 0 {
		logging.Warn("Scan skipped %d items: %s", total, s.String())
	}
}
