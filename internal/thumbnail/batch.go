package thumbnail

import (
	"cmp"
	"context"
	"errors"
	"io/fs"
	"slices"
	"strings"
	"sync"

	"vrchat-albums/internal/logging"
	"vrchat-albums/internal/metrics"

	"golang.org/x/sync/errgroup"
)

// Request identifies one preview.
type Request struct {
	Path  string
	Width int
}

// FailureReason classifies a failed request.
type FailureReason string

const (
	// FailureNotFound means the source photo does not exist.
	FailureNotFound FailureReason = "not_found"
	// FailureUnexpected is any other error.
	FailureUnexpected FailureReason = "unexpected"
)

// Failure is one request that produced no preview.
type Failure struct {
	Request Request
	Reason  FailureReason
	Message string
}

// BatchResult holds the outcome of GetMany.
type BatchResult struct {
	Success map[Request][]byte
	Failed  []Failure
}

// Governor sizes chunks and throttles under memory pressure.
type Governor interface {
	RecommendedParallelism(baseline int) int
	CheckMemory(ctx context.Context) error
}

// BatchService fetches or generates many previews.
type BatchService struct {
	store    *Store
	governor Governor
	baseline int
}

// NewBatchService creates a BatchService. baseline is the chunk size before
// memory pressure is applied.
func NewBatchService(store *Store, governor Governor, baseline int) *BatchService {
	if baseline < 1 {
		baseline = 1
	}
	return &BatchService{store: store, governor: governor, baseline: baseline}
}

// GetMany serves requests in governor-sized chunks whose items run
// concurrently. Per-item failures are collected in the result. The error is
// non-nil only when ctx is done; the partial result is still returned.
func (b *BatchService) GetMany(ctx context.Context, requests []Request) (BatchResult, error) {
	result := BatchResult{Success: make(map[Request][]byte, len(requests))}
	var mu sync.Mutex

	remaining := requests
	for len(remaining) > 0 {
		if err := b.governor.CheckMemory(ctx); err != nil {
			return result, err
		}

		size := max(b.governor.RecommendedParallelism(b.baseline), 1)
		chunk := remaining[:min(size, len(remaining))]
		remaining = remaining[len(chunk):]

		var g errgroup.Group
		for _, req := range chunk {
			g.Go(func() error {
				data, err := b.store.GetOrGenerate(ctx, req.Path, req.Width)

				mu.Lock()
				defer mu.Unlock()
				if err != nil && ctx.Err() != nil {
					return nil
				}
				if err != nil {
					result.Failed = append(result.Failed, b.failure(req, err))
					return nil
				}
				result.Success[req] = data
				return nil
			})
		}
		_ = g.Wait()

		if err := ctx.Err(); err != nil {
			return result, err
		}
	}

	slices.SortStableFunc(result.Failed, func(a, b Failure) int {
		return compareRequests(a.Request, b.Request)
	})
	if len(result.Failed) > 0 {
		logging.Debug("Batch thumbnails: %d served, %d failed", len(result.Success), len(result.Failed))
	}
	return result, nil
}

func (b *BatchService) failure(req Request, err error) Failure {
	reason := FailureUnexpected
	if errors.Is(err, fs.ErrNotExist) {
		reason = FailureNotFound
		logging.Debug("Thumbnail source missing: %s", req.Path)
	} else {
		logging.Error("Thumbnail generation failed for %s (width %d): %v", req.Path, req.Width, err)
	}
	metrics.ThumbnailBatchFailures.WithLabelValues(string(reason)).Inc()
	return Failure{Request: req, Reason: reason, Message: err.Error()}
}

func compareRequests(a, b Request) int {
	return cmp.Or(strings.Compare(a.Path, b.Path), cmp.Compare(a.Width, b.Width))
}
