package pipeline

import (
	"context"
	"sync"
	"time"

	"articleforge/internal/domain"
)

// StatusReader reads a job's status without loading the whole job.
type StatusReader interface {
	JobStatus(ctx context.Context, jobID string) (domain.JobStatus, error)
}

// AbortWhenStatus returns an abort predicate that reports true once the
// stored status of jobID is aborted. Store reads are throttled to one per
// interval; read errors do not abort.
func AbortWhenStatus(reader StatusReader, jobID string, interval time.Duration) AbortFunc {
	var (
		mu      sync.Mutex
		last    time.Time
		aborted bool
	)
	return func(ctx context.Context) bool {
		mu.Lock()
		defer mu.Unlock()
		if aborted {
			return true
		}
		if !last.IsZero() && time.Since(last) < interval {
			return false
		}
		last = time.Now()
		status, err := reader.JobStatus(ctx, jobID)
		if err != nil {
			return false
		}
		aborted = status == domain.JobStatusAborted
		return aborted
	}
}
