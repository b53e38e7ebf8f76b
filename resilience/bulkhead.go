package resilience

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Bulkhead limits concurrent calls for one policy. Safe for concurrent use.
// Every successful Acquire must be paired with exactly one Release.
type Bulkhead struct {
	sem     *semaphore.Weighted
	max     int64
	maxWait time.Duration

	active   atomic.Int64
	rejected atomic.Int64
}

// NewBulkhead creates a bulkhead admitting up to maxConcurrent calls.
// When the bulkhead is full, Acquire waits up to maxWait for a slot;
// maxWait <= 0 rejects immediately.
func NewBulkhead(maxConcurrent int, maxWait time.Duration) *Bulkhead {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentCalls
	}
	return &Bulkhead{
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		max:     int64(maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire admits a call, or returns ErrBulkheadFull if no slot frees up
// within the configured wait. Returns the context's error if the caller has
// already given up, or gives up while waiting; such calls are never admitted.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if b.sem.TryAcquire(1) {
		b.active.Add(1)
		return nil
	}

	if b.maxWait <= 0 {
		b.rejected.Add(1)
		return ErrBulkheadFull
	}

	waitCtx, cancel := context.WithTimeout(ctx, b.maxWait)
	defer cancel()

	if err := b.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.rejected.Add(1)
		return ErrBulkheadFull
	}
	b.active.Add(1)
	return nil
}

// Release frees a slot acquired with Acquire.
func (b *Bulkhead) Release() {
	b.active.Add(-1)
	b.sem.Release(1)
}

// Active returns the number of admitted calls currently in flight.
func (b *Bulkhead) Active() int64 {
	return b.active.Load()
}

// Rejected returns the total number of admissions denied for capacity.
func (b *Bulkhead) Rejected() int64 {
	return b.rejected.Load()
}

// Max returns the concurrency limit.
func (b *Bulkhead) Max() int64 {
	return b.max
}
