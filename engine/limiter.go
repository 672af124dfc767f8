package engine

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// PageLimiter bounds how many page renders run at once. One limiter is either
// created per document or shared across a run, see BatchScheduler.PageLimitScope.
type PageLimiter struct {
	sem  *semaphore.Weighted
	size int
}

// NewPageLimiter creates a limiter with size permits; size <= 0 uses DefaultPageLimit
func NewPageLimiter(size int) *PageLimiter {
	if size <= 0 {
		size = DefaultPageLimit()
	}
	return &PageLimiter{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Acquire blocks for a permit. It fails without taking one once ctx is done.
func (l *PageLimiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.sem.Acquire(ctx, 1)
}

// Release returns a permit taken by Acquire
func (l *PageLimiter) Release() {
	l.sem.Release(1)
}

// Size is the number of permits
func (l *PageLimiter) Size() int {
	return l.size
}
