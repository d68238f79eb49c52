// Package workers hosts the MISC action pool, the control-plane
// subscriber, and the loader.
package workers

import (
	"context"
	"log/slog"

	"golang.org/x/sync/semaphore"
)

// Pool is a bounded goroutine pool backing the external "MISC" action
// executor the dispatcher submits to. A weighted semaphore caps in-flight tasks; Submit never
// blocks the caller past acquiring a slot, and tasks run detached.
type Pool struct {
	sem    *semaphore.Weighted
	logger *slog.Logger
}

// NewPool builds a Pool that runs at most size tasks concurrently.
func NewPool(size int64, logger *slog.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(size), logger: resolveLogger(logger)}
}

// Submit runs task on a pooled goroutine once a slot is available. It
// blocks only long enough to acquire the slot, not for task's duration.
func (p *Pool) Submit(task func()) error {
	if err := p.sem.Acquire(context.Background(), 1); err != nil {
		p.logger.Error("misc pool acquire failed",
			"event", "misc_pool_acquire_failed",
			"module", "rule-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	go func() {
		defer p.sem.Release(1)
		task()
	}()
	return nil
}

// Close waits for all in-flight tasks to finish by acquiring the full
// weight back, bounding shutdown the same way Engine.Shutdown bounds the
// subscriber's drain.
func (p *Pool) Close(ctx context.Context, size int64) error {
	return p.sem.Acquire(ctx, size)
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
