package hasher

import (
	"context"
	"sync"
)

// Runner is a bounded worker pool for per-file hash work.
// Work items are indexes into a caller-owned slice; each worker writes
// its result into the caller's per-index slot, so no result channel or
// collector lock is needed.
type Runner struct {
	workers int
}

// NewRunner creates a Runner with the given concurrency.
// Worker counts below one are raised to one.
func NewRunner(workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{workers: workers}
}

// Workers returns the pool size.
func (r *Runner) Workers() int {
	return r.workers
}

// Process invokes task(i) for i in [0, total) across the worker pool.
// Dispatch stops at the first context cancellation; tasks already
// dispatched run to completion before Process returns. Returns the
// context error when dispatch was cut short, nil otherwise.
func (r *Runner) Process(ctx context.Context, total int, task func(i int)) error {
	if total == 0 {
		return nil
	}

	jobs := make(chan int, r.workers*2)

	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				task(i)
			}
		}()
	}

	var err error
feed:
	for i := 0; i < total; i++ {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return err
}
