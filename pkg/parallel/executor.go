// Package parallel provides a bounded-concurrency executor with per-item
// retry. It is the fan-out primitive for segment transcription and chunk
// analysis.
package parallel

import (
	"context"
	"sync"
	"time"

	mlerrors "github.com/meetlens/meetlens/pkg/errors"
)

// DefaultBackoffUnit is the base of the linear retry backoff: attempt n
// waits (n+1) × unit before retrying.
const DefaultBackoffUnit = 3 * time.Second

// Options configures a Run call.
type Options struct {
	// Concurrency is the worker-pool width. Values below 1 run a single
	// worker.
	Concurrency int

	// Retries is the per-item retry budget. Only recognized
	// transient-overload failures are retried; anything else propagates
	// immediately.
	Retries int

	// BackoffUnit overrides the linear backoff base. Zero means
	// DefaultBackoffUnit.
	BackoffUnit time.Duration

	// OnProgress, when set, is called after each completed item with
	// (completed, total).
	OnProgress func(completed, total int)
}

// Run processes items with a fixed-size worker pool and returns results in
// original submission order regardless of completion order. The contract
// is all-or-nothing: if any item fails (after its retry budget for
// transient failures), Run returns that item's error and no results.
// Callers that prefer partial coverage wrap their worker instead.
func Run[T, R any](ctx context.Context, items []T, worker func(ctx context.Context, item T, index int) (R, error), opts Options) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(items) {
		concurrency = len(items)
	}
	unit := opts.BackoffUnit
	if unit == 0 {
		unit = DefaultBackoffUnit
	}

	results := make([]R, len(items))
	queue := make(chan int, len(items))
	for i := range items {
		queue <- i
	}
	close(queue)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		firstErr  error
		completed int
	)

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range queue {
				if runCtx.Err() != nil {
					return
				}

				result, err := runWithRetry(runCtx, items[index], index, worker, opts.Retries, unit)
				if err != nil {
					fail(err)
					return
				}

				results[index] = result
				mu.Lock()
				completed++
				done := completed
				mu.Unlock()
				if opts.OnProgress != nil {
					opts.OnProgress(done, len(items))
				}
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// runWithRetry retries transient-overload failures with linear backoff:
// attempt n sleeps (n+1) × unit. Other failures return immediately.
func runWithRetry[T, R any](ctx context.Context, item T, index int, worker func(ctx context.Context, item T, index int) (R, error), retries int, unit time.Duration) (R, error) {
	var zero R
	var lastErr error

	for attempt := 0; attempt <= retries; attempt++ {
		result, err := worker(ctx, item, index)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !mlerrors.IsTransientOverload(err) || attempt == retries {
			break
		}

		wait := time.Duration(attempt+1) * unit
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}
	}

	return zero, &mlerrors.SegmentProcessingError{
		SegmentIndex: index,
		Attempts:     attemptsFor(lastErr, retries),
		Cause:        lastErr,
	}
}

// attemptsFor reports how many attempts the item consumed: transient
// failures burn the whole budget, others fail on the first try.
func attemptsFor(err error, retries int) int {
	if mlerrors.IsTransientOverload(err) {
		return retries + 1
	}
	return 1
}
