package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mlerrors "github.com/meetlens/meetlens/pkg/errors"
)

func TestRun_PreservesOrder(t *testing.T) {
	items := []int{5, 3, 1, 4, 2}

	results, err := Run(context.Background(), items, func(_ context.Context, item, index int) (string, error) {
		// Vary completion order deliberately.
		time.Sleep(time.Duration(item) * time.Millisecond)
		return fmt.Sprintf("%d@%d", item, index), nil
	}, Options{Concurrency: 5})

	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, item := range items {
		assert.Equal(t, fmt.Sprintf("%d@%d", item, i), results[i])
	}
}

func TestRun_BoundsConcurrency(t *testing.T) {
	var active, peak int64

	items := make([]int, 20)
	_, err := Run(context.Background(), items, func(_ context.Context, _ int, _ int) (int, error) {
		now := atomic.AddInt64(&active, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if now <= old || atomic.CompareAndSwapInt64(&peak, old, now) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&active, -1)
		return 0, nil
	}, Options{Concurrency: 3})

	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(3))
}

func TestRun_RetriesTransientOverload(t *testing.T) {
	var calls int32

	results, err := Run(context.Background(), []int{0}, func(_ context.Context, _ int, _ int) (string, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return "", mlerrors.ErrOverloaded
		}
		return "ok", nil
	}, Options{Concurrency: 1, Retries: 2, BackoffUnit: time.Millisecond})

	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, results)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRun_NonTransientFailsImmediately(t *testing.T) {
	var calls int32

	_, err := Run(context.Background(), []int{0}, func(_ context.Context, _ int, _ int) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", errors.New("bad payload")
	}, Options{Concurrency: 1, Retries: 3, BackoffUnit: time.Millisecond})

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "non-transient errors must not retry")

	var segErr *mlerrors.SegmentProcessingError
	require.ErrorAs(t, err, &segErr)
	assert.Equal(t, 0, segErr.SegmentIndex)
	assert.Equal(t, 1, segErr.Attempts)
}

func TestRun_ExhaustedRetriesFailWholeRun(t *testing.T) {
	_, err := Run(context.Background(), []int{10, 20, 30}, func(_ context.Context, item, index int) (int, error) {
		if index == 1 {
			return 0, fmt.Errorf("upstream 503: %w", mlerrors.ErrOverloaded)
		}
		return item, nil
	}, Options{Concurrency: 3, Retries: 1, BackoffUnit: time.Millisecond})

	require.Error(t, err)
	var segErr *mlerrors.SegmentProcessingError
	require.ErrorAs(t, err, &segErr)
	assert.Equal(t, 1, segErr.SegmentIndex)
	assert.Equal(t, 2, segErr.Attempts)
}

func TestRun_OnProgress(t *testing.T) {
	var mu sync.Mutex
	var seen []int

	_, err := Run(context.Background(), make([]int, 4), func(_ context.Context, _ int, _ int) (int, error) {
		return 0, nil
	}, Options{Concurrency: 2, OnProgress: func(completed, total int) {
		mu.Lock()
		seen = append(seen, completed)
		mu.Unlock()
		assert.Equal(t, 4, total)
	}})

	require.NoError(t, err)
	assert.Len(t, seen, 4)
	assert.Contains(t, seen, 4)
}

func TestRun_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, make([]int, 8), func(ctx context.Context, _ int, _ int) (int, error) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Second):
			return 0, nil
		}
	}, Options{Concurrency: 2})

	require.Error(t, err)
}

func TestRun_EmptyInput(t *testing.T) {
	results, err := Run(context.Background(), nil, func(_ context.Context, _ int, _ int) (int, error) {
		t.Fatal("worker must not be called")
		return 0, nil
	}, Options{Concurrency: 3})

	require.NoError(t, err)
	assert.Nil(t, results)
}
