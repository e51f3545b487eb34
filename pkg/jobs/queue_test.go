package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobsAndDrainsOnStop(t *testing.T) {
	var mu sync.Mutex
	seen := make([]string, 0)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		seen = append(seen, job.ID)
		mu.Unlock()
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 8})

	require.Error(t, q.Enqueue(Job{ID: "early"}))

	q.Start(context.Background())
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(Job{ID: id}))
	}
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b", "c"}, seen)
	assert.Error(t, q.Enqueue(Job{ID: "late"}))
}

func TestQueueDoesNotRetryWhenMaxRetriesZero(t *testing.T) {
	var calls int32
	done := make(chan struct{}, 4)
	q := NewQueue("once", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&calls, 1)
		done <- struct{}{}
		return errors.New("boom")
	}, QueueConfig{Workers: 1, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "x"}))

	<-done
	time.Sleep(20 * time.Millisecond)
	q.Stop()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestQueueEnqueueReportsFullBuffer(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("full", func(ctx context.Context, job Job) error {
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{ID: "1"}))
	var err error
	for i := 0; i < 3 && err == nil; i++ {
		err = q.Enqueue(Job{ID: "n"})
	}
	assert.ErrorIs(t, err, ErrQueueFull)
	close(block)
	q.Stop()
}
