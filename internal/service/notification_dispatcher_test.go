package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/transcript-clearance-api/pkg/middleware/requestid"
)

func TestNotificationDispatcherRunsQueuedTasks(t *testing.T) {
	dispatcher := NewNotificationDispatcher(2, 8, nil, nil)
	dispatcher.Start(context.Background())

	var runs atomic.Int32
	var traced atomic.Bool
	ctx := requestid.WithValue(context.Background(), "trace-1")
	for i := 0; i < 5; i++ {
		dispatcher.Dispatch(ctx, "library_queue", "req-1", func(ctx context.Context) NotificationResult {
			runs.Add(1)
			if requestid.FromContext(ctx) == "trace-1" {
				traced.Store(true)
			}
			return sent("ok")
		})
	}
	dispatcher.Stop()

	assert.Equal(t, int32(5), runs.Load())
	assert.True(t, traced.Load())
}

func TestNotificationDispatcherRunsInlineWhenNotStarted(t *testing.T) {
	dispatcher := NewNotificationDispatcher(1, 1, nil, nil)

	var ran atomic.Bool
	dispatcher.Dispatch(context.Background(), "processor_request_status", "req-2", func(ctx context.Context) NotificationResult {
		ran.Store(true)
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return sent("ok")
	})

	assert.True(t, ran.Load())
}

func TestNotificationDispatcherInlineIgnoresCallerCancellation(t *testing.T) {
	dispatcher := NewNotificationDispatcher(1, 1, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ctxErr atomic.Value
	dispatcher.Dispatch(ctx, "academic_queue", "req-3", func(ctx context.Context) NotificationResult {
		if err := ctx.Err(); err != nil {
			ctxErr.Store(err)
		}
		return sent("ok")
	})

	assert.Nil(t, ctxErr.Load())
}

func TestNotificationDispatcherSurvivesSlowTasks(t *testing.T) {
	dispatcher := NewNotificationDispatcher(1, 1, nil, nil)
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	release := make(chan struct{})
	var done atomic.Int32
	block := func(ctx context.Context) NotificationResult {
		<-release
		done.Add(1)
		return sent("ok")
	}

	dispatcher.Dispatch(context.Background(), "slow", "req-4", block)
	time.Sleep(20 * time.Millisecond)
	dispatcher.Dispatch(context.Background(), "buffered", "req-4", func(ctx context.Context) NotificationResult {
		done.Add(1)
		return sent("ok")
	})
	dispatcher.Dispatch(context.Background(), "overflow", "req-4", func(ctx context.Context) NotificationResult {
		done.Add(1)
		return sent("ok")
	})

	assert.Equal(t, int32(1), done.Load())
	close(release)
	assert.Eventually(t, func() bool { return done.Load() == 3 }, time.Second, 10*time.Millisecond)
}
