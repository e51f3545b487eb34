package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/transcript-clearance-api/pkg/jobs"
	"github.com/noah-isme/transcript-clearance-api/pkg/middleware/requestid"
)

// NotificationTask is one deferred notification call.
type NotificationTask func(ctx context.Context) NotificationResult

const notificationJobType = "workflow_notification"

// NotificationDispatcher runs notification tasks on the background worker
// queue so request handlers never wait on the mail channel.
type NotificationDispatcher struct {
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
	timeout time.Duration
}

type notificationJob struct {
	Name      string
	RequestID string
	TraceID   string
	Task      NotificationTask
}

// NewNotificationDispatcher builds the dispatcher and its queue. Jobs are
// never retried: a failed notification is logged and dropped.
func NewNotificationDispatcher(workers, bufferSize int, metrics *MetricsService, logger *zap.Logger) *NotificationDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &NotificationDispatcher{metrics: metrics, logger: logger, timeout: time.Minute}
	d.queue = jobs.NewQueue("notifications", d.handle, jobs.QueueConfig{
		Workers:    workers,
		BufferSize: bufferSize,
		MaxRetries: 0,
		Logger:     logger,
	})
	return d
}

// Start launches the workers.
func (d *NotificationDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop drains buffered notifications and stops the workers.
func (d *NotificationDispatcher) Stop() {
	d.queue.Stop()
}

// Dispatch enqueues the task. When the queue cannot accept it the task runs
// inline so the notification is not lost.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, name, requestID string, task NotificationTask) {
	job := notificationJob{Name: name, RequestID: requestID, TraceID: requestid.FromContext(ctx), Task: task}
	err := d.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: notificationJobType, Payload: job})
	if err == nil {
		d.metrics.SetQueueDepth(d.queue.Len())
		return
	}
	d.logger.Warn("notification queue unavailable, sending inline",
		zap.String("notification", name),
		zap.String("request_id", requestID),
		zap.Error(err),
	)
	d.run(context.WithoutCancel(ctx), job)
}

func (d *NotificationDispatcher) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(notificationJob)
	if !ok {
		d.logger.Error("unexpected notification job payload", zap.String("job_id", job.ID))
		return nil
	}
	d.run(ctx, payload)
	d.metrics.SetQueueDepth(d.queue.Len())
	return nil
}

func (d *NotificationDispatcher) run(ctx context.Context, job notificationJob) {
	if job.Task == nil {
		return
	}
	ctx, cancel := context.WithTimeout(requestid.WithValue(ctx, job.TraceID), d.timeout)
	defer cancel()
	result := job.Task(ctx)
	d.logger.Debug("notification job finished",
		zap.String("notification", job.Name),
		zap.String("request_id", job.RequestID),
		zap.String("trace_id", job.TraceID),
		zap.String("reason", string(result.Reason)),
	)
}
