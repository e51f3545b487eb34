package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type reminderSweeper interface {
	SendReminderSweep(ctx context.Context) SweepReport
}

// ReminderScheduler runs the reminder sweep on a fixed interval.
type ReminderScheduler struct {
	sweeper  reminderSweeper
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewReminderScheduler constructs a scheduler. Non-positive durations fall
// back to 15 minutes between sweeps and 5 minutes per sweep.
func NewReminderScheduler(sweeper reminderSweeper, interval, timeout time.Duration, logger *zap.Logger) *ReminderScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &ReminderScheduler{sweeper: sweeper, interval: interval, timeout: timeout, logger: logger}
}

// Start launches the ticker loop. Calling Start twice is a no-op.
func (s *ReminderScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.loop(ctx, s.done)
	s.logger.Info("reminder scheduler started", zap.Duration("interval", s.interval))
}

// Stop cancels the loop and waits for an in-flight sweep to return.
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.running = false
	s.mu.Unlock()

	cancel()
	<-done
	s.logger.Info("reminder scheduler stopped")
}

func (s *ReminderScheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep bounded by the configured timeout.
func (s *ReminderScheduler) RunOnce(ctx context.Context) SweepReport {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	report := s.sweeper.SendReminderSweep(ctx)
	s.logger.Info("scheduled reminder sweep finished",
		zap.Int("sent", report.TotalSent()),
		zap.String("reason", string(report.Result.Reason)),
		zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report
}
