package workers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/google/uuid"

	"github.com/breachlens/breachlens-api/internal/queue"
)

// DefaultSweepHour is the local hour at which the daily rescan sweep runs
const DefaultSweepHour = 3

// Sweeper schedules the daily rescan sweep job
type Sweeper struct {
	jobQueue  queue.JobQueue
	sweepHour int
	logger    *zap.Logger
}

// NewSweeper creates a new sweeper
func NewSweeper(jobQueue queue.JobQueue, sweepHour int, zapLogger *zap.Logger) *Sweeper {
	if sweepHour < 0 || sweepHour > 23 {
		sweepHour = DefaultSweepHour
	}
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &Sweeper{
		jobQueue:  jobQueue,
		sweepHour: sweepHour,
		logger:    zapLogger,
	}
}

// ScheduleSweep enqueues the next daily sweep job. The job carries a
// NotBefore at the configured hour and expires a day later so stale sweeps
// are garbage collected rather than piling up.
func (s *Sweeper) ScheduleSweep(ctx context.Context) error {
	notBefore := s.nextSweepTime(time.Now())
	notAfter := notBefore.Add(24 * time.Hour)

	job := queue.NewJob(queue.JobTypeRescanSweep, uuid.Nil, "")
	job.NotBefore = &notBefore
	job.NotAfter = &notAfter

	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue sweep job: %w", err)
	}

	s.logger.Info("scheduled_rescan_sweep",
		zap.Time("not_before", notBefore),
	)
	return nil
}

func (s *Sweeper) nextSweepTime(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.sweepHour, 0, 0, 0, now.Location())
	if !now.Before(next) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
