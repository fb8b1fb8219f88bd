// Package workers contains the background job processors consumed from the
// RabbitMQ queue: per-account breach scans and the periodic rescan sweep.
package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/breachlens/breachlens-api/internal/database"
	"github.com/breachlens/breachlens-api/internal/logger"
	"github.com/breachlens/breachlens-api/internal/models"
	"github.com/breachlens/breachlens-api/internal/queue"
	"github.com/breachlens/breachlens-api/internal/services/breach"
)

const sweepPageSize = 500

// AccountScanner queries the breach directory for one address
type AccountScanner interface {
	ScanAccount(ctx context.Context, email string) ([]string, error)
}

// UserLister pages through accounts for sweep scheduling
type UserLister interface {
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
}

// BreachScanner processes breach scan jobs
type BreachScanner struct {
	scanner  AccountScanner
	reports  database.BreachReportRepositoryInterface
	users    UserLister
	jobQueue queue.JobQueue // For re-enqueueing jobs with delays
	logger   *zap.Logger
}

// NewBreachScanner creates a new breach scanner
func NewBreachScanner(
	scanner AccountScanner,
	reports database.BreachReportRepositoryInterface,
	users UserLister,
	jobQueue queue.JobQueue,
	zapLogger *zap.Logger,
) *BreachScanner {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &BreachScanner{
		scanner:  scanner,
		reports:  reports,
		users:    users,
		jobQueue: jobQueue,
		logger:   zapLogger,
	}
}

// ProcessAccountScanJob scans one account and stores the resulting report
func (s *BreachScanner) ProcessAccountScanJob(ctx context.Context, job *queue.Job) error {
	if job.Email == "" {
		return fmt.Errorf("email is required for account scan job")
	}

	names, err := s.scanner.ScanAccount(ctx, job.Email)
	if err != nil {
		if errors.Is(err, breach.ErrScanUnavailable) {
			// No directory access configured. Retrying will not help.
			s.logger.Warn("account_scan_skipped",
				zap.String("job_id", job.ID.String()),
				zap.String("reason", "scan unavailable"),
			)
			return nil
		}
		return fmt.Errorf("failed to scan account: %w", err)
	}

	report := &models.BreachReport{
		ID:          uuid.New(),
		UserID:      job.UserID,
		BreachCount: len(names),
		Breaches:    names,
		ScannedAt:   time.Now(),
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return fmt.Errorf("failed to store breach report: %w", err)
	}

	s.logger.Info("account_scan_complete",
		zap.String("user_id", job.UserID.String()),
		zap.String("email", logger.RedactEmail(job.Email)),
		zap.Int("breach_count", len(names)),
	)
	return nil
}

// ProcessRescanSweepJob enqueues a fresh account scan for every user
func (s *BreachScanner) ProcessRescanSweepJob(ctx context.Context, job *queue.Job) error {
	notAfter := time.Now().Add(24 * time.Hour)
	enqueued := 0

	for offset := 0; ; offset += sweepPageSize {
		users, err := s.users.List(ctx, sweepPageSize, offset)
		if err != nil {
			return fmt.Errorf("failed to list users for sweep: %w", err)
		}
		if len(users) == 0 {
			break
		}

		for _, u := range users {
			scan := queue.NewJob(queue.JobTypeAccountScan, u.ID, u.Email)
			scan.NotAfter = &notAfter
			if err := s.jobQueue.Enqueue(ctx, scan); err != nil {
				s.logger.Warn("failed_to_enqueue_sweep_scan",
					zap.String("user_id", u.ID.String()),
					zap.Error(err),
				)
				continue
			}
			enqueued++
		}

		if len(users) < sweepPageSize {
			break
		}
	}

	s.logger.Info("rescan_sweep_complete",
		zap.String("job_id", job.ID.String()),
		zap.Int("scans_enqueued", enqueued),
	)
	return nil
}

// ProcessJob processes a job based on its type
func (s *BreachScanner) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	if !job.ShouldProcess() {
		// Not ready yet; put it back.
		if nackErr := msg.Nack(true); nackErr != nil {
			s.logger.Warn("failed_to_requeue_early_job", zap.Error(nackErr))
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeAccountScan:
		if err := s.ProcessAccountScanJob(ctx, job); err != nil {
			return s.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	case queue.JobTypeRescanSweep:
		if err := s.ProcessRescanSweepJob(ctx, job); err != nil {
			// Sweep failures are not retried; the next scheduled sweep covers them.
			if nackErr := msg.Nack(false); nackErr != nil {
				s.logger.Warn("failed_to_nack_sweep_job", zap.Error(nackErr))
			}
			return fmt.Errorf("sweep failed: %w", err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack sweep job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			s.logger.Warn("failed_to_nack_unknown_job", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError retries transient scan failures with exponential backoff
// before dead-lettering the job.
func (s *BreachScanner) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	if !job.CanRetry() || s.jobQueue == nil {
		s.logger.Error("scan_job_dead_lettered",
			zap.String("job_id", job.ID.String()),
			zap.Int("retry_count", job.RetryCount),
			zap.Error(err),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			s.logger.Warn("failed_to_nack_exhausted_job", zap.Error(nackErr))
		}
		return fmt.Errorf("scan failed permanently: %w", err)
	}

	job.IncrementRetry()
	notBefore := time.Now().Add(retryDelay(job.RetryCount))
	job.NotBefore = &notBefore

	if ackErr := msg.Ack(); ackErr != nil {
		s.logger.Warn("failed_to_ack_before_retry", zap.Error(ackErr))
	}
	if enqueueErr := s.jobQueue.Enqueue(ctx, job); enqueueErr != nil {
		return fmt.Errorf("scan failed and re-enqueue failed: %w", enqueueErr)
	}

	s.logger.Warn("scan_job_retry_scheduled",
		zap.String("job_id", job.ID.String()),
		zap.Int("retry_count", job.RetryCount),
		zap.Time("not_before", notBefore),
		zap.Error(err),
	)
	return nil
}

func retryDelay(retryCount int) time.Duration {
	d := time.Minute
	for i := 1; i < retryCount; i++ {
		d *= 2
	}
	if d > 30*time.Minute {
		d = 30 * time.Minute
	}
	return d
}
