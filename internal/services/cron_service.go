package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// AuditCleaner purges old audit entries
type AuditCleaner interface {
	CleanupOldAuditLogs(ctx context.Context, olderThan time.Duration) (int64, error)
}

// RateLimitCleaner purges rate limit rows outside every window
type RateLimitCleaner interface {
	CleanupExpiredRateLimits(ctx context.Context) (int64, error)
}

// RefreshTokenCleaner purges expired and long-revoked refresh tokens
type RefreshTokenCleaner interface {
	CleanupExpired(ctx context.Context, revokedOlderThan time.Duration) (int64, error)
}

// CronJobs are the maintenance tasks the scheduler runs. Nil members are skipped.
type CronJobs struct {
	Audit          AuditCleaner
	AuditRetention time.Duration
	RateLimits     RateLimitCleaner
	RefreshTokens  RefreshTokenCleaner
}

const cronJobTimeout = 5 * time.Minute

// CronService manages scheduled background jobs
type CronService struct {
	cron   *cron.Cron
	jobs   CronJobs
	logger *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(jobs CronJobs, logger *logrus.Logger) *CronService {
	return &CronService{
		cron:   cron.New(cron.WithSeconds()),
		jobs:   jobs,
		logger: logger,
	}
}

// Start starts all cron jobs
func (s *CronService) Start() error {
	s.logger.Info("Starting cron service")

	// second minute hour day month weekday
	schedule := []struct {
		spec string
		name string
		run  func()
		on   bool
	}{
		{"0 0 2 * * *", "audit_retention", s.auditRetentionJob, s.jobs.Audit != nil && s.jobs.AuditRetention > 0},
		{"0 15 * * * *", "rate_limit_cleanup", s.rateLimitCleanupJob, s.jobs.RateLimits != nil},
		{"0 30 3 * * *", "refresh_token_cleanup", s.refreshTokenCleanupJob, s.jobs.RefreshTokens != nil},
	}

	for _, job := range schedule {
		if !job.on {
			continue
		}
		if _, err := s.cron.AddFunc(job.spec, job.run); err != nil {
			return fmt.Errorf("failed to schedule %s job: %w", job.name, err)
		}
		s.logger.WithFields(logrus.Fields{"job": job.name, "spec": job.spec}).Info("Scheduled cron job")
	}

	s.cron.Start()
	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service")
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *CronService) run(name string, job func(ctx context.Context) (int64, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), cronJobTimeout)
	defer cancel()

	start := time.Now()
	removed, err := job(ctx)
	entry := s.logger.WithFields(logrus.Fields{"job": name, "duration": time.Since(start).String()})
	if err != nil {
		entry.WithError(err).Error("Cron job failed")
		return
	}
	entry.WithField("removed", removed).Info("Cron job finished")
}

func (s *CronService) auditRetentionJob() {
	s.run("audit_retention", func(ctx context.Context) (int64, error) {
		return s.jobs.Audit.CleanupOldAuditLogs(ctx, s.jobs.AuditRetention)
	})
}

func (s *CronService) rateLimitCleanupJob() {
	s.run("rate_limit_cleanup", s.jobs.RateLimits.CleanupExpiredRateLimits)
}

func (s *CronService) refreshTokenCleanupJob() {
	s.run("refresh_token_cleanup", func(ctx context.Context) (int64, error) {
		return s.jobs.RefreshTokens.CleanupExpired(ctx, 7*24*time.Hour)
	})
}

// RunNow runs every configured job once, synchronously
func (s *CronService) RunNow() {
	if s.jobs.Audit != nil && s.jobs.AuditRetention > 0 {
		s.auditRetentionJob()
	}
	if s.jobs.RateLimits != nil {
		s.rateLimitCleanupJob()
	}
	if s.jobs.RefreshTokens != nil {
		s.refreshTokenCleanupJob()
	}
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
