package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"rentchain-backend/internal/jobs"
	"rentchain-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner. A bad
// cron expression is reported instead of silently skipping the job.
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	registrations := []struct {
		name string
		spec string
		fn   func()
	}{
		{"ResolveExpiredDisputes", cfg.ResolveExpiredDisputes, s.jobs.ResolveExpiredDisputes},
		{"ReconcileLedger", cfg.ReconcileLedger, s.jobs.ReconcileLedger},
	}
	for _, r := range registrations {
		if _, err := s.cron.AddFunc(r.spec, r.fn); err != nil {
			logger.Error("Failed to register job", "job", r.name, "schedule", r.spec, "error", err)
			return err
		}
		logger.Info("Registered job", "job", r.name, "schedule", r.spec)
	}

	logger.Info("All cron jobs registered successfully")
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
