package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"camrent-web/internal/jobs"
	"camrent-web/internal/logger"
)

// Scheduler runs the workflow sweeps on their cron specs. A run that is
// still going when its next tick arrives makes that tick a no-op.
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

type entry struct {
	name string
	spec string
	run  func()
}

func NewScheduler(jobRunner *jobs.JobRunner) *Scheduler {
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		jobs: jobRunner,
	}
	s.register()
	return s
}

// register adds every job whose spec parses; a bad spec is logged and
// leaves the other jobs running.
func (s *Scheduler) register() {
	cfg := s.jobs.Config().Scheduler
	entries := []entry{
		{"FlagOverdueBookings", cfg.FlagOverdueBookings, s.jobs.FlagOverdueBookings},
		{"DigestStaleDisputes", cfg.DigestStaleDisputes, s.jobs.DigestStaleDisputes},
		{"PruneSessions", cfg.PruneSessions, s.jobs.PruneSessions},
	}
	for _, e := range entries {
		if _, err := s.cron.AddFunc(e.spec, e.run); err != nil {
			logger.Error("Failed to register cron job", "job", e.name, "spec", e.spec, "error", err)
			continue
		}
		logger.Debug("Cron job registered", "job", e.name, "spec", e.spec)
	}
	logger.Info("Cron jobs registered", "count", s.Entries())
}

func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
}

// Stop waits for running jobs to return.
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Cron scheduler stopped")
}

// Entries is the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
