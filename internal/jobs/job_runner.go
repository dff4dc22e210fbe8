package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"camrent-web/internal/config"
	"camrent-web/internal/logger"
	"camrent-web/internal/metrics"
	"camrent-web/internal/repository"
	"camrent-web/internal/service"
	"camrent-web/internal/session"
)

const jobTimeout = 2 * time.Minute

// JobRunner coordinates all scheduled jobs. Backend calls run under a
// service-account session that is logged in on first use and again whenever
// the backend drops it.
type JobRunner struct {
	services *Services
	sessions repository.SessionRepository
	config   *config.Config
	now      func() time.Time

	mu      sync.Mutex
	account *session.Context
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Auth     service.AuthService
	Bookings service.BookingService
	Disputes service.DisputeService
	Notifier service.Notifier
}

// NewJobRunner creates a new job runner. sessions may be nil when the BFF
// does not keep sessions in postgres; PruneSessions is then a no-op.
func NewJobRunner(services *Services, sessions repository.SessionRepository, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		sessions: sessions,
		config:   cfg,
		now:      time.Now,
		account:  session.New(session.NewMemoryStore(), "jobs"),
	}
}

func (jr *JobRunner) Config() *config.Config { return jr.config }

// serviceContext returns ctx carrying a signed-in service-account session.
func (jr *JobRunner) serviceContext(ctx context.Context) (context.Context, error) {
	jr.mu.Lock()
	defer jr.mu.Unlock()

	cur, err := jr.account.Current(ctx)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		if jr.config.Jobs.Email == "" {
			return nil, errors.New("jobs service account is not configured")
		}
		if _, err := jr.services.Auth.Login(ctx, jr.account, jr.config.Jobs.Email, jr.config.Jobs.Password); err != nil {
			return nil, fmt.Errorf("service account login: %w", err)
		}
		logger.Info("Jobs service account signed in", "email", jr.config.Jobs.Email)
	}
	return session.NewContext(ctx, jr.account), nil
}

// runWithRecovery wraps job execution with panic recovery and counts the
// outcome.
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) {
	result := "ok"
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			result = "panic"
		}
		metrics.JobRuns.WithLabelValues(jobName, result).Inc()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	ctx = logger.WithCorrelationID(ctx, "job-"+jobName)

	logger.Info("Starting job", "job", jobName)
	start := time.Now()
	if err := jobFunc(ctx); err != nil {
		result = "error"
		logger.Error("Job failed", "job", jobName, "error", err, "duration", time.Since(start))
		return
	}
	logger.Info("Job completed", "job", jobName, "duration", time.Since(start))
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.FlagOverdueBookings()
	jr.DigestStaleDisputes()
	jr.PruneSessions()
}
