package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"camrent-web/internal/backend"
	"camrent-web/internal/config"
	"camrent-web/internal/jobs"
	"camrent-web/internal/logger"
	"camrent-web/internal/repository"
	"camrent-web/internal/repository/postgres"
	"camrent-web/internal/scheduler"
	"camrent-web/internal/service"
	"camrent-web/internal/session"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'flag-overdue-bookings', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting CamRent Cronjob Runner...", "log_level", cfg.Log.Level)

	// Sessions live in postgres only when the web server keeps them there.
	var sessions repository.SessionRepository
	if cfg.Session.Store == config.SessionStorePostgres {
		logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
		db, err := postgres.Open(context.Background(), cfg.GetDatabaseConnectionString(), 10*time.Second)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		logger.Info("Database connection established")
		sessions = postgres.NewStore(db)
	}

	// Initialize Services
	client := backend.New(cfg.Backend.BaseURL,
		&http.Client{Timeout: time.Duration(cfg.Backend.TimeoutSeconds) * time.Second},
		session.Ambient{})

	jobServices := &jobs.Services{
		Auth:     service.NewAuthService(client),
		Bookings: service.NewBookingService(client, client, cfg.Backend.EnrichConcurrency),
		Disputes: service.NewDisputeService(client),
		Notifier: service.NewNotifier(cfg.Notify.SendGridAPIKey, cfg.Notify.FromEmail, cfg.Notify.FromName),
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobServices, sessions, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "flag-overdue-bookings":
		jobRunner.FlagOverdueBookings()
	case "digest-stale-disputes":
		jobRunner.DigestStaleDisputes()
	case "prune-sessions":
		jobRunner.PruneSessions()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - flag-overdue-bookings\n")
		fmt.Printf("  - digest-stale-disputes\n")
		fmt.Printf("  - prune-sessions\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
