package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "camrent-web/internal/api/http"
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
	withJobs := flag.Bool("with-jobs", false, "Run the scheduled jobs inside the server process")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting CamRent web server...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Backend configuration", "base_url", cfg.Backend.BaseURL, "timeout_seconds", cfg.Backend.TimeoutSeconds)
	logger.Info("Session configuration", "store", cfg.Session.Store, "sealed", cfg.Session.EncryptionKey != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize session store
	var (
		store    session.Store
		sessions repository.SessionRepository
	)
	switch cfg.Session.Store {
	case config.SessionStoreFile:
		logger.Info("Using file session store", "path", cfg.Session.FilePath)
		store = session.NewFileStore(cfg.Session.FilePath)
	case config.SessionStorePostgres:
		logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
		db, err := postgres.Open(ctx, cfg.GetDatabaseConnectionString(), 10*time.Second)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := postgres.Migrate(db); err != nil {
			logger.Error("Failed to migrate database", "error", err)
			log.Fatalf("Failed to migrate database: %v", err)
		}
		logger.Info("Database connection established")
		pg := postgres.NewStore(db)
		store = pg
		sessions = pg
	default:
		store = session.NewMemoryStore()
	}
	if cfg.Session.EncryptionKey != "" {
		key, err := cfg.Session.Key()
		if err != nil {
			log.Fatalf("Invalid session key: %v", err)
		}
		store = session.NewSealedStore(store, key)
	}

	// Backend client. Tokens come from the session on each request context.
	client := backend.New(cfg.Backend.BaseURL,
		&http.Client{Timeout: time.Duration(cfg.Backend.TimeoutSeconds) * time.Second},
		session.Ambient{})

	// Initialize Services
	authSvc := service.NewAuthService(client)
	bookingSvc := service.NewBookingService(client, client, cfg.Backend.EnrichConcurrency)
	inspectionSvc := service.NewInspectionService(client, client, session.Ambient{})
	disputeSvc := service.NewDisputeService(client)

	srv := httpapi.NewServer(cfg.Server, store, httpapi.Services{
		Auth:        authSvc,
		Bookings:    bookingSvc,
		Inspections: inspectionSvc,
		Disputes:    disputeSvc,
	})

	var cronScheduler *scheduler.Scheduler
	if *withJobs {
		jobRunner := jobs.NewJobRunner(&jobs.Services{
			Auth:     authSvc,
			Bookings: bookingSvc,
			Disputes: disputeSvc,
			Notifier: service.NewNotifier(cfg.Notify.SendGridAPIKey, cfg.Notify.FromEmail, cfg.Notify.FromName),
		}, sessions, cfg)
		cronScheduler = scheduler.NewScheduler(jobRunner)
		cronScheduler.Start()
	}

	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	// Graceful shutdown
	logger.Info("Shutting down web server...")
	if cronScheduler != nil {
		cronScheduler.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	logger.Info("Web server stopped. Goodbye!")
}
