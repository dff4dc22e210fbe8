// Command devbackend serves the in-memory rental backend with demo data so
// the web server and rentalctl can run without the real API.
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

	"camrent-web/internal/config"
	"camrent-web/internal/logger"
	"camrent-web/internal/mockbackend"
	"camrent-web/internal/security"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	tokenTTL := flag.Duration("token-ttl", 8*time.Hour, "Lifetime of issued access tokens")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	secret := cfg.DevBackend.JWTSecret
	if secret == "" {
		secret = "camrent-dev-secret"
		logger.Warn("dev_backend.jwt_secret is not set, using the built-in development secret")
	}
	mock := mockbackend.Demo(security.NewTokenManager(secret, *tokenTTL), time.Now())

	srv := &http.Server{
		Addr:              cfg.GetDevBackendAddress(),
		Handler:           mock.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Development backend listening", "address", cfg.GetDevBackendAddress())
		for _, u := range []mockbackend.User{mockbackend.DemoRenter, mockbackend.DemoStaff, mockbackend.DemoManager, mockbackend.DemoOwner} {
			logger.Info("Demo account", "email", u.Email, "password", u.Password, "roles", u.Roles)
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Development backend error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down development backend...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Development backend shutdown failed", "error", err)
	}
}
