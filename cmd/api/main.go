// Command api is the pointsync server: it checks Loyverse point balances on a
// schedule and serves the manual trigger, health, and status endpoints.
//
// Usage:
//
//	pointsync-api
//	PORT=8080 CHECK_SCHEDULE="*/5 * * * *" pointsync-api

// @title pointsync API
// @version 1.0.0
// @description Manual trigger, health, and status endpoints for the Loyverse points change notifier.
// @host localhost:3000
// @BasePath /
// @schemes http https
// @contact.name pointsync
// @license.name MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/pointsync/internal/api"
	"github.com/albapepper/pointsync/internal/api/handler"
	"github.com/albapepper/pointsync/internal/cache"
	"github.com/albapepper/pointsync/internal/config"
	"github.com/albapepper/pointsync/internal/db"
	"github.com/albapepper/pointsync/internal/listener"
	"github.com/albapepper/pointsync/internal/logging"
	"github.com/albapepper/pointsync/internal/maintenance"
	"github.com/albapepper/pointsync/internal/notifications"
	"github.com/albapepper/pointsync/internal/provider/loyverse"
	"github.com/albapepper/pointsync/internal/scheduler"

	_ "github.com/albapepper/pointsync/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg)
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Optional delivery journal
	var (
		journal notifications.Journal
		health  handler.HealthChecker
	)
	if cfg.JournalEnabled() {
		logger.Info("Connecting to journal database...")
		pool, err := db.New(ctx, cfg)
		if err != nil {
			logger.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		logger.Info("Database connected",
			"min_conns", cfg.DBPoolMinConns,
			"max_conns", cfg.DBPoolMaxConns)

		pgJournal := notifications.NewPGJournal(pool)
		journal = pgJournal
		health = pool

		go maintenance.Start(ctx, pgJournal, maintenance.Config{
			CleanupInterval: cfg.JournalCleanupInterval,
			Retention:       time.Duration(cfg.JournalRetentionDays) * 24 * time.Hour,
		}, logger)
	} else {
		logger.Info("Delivery journal disabled (no DATABASE_URL)")
	}

	// Change detector
	source := loyverse.NewClient(cfg.LoyverseAPIURL, cfg.LoyverseAPIToken,
		cfg.LoyverseTimeout, cfg.LoyverseRequestsPerMin, logger)
	sender := notifications.NewWebhookSender(cfg.WebhookURL, cfg.WebhookSecret, cfg.WebhookTimeout)
	detector := notifications.NewDetector(source, sender, cache.New(), journal, logger)

	// Scheduler
	sched, err := scheduler.New(cfg.CheckSchedule, cfg.CheckOnStart, detector, logger)
	if err != nil {
		logger.Error("Failed to build scheduler", "error", err)
		os.Exit(1)
	}
	go func() {
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Scheduler failed", "error", err)
		}
	}()

	// NOTIFY trigger
	if cfg.JournalEnabled() {
		go listener.Start(ctx, cfg.DatabaseURL, detector, logger)
	}

	router := api.NewRouter(detector, health, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second, // /check-updates clears its own deadline
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Server is running",
			"addr", addr,
			"environment", cfg.Environment,
			"schedule", cfg.CheckSchedule,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
