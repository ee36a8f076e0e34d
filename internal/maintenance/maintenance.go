// Package maintenance runs periodic background tasks as Go tickers.
// Currently that is delivery journal retention; it only runs when a
// database is configured.
package maintenance

import (
	"context"
	"log/slog"
	"time"
)

// Pruner deletes journal rows older than a retention window.
type Pruner interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	CleanupInterval time.Duration
	Retention       time.Duration
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		CleanupInterval: 1 * time.Hour,
		Retention:       30 * 24 * time.Hour,
	}
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, pruner Pruner, cfg Config, logger *slog.Logger) {
	logger.Info("Maintenance tickers started",
		"cleanup", cfg.CleanupInterval,
		"retention", cfg.Retention)

	if cfg.CleanupInterval > 0 && cfg.Retention > 0 {
		t := time.NewTicker(cfg.CleanupInterval)
		defer t.Stop()
		go runLoop(ctx, t.C, func() { cleanup(ctx, pruner, cfg.Retention, logger) })
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// cleanup removes journal rows older than the retention window.
func cleanup(ctx context.Context, pruner Pruner, retention time.Duration, logger *slog.Logger) {
	n, err := pruner.Prune(ctx, retention)
	if err != nil {
		logger.Warn("Cleanup: failed to prune webhook deliveries", "error", err)
		return
	}
	if n > 0 {
		logger.Info("Cleanup: pruned webhook deliveries", "count", n)
	}
}
