// Package listener provides a Postgres LISTEN/NOTIFY consumer that triggers
// an on-demand point update check. It holds a dedicated pgx connection (not
// from the pool) listening on the `pointsync_check` channel, so operators can
// run `NOTIFY pointsync_check, 'reason'` from any SQL client.
package listener

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/pointsync/internal/notifications"
)

const (
	// Channel is the NOTIFY channel the listener subscribes to.
	Channel          = "pointsync_check"
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// Ticker runs one point update check.
type Ticker interface {
	Tick(ctx context.Context) notifications.TickResult
}

// Start opens a dedicated connection and listens on the pointsync_check
// channel. It reconnects automatically on connection loss. Blocks until ctx
// is cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, ticker Ticker, logger *slog.Logger) {
	var backoff time.Duration

	for {
		connected, err := listenLoop(ctx, dbURL, ticker, logger)
		if ctx.Err() != nil {
			logger.Info("Check listener stopped (context cancelled)")
			return
		}

		backoff = nextBackoff(backoff, connected)
		logger.Error("Check listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
	}
}

// nextBackoff doubles the previous wait up to maxReconnect. A session that
// reached LISTEN starts over at reconnectBackoff.
func nextBackoff(prev time.Duration, connected bool) time.Duration {
	if connected || prev <= 0 {
		return reconnectBackoff
	}
	return min(prev*2, maxReconnect)
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled; connected reports whether LISTEN succeeded.
func listenLoop(ctx context.Context, dbURL string, ticker Ticker, logger *slog.Logger) (connected bool, err error) {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return false, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+Channel)
	if err != nil {
		return false, fmt.Errorf("LISTEN %s: %w", Channel, err)
	}
	logger.Info("Check listener connected", "channel", Channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return true, fmt.Errorf("wait for notification: %w", err)
		}
		handle(ctx, ticker, notification.Payload, logger)
	}
}

// handle runs the check in the background so the listener keeps draining
// notifications; overlapping requests are skipped by the detector.
func handle(ctx context.Context, ticker Ticker, reason string, logger *slog.Logger) {
	logger.Info("Check requested via NOTIFY", "reason", reason)
	go func() {
		result := ticker.Tick(ctx)
		logger.Info("NOTIFY check finished", "reason", reason, "summary", result.Summary())
	}()
}
