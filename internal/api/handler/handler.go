// Package handler provides HTTP handlers for the manual trigger, health, and
// status endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/albapepper/pointsync/internal/api/respond"
	"github.com/albapepper/pointsync/internal/cache"
	"github.com/albapepper/pointsync/internal/config"
	"github.com/albapepper/pointsync/internal/notifications"
)

// CheckAck is the body returned by /check-updates.
const CheckAck = "Point update check completed.\n"

// Checker is the change detector as seen by the handlers.
type Checker interface {
	Tick(ctx context.Context) notifications.TickResult
	State() notifications.State
	LastResult() (notifications.TickResult, bool)
	Balances() *cache.Balances
}

// HealthChecker verifies an optional backing database.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	checker Checker
	db      HealthChecker
	cfg     *config.Config
}

// New creates a Handler. db may be nil when the journal is disabled.
func New(checker Checker, db HealthChecker, cfg *config.Config) *Handler {
	return &Handler{checker: checker, db: db, cfg: cfg}
}

// CheckUpdates runs one point update check synchronously.
// @Summary Run a point update check
// @Description Fetches customers, diffs balances, and posts webhooks for changes. Always answers 200; failures are only logged.
// @Tags checks
// @Produce plain
// @Success 200 {string} string "Point update check completed."
// @Router /check-updates [get]
func (h *Handler) CheckUpdates(w http.ResponseWriter, r *http.Request) {
	// The check posts one webhook per change, so its length has no fixed
	// bound; the server WriteTimeout does not apply to this route.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	// A client hanging up must not cancel webhooks for balances already
	// written to the cache.
	h.checker.Tick(context.WithoutCancel(r.Context()))
	respond.WriteText(w, http.StatusOK, CheckAck)
}

// CheckThrottled answers a rate-limited /check-updates call without running
// a check.
func (h *Handler) CheckThrottled(w http.ResponseWriter, r *http.Request) {
	slog.Warn("Manual check rate limited, skipping", "remote_addr", r.RemoteAddr)
	respond.WriteText(w, http.StatusOK, CheckAck)
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies journal database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity for the delivery journal.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
			"status":    "healthy",
			"database":  "disabled",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	if err := h.db.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Status reports detector state, cache size, and the last check.
// @Summary Detector status
// @Description Returns the detector state (uninitialized or tracking), balance cache statistics, schedule, and a summary of the most recent check. With DEBUG=true the cached balances are included.
// @Tags checks
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /status [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"state":     h.checker.State().String(),
		"cache":     h.checker.Balances().Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.cfg != nil {
		body["schedule"] = h.cfg.CheckSchedule
		body["journal_enabled"] = h.cfg.JournalEnabled()
		if h.cfg.Debug {
			body["balances"] = h.checker.Balances().Snapshot()
		}
	}

	if last, ok := h.checker.LastResult(); ok {
		lastCheck := map[string]interface{}{
			"started_at":  last.StartedAt.UTC().Format(time.RFC3339),
			"duration_ms": last.Duration.Milliseconds(),
			"summary":     last.Summary(),
			"fetched":     last.Fetched,
			"changed":     last.Changed,
			"notified":    last.Notified,
			"failed":      last.Failed,
		}
		if last.FetchError != "" {
			lastCheck["fetch_error"] = last.FetchError
		}
		body["last_check"] = lastCheck
	}

	respond.WriteJSONObject(w, http.StatusOK, body)
}
