// Package scheduler runs the point update check on a cron expression.
// Ticks never overlap: a run that fires while the previous one is still in
// progress is skipped.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/albapepper/pointsync/internal/notifications"
)

// Ticker is the job the scheduler drives.
type Ticker interface {
	Tick(ctx context.Context) notifications.TickResult
}

// Scheduler invokes Ticker.Tick on a cron schedule.
type Scheduler struct {
	spec       string
	runOnStart bool
	ticker     Ticker
	logger     *slog.Logger
	cron       *cron.Cron
}

// New validates spec (standard five-field cron or a descriptor such as
// "@every 1m") and builds a scheduler.
func New(spec string, runOnStart bool, ticker Ticker, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}

	l := cronLogger{logger: logger}
	return &Scheduler{
		spec:       spec,
		runOnStart: runOnStart,
		ticker:     ticker,
		logger:     logger,
		cron: cron.New(
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
	}, nil
}

// Run starts the schedule and blocks until ctx is cancelled, then waits for
// a running tick to finish. Intended to be called with `go`.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule check: %w", err)
	}

	s.logger.Info("Scheduler started", "schedule", s.spec, "run_on_start", s.runOnStart)
	s.cron.Start()

	if s.runOnStart {
		s.runOnce(ctx)
	}

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	result := s.ticker.Tick(ctx)
	if result.FetchError != "" {
		s.logger.Warn("Point update check finished with fetch error", "summary", result.Summary())
		return
	}
	s.logger.Info("Point update check finished",
		"summary", result.Summary(), "duration", result.Duration)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
