package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/albapepper/pointsync/internal/cache"
)

// Detector owns the balance cache and the first-run state. Tick is its only
// mutator and is serialized: a tick requested while another is running is
// skipped rather than queued.
type Detector struct {
	source   Source
	notifier Notifier
	journal  Journal
	balances *cache.Balances
	logger   *slog.Logger
	now      func() time.Time

	tickMu sync.Mutex

	mu    sync.RWMutex
	state State
	last  *TickResult
}

// NewDetector wires a detector. journal may be nil.
func NewDetector(source Source, notifier Notifier, balances *cache.Balances, journal Journal, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	if balances == nil {
		balances = cache.New()
	}
	return &Detector{
		source:   source,
		notifier: notifier,
		journal:  journal,
		balances: balances,
		logger:   logger,
		now:      time.Now,
		state:    StateUninitialized,
	}
}

// State returns the current lifecycle state.
func (d *Detector) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Balances exposes the cache for read-only status reporting.
func (d *Detector) Balances() *cache.Balances {
	return d.balances
}

// LastResult returns the most recent non-skipped tick, if any.
func (d *Detector) LastResult() (TickResult, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.last == nil {
		return TickResult{}, false
	}
	return *d.last, true
}

// Tick runs one fetch → diff → notify cycle. It never returns an error:
// fetch and delivery failures are logged and reported in the result.
func (d *Detector) Tick(ctx context.Context) (result TickResult) {
	if !d.tickMu.TryLock() {
		d.logger.Warn("Point update check already running, skipping")
		return TickResult{State: d.State(), Skipped: true, StartedAt: d.now()}
	}
	defer d.tickMu.Unlock()

	result = TickResult{State: d.State(), StartedAt: d.now()}
	defer func() {
		result.Duration = time.Since(result.StartedAt)
		d.record(result)
	}()

	customers, err := d.source.FetchCustomers(ctx)
	if err != nil {
		// No changes this tick; the cache and state are left as they were.
		result.FetchError = err.Error()
		return result
	}
	result.Fetched = len(customers)

	if result.State == StateUninitialized {
		for _, c := range customers {
			d.balances.Set(c.ID, c.Points)
		}
		d.setState(StateTracking)
		result.State = StateTracking
		result.Initialized = true
		d.logger.Info("Balance cache initialized", "customers", len(customers))
		return result
	}

	for _, c := range customers {
		previous, known := d.balances.Get(c.ID)
		if c.Points.Equal(previous) {
			if !known {
				d.logger.Debug("New customer with zero balance, not notified", "customer_id", c.ID)
			}
			continue
		}

		d.logger.Info("Points update detected",
			"customer_id", c.ID, "name", c.Name,
			"previous", previous.String(), "points", c.Points.String())

		d.balances.Set(c.ID, c.Points)
		result.Changed++
		result.addOutcome(d.dispatch(ctx, Change{
			Customer:   c,
			Previous:   previous,
			ObservedAt: d.now(),
		}))
	}

	return result
}

func (d *Detector) setState(s State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = s
}

func (d *Detector) record(r TickResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = &r
}
