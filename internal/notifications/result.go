package notifications

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Outcome is the delivery result for one changed customer.
type Outcome struct {
	CustomerID string          `json:"customer_id"`
	Name       string          `json:"name"`
	Previous   decimal.Decimal `json:"previous_points"`
	Points     decimal.Decimal `json:"new_points"`
	DeliveryID string          `json:"delivery_id,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// TickResult tracks what one tick observed and did.
type TickResult struct {
	State       State
	Skipped     bool
	Initialized bool
	FetchError  string
	Fetched     int
	Changed     int
	Notified    int
	Failed      int
	Outcomes    []Outcome
	StartedAt   time.Time
	Duration    time.Duration
}

// Summary returns a human-readable summary of the tick.
func (r *TickResult) Summary() string {
	if r.Skipped {
		return "skipped (check already running)"
	}
	if r.FetchError != "" {
		return fmt.Sprintf("state=%s fetch_error=%q", r.State, r.FetchError)
	}
	return fmt.Sprintf(
		"state=%s fetched=%d changed=%d notified=%d failed=%d initialized=%t",
		r.State, r.Fetched, r.Changed, r.Notified, r.Failed, r.Initialized,
	)
}

func (r *TickResult) addOutcome(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.Error != "" {
		r.Failed++
	} else {
		r.Notified++
	}
}
