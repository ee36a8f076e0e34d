// Package notifications detects loyalty-points balance changes and forwards
// them to the configured webhook.
//
// Pipeline: fetch customers → diff against the balance cache → POST one
// webhook per changed customer → journal the attempt (optional).
// The first completed tick only populates the cache and never notifies.
package notifications

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/albapepper/pointsync/internal/provider/loyverse"
)

// --------------------------------------------------------------------------
// Interfaces
// --------------------------------------------------------------------------

// Source returns the current customers list. On failure it returns an empty
// slice and a non-nil error.
type Source interface {
	FetchCustomers(ctx context.Context) ([]loyverse.Customer, error)
}

// Notifier delivers a single balance change downstream and returns the
// delivery ID it used.
type Notifier interface {
	Notify(ctx context.Context, change Change) (string, error)
}

// --------------------------------------------------------------------------
// State
// --------------------------------------------------------------------------

// State is the detector's position in its two-state lifecycle.
type State int

const (
	// StateUninitialized populates the cache without notifying.
	StateUninitialized State = iota
	// StateTracking notifies on every balance difference.
	StateTracking
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateTracking:
		return "tracking"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Change is one customer whose balance differs from the cached value.
type Change struct {
	Customer   loyverse.Customer
	Previous   decimal.Decimal
	ObservedAt time.Time
}

// Payload is the JSON body posted to the webhook.
type Payload struct {
	CustomerID     string      `json:"customer_id"`
	Name           string      `json:"name"`
	NewPoints      json.Number `json:"new_points"`
	PreviousPoints json.Number `json:"previous_points"`
	Email          string      `json:"email,omitempty"`
	PhoneNumber    string      `json:"phone_number,omitempty"`
	TotalSpent     json.Number `json:"total_spent"`
	ObservedAt     string      `json:"observed_at"`
}

// NewPayload builds the webhook body for a change.
func NewPayload(c Change) Payload {
	return Payload{
		CustomerID:     c.Customer.ID,
		Name:           c.Customer.Name,
		NewPoints:      json.Number(c.Customer.Points.String()),
		PreviousPoints: json.Number(c.Previous.String()),
		Email:          c.Customer.Email,
		PhoneNumber:    c.Customer.PhoneNumber,
		TotalSpent:     json.Number(c.Customer.TotalSpent.String()),
		ObservedAt:     c.ObservedAt.UTC().Format(time.RFC3339),
	}
}
