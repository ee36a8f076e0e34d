package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// Delivery statuses recorded in the journal.
const (
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// Delivery is one recorded webhook attempt. The journal is an audit trail
// only: nothing reads it back to retry or to seed the balance cache.
type Delivery struct {
	ID          string
	CustomerID  string
	Name        string
	Previous    decimal.Decimal
	Points      decimal.Decimal
	Status      string
	Error       string
	AttemptedAt time.Time
}

// Journal records webhook attempts.
type Journal interface {
	Record(ctx context.Context, d Delivery) error
}

// execer is the subset of pgxpool.Pool the journal needs.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGJournal writes deliveries to the webhook_deliveries table using the
// prepared statements registered by internal/db.
type PGJournal struct {
	db execer
}

// NewPGJournal wraps a pool (or any pgx executor).
func NewPGJournal(db execer) *PGJournal {
	return &PGJournal{db: db}
}

// Record inserts a delivery row.
func (j *PGJournal) Record(ctx context.Context, d Delivery) error {
	var errText *string
	if d.Error != "" {
		errText = &d.Error
	}
	_, err := j.db.Exec(ctx, "insert_webhook_delivery",
		d.ID, d.CustomerID, d.Name,
		d.Previous.String(), d.Points.String(),
		d.Status, errText, d.AttemptedAt,
	)
	if err != nil {
		return fmt.Errorf("insert webhook delivery: %w", err)
	}
	return nil
}

// Prune deletes deliveries attempted before now minus retention.
func (j *PGJournal) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	tag, err := j.db.Exec(ctx, "prune_webhook_deliveries", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune webhook deliveries: %w", err)
	}
	return tag.RowsAffected(), nil
}
