package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []any
}

type fakeExecer struct {
	calls []execCall
	tag   string
	err   error
}

func (f *fakeExecer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag(f.tag), f.err
}

func TestPGJournalRecord(t *testing.T) {
	db := &fakeExecer{tag: "INSERT 0 1"}
	j := NewPGJournal(db)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := j.Record(context.Background(), Delivery{
		ID:          "dlv-1",
		CustomerID:  "1",
		Name:        "A",
		Previous:    decimal.NewFromInt(10),
		Points:      decimal.NewFromInt(15),
		Status:      DeliverySent,
		AttemptedAt: at,
	})
	require.NoError(t, err)
	require.Len(t, db.calls, 1)

	call := db.calls[0]
	assert.Equal(t, "insert_webhook_delivery", call.sql)
	require.Len(t, call.args, 8)
	assert.Equal(t, "dlv-1", call.args[0])
	assert.Equal(t, "10", call.args[3])
	assert.Equal(t, "15", call.args[4])
	assert.Equal(t, DeliverySent, call.args[5])
	assert.Nil(t, call.args[6].(*string))
	assert.Equal(t, at, call.args[7])
}

func TestPGJournalRecordFailureText(t *testing.T) {
	db := &fakeExecer{tag: "INSERT 0 1"}
	err := NewPGJournal(db).Record(context.Background(), Delivery{Status: DeliveryFailed, Error: "502"})
	require.NoError(t, err)

	errText := db.calls[0].args[6].(*string)
	require.NotNil(t, errText)
	assert.Equal(t, "502", *errText)
}

func TestPGJournalRecordError(t *testing.T) {
	db := &fakeExecer{err: errors.New("conn closed")}
	err := NewPGJournal(db).Record(context.Background(), Delivery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert webhook delivery")
}

func TestPGJournalPrune(t *testing.T) {
	db := &fakeExecer{tag: "DELETE 12"}
	n, err := NewPGJournal(db).Prune(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	require.Len(t, db.calls, 1)
	assert.Equal(t, "prune_webhook_deliveries", db.calls[0].sql)
	cutoff := db.calls[0].args[0].(time.Time)
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), cutoff, time.Minute)
}
