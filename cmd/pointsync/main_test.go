package main

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/pointsync/internal/config"
	"github.com/albapepper/pointsync/internal/notifications"
	"github.com/albapepper/pointsync/internal/provider/loyverse"
)

type scriptedTicker struct {
	results []notifications.TickResult
	calls   int
}

func (s *scriptedTicker) Tick(ctx context.Context) notifications.TickResult {
	r := s.results[s.calls]
	s.calls++
	return r
}

func TestRunChecks(t *testing.T) {
	st := &scriptedTicker{results: []notifications.TickResult{
		{State: notifications.StateTracking, Initialized: true, Fetched: 1},
		{State: notifications.StateTracking, Fetched: 1, Changed: 1, Notified: 1, Outcomes: []notifications.Outcome{
			{CustomerID: "c1", Previous: decimal.NewFromInt(10), Points: decimal.NewFromInt(12)},
		}},
	}}

	var out bytes.Buffer
	require.NoError(t, runChecks(context.Background(), st, 2, time.Millisecond, &out))
	assert.Equal(t, 2, st.calls)
	assert.Contains(t, out.String(), "check 1/2: state=tracking fetched=1")
	assert.Contains(t, out.String(), "c1 10 -> 12 (sent)")
}

func TestRunChecksCancelled(t *testing.T) {
	st := &scriptedTicker{results: []notifications.TickResult{{}, {}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := runChecks(ctx, st, 2, time.Hour, &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, st.calls)
}

func TestPrintCustomers(t *testing.T) {
	customers := []loyverse.Customer{
		{ID: "c1", Name: "Ana", Points: decimal.RequireFromString("12.5"), Email: "ana@example.com"},
	}

	var table bytes.Buffer
	require.NoError(t, printCustomers(&table, customers, false))
	assert.Contains(t, table.String(), "ID")
	assert.Contains(t, table.String(), "12.5")
	assert.Contains(t, table.String(), "ana@example.com")

	var js bytes.Buffer
	require.NoError(t, printCustomers(&js, customers, true))
	assert.Contains(t, js.String(), `"c1"`)
}

func TestRootCommandTree(t *testing.T) {
	root := rootCmd()
	for _, path := range [][]string{{"customers"}, {"check"}, {"journal", "prune"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestJournalPruneNeedsOnlyDatabase(t *testing.T) {
	t.Setenv("LOYVERSE_API_TOKEN", "")
	t.Setenv("WEBHOOK_URL", "")
	t.Setenv("DATABASE_URL", "")

	root := rootCmd()
	root.SetArgs([]string{"journal", "prune", "--days", "7"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.NotContains(t, err.Error(), "LOYVERSE_API_TOKEN")
	assert.NotContains(t, err.Error(), "WEBHOOK_URL")
}

func TestCommandValidation(t *testing.T) {
	cfg := &config.Config{LoyverseAPIToken: "tok", LoyverseRequestsPerMin: 60}
	assert.NoError(t, cfg.ValidateSource())

	err := validateCheck(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WEBHOOK_URL")

	cfg.WebhookURL = "https://hook.example.com"
	assert.NoError(t, validateCheck(cfg))
}
