package maintenance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePruner struct {
	mu         sync.Mutex
	calls      int
	retentions []time.Duration
	err        error
}

func (p *fakePruner) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.retentions = append(p.retentions, retention)
	return 3, p.err
}

func (p *fakePruner) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStartPrunesOnInterval(t *testing.T) {
	p := &fakePruner{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		Start(ctx, p, Config{CleanupInterval: 10 * time.Millisecond, Retention: time.Hour}, quietLogger())
		close(done)
	}()

	require.Eventually(t, func() bool { return p.count() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Equal(t, time.Hour, p.retentions[0])
}

func TestStartDisabledWithZeroInterval(t *testing.T) {
	p := &fakePruner{}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	Start(ctx, p, Config{Retention: time.Hour}, quietLogger())
	assert.Zero(t, p.count())
}

func TestCleanupAbsorbsErrors(t *testing.T) {
	p := &fakePruner{err: errors.New("db down")}
	cleanup(context.Background(), p, time.Hour, quietLogger())
	assert.Equal(t, 1, p.count())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 30*24*time.Hour, cfg.Retention)
}
