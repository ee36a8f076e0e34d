package cache

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestGetMissing(t *testing.T) {
	b := New()
	v, ok := b.Get("nope")
	assert.False(t, ok)
	assert.True(t, v.IsZero())
}

func TestSetOverwrites(t *testing.T) {
	b := New()
	b.Set("1", decimal.NewFromInt(10))
	b.Set("1", decimal.NewFromInt(15))

	v, ok := b.Get("1")
	assert.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, 1, b.Len())
}

func TestSnapshotIsCopy(t *testing.T) {
	b := New()
	b.Set("1", decimal.NewFromInt(1))

	snap := b.Snapshot()
	snap["2"] = decimal.NewFromInt(2)

	assert.Equal(t, 1, b.Len())
	_, ok := b.Get("2")
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	b := New()
	stats := b.Stats()
	assert.Equal(t, 0, stats["tracked_customers"])
	assert.NotContains(t, stats, "last_updated")

	b.Set("1", decimal.NewFromInt(1))
	stats = b.Stats()
	assert.Equal(t, 1, stats["tracked_customers"])
	assert.Contains(t, stats, "last_updated")
}

func TestConcurrentAccess(t *testing.T) {
	b := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Set("shared", decimal.NewFromInt(int64(n*j)))
				b.Get("shared")
				b.Stats()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, b.Len())
}
