package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type failingStore struct{}

func (failingStore) Increment(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, errors.New("store down")
}

func newClockedLimiter(start time.Time, limit int, window time.Duration) (*Limiter, *MemoryStore, *fakeClock) {
	clock := &fakeClock{now: start}
	store := NewMemoryStore()
	store.SetClock(clock.Now)
	return NewLimiter(store, limit, window, WithClock(clock.Now)), store, clock
}

func TestLimiter_FourthAttemptRejected(t *testing.T) {
	limiter, _, clock := newClockedLimiter(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC), 3, 24*time.Hour)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d := limiter.Allow(ctx, "10.0.0.1")
		require.True(t, d.Allowed, "attempt %d", i)
		assert.Equal(t, 3-i, d.Remaining)
		clock.Advance(time.Hour)
	}

	d := limiter.Allow(ctx, "10.0.0.1")
	assert.False(t, d.Allowed)
	assert.Equal(t, int64(4), d.Count)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 21*time.Hour, d.ResetIn)
	assert.Equal(t, time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC), d.ResetAt)
}

func TestLimiter_OriginsAreIndependent(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(), 1, time.Hour)
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "a").Allowed)
	assert.False(t, limiter.Allow(ctx, "a").Allowed)
	assert.True(t, limiter.Allow(ctx, "b").Allowed)
}

func TestLimiter_WindowRollsAcrossMidnight(t *testing.T) {
	limiter, _, clock := newClockedLimiter(time.Date(2026, 5, 1, 23, 58, 0, 0, time.UTC), 3, 24*time.Hour)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.True(t, limiter.Allow(ctx, "ip").Allowed, "attempt %d", i)
	}

	clock.Advance(3 * time.Minute)
	d := limiter.Allow(ctx, "ip")
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Date(2026, 5, 2, 23, 58, 0, 0, time.UTC), d.ResetAt)

	clock.Advance(24*time.Hour - 4*time.Minute)
	assert.False(t, limiter.Allow(ctx, "ip").Allowed)

	clock.Advance(time.Minute)
	d = limiter.Allow(ctx, "ip")
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(1), d.Count)
}

func TestLimiter_FailsOpen(t *testing.T) {
	limiter := NewLimiter(failingStore{}, 1, time.Hour)

	assert.True(t, limiter.Allow(context.Background(), "ip").Allowed)
	assert.True(t, limiter.Allow(context.Background(), "ip").Allowed)
}

func TestLimiter_DisabledWhenUnconfigured(t *testing.T) {
	var nilLimiter *Limiter
	assert.True(t, nilLimiter.Allow(context.Background(), "ip").Allowed)
	assert.True(t, NewLimiter(NewMemoryStore(), 0, time.Hour).Allow(context.Background(), "ip").Allowed)
}

func TestMemoryStore_Sweep(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	store := NewMemoryStore()
	store.SetClock(clock.Now)
	ctx := context.Background()

	_, _, _ = store.Increment(ctx, "short", time.Minute)
	_, _, _ = store.Increment(ctx, "long", time.Hour)
	require.Equal(t, 2, store.Len())

	assert.Equal(t, 1, store.Sweep(clock.Now().Add(2*time.Minute)))
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_ConcurrentIncrements(t *testing.T) {
	store := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = store.Increment(context.Background(), "k", time.Hour)
		}()
	}
	wg.Wait()

	count, resetIn, err := store.Increment(context.Background(), "k", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(51), count)
	assert.True(t, resetIn > 0 && resetIn <= time.Hour)
}
