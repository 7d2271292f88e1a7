package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/primewheels/agent-service/internal/ratelimit"
)

type countingSweeper struct {
	mu    sync.Mutex
	calls int
}

func (s *countingSweeper) Sweep(time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return 1
}

func (s *countingSweeper) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestRunSweeper_StopsOnCancel(t *testing.T) {
	target := &countingSweeper{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		RunSweeper(ctx, 5*time.Millisecond, zap.NewNop(), map[string]Sweeper{"test": target})
		close(done)
	}()

	require.Eventually(t, func() bool { return target.Calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestRunSweeper_NoopWithoutInterval(t *testing.T) {
	target := &countingSweeper{}
	RunSweeper(context.Background(), 0, nil, map[string]Sweeper{"test": target})
	assert.Zero(t, target.Calls())
}

func TestSweepOnce_PrunesMemoryStore(t *testing.T) {
	store := ratelimit.NewMemoryStore()
	_, _, err := store.Increment(context.Background(), "k", time.Millisecond)
	require.NoError(t, err)

	sweepOnce(time.Now().Add(time.Second), zap.NewNop(), map[string]Sweeper{"submissions": store})
	assert.Zero(t, store.Len())
}
