package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper prunes entries that expired before now.
type Sweeper interface {
	Sweep(now time.Time) int
}

// RunSweeper calls Sweep on every target each interval until ctx is done.
func RunSweeper(ctx context.Context, interval time.Duration, logger *zap.Logger, targets map[string]Sweeper) {
	if interval <= 0 || len(targets) == 0 {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			sweepOnce(now, logger, targets)
		}
	}
}

func sweepOnce(now time.Time, logger *zap.Logger, targets map[string]Sweeper) {
	for name, target := range targets {
		if removed := target.Sweep(now); removed > 0 {
			logger.Debug("swept expired entries", zap.String("target", name), zap.Int("removed", removed))
		}
	}
}
