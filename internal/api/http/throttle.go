package http

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apperrors "github.com/primewheels/agent-service/pkg/util/errorutil"
)

const defaultThrottleIdle = 10 * time.Minute

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RequestThrottle is a token bucket per client IP in front of every route.
type RequestThrottle struct {
	mu       sync.Mutex
	limiters map[string]*throttleEntry
	rate     rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewRequestThrottle returns nil when rps is not positive.
func NewRequestThrottle(rps float64, burst int, logger *zap.Logger) *RequestThrottle {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestThrottle{
		limiters: make(map[string]*throttleEntry),
		rate:     rate.Limit(rps),
		burst:    burst,
		idle:     defaultThrottleIdle,
		now:      time.Now,
		logger:   logger,
	}
}

func (t *RequestThrottle) limiter(key string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, exists := t.limiters[key]
	if !exists {
		entry = &throttleEntry{limiter: rate.NewLimiter(t.rate, t.burst)}
		t.limiters[key] = entry
	}
	entry.lastSeen = t.now()
	return entry.limiter
}

// Handle rejects callers that exceed their bucket with 429.
func (t *RequestThrottle) Handle(c *fiber.Ctx) error {
	key := c.IP()
	if !t.limiter(key).AllowN(t.now(), 1) {
		t.logger.Warn("request throttled",
			zap.String("ip", key),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()))
		return apperrors.NewTooManyRequests("Too many requests, please slow down")
	}
	return c.Next()
}

// Sweep drops buckets idle since before now minus the idle period.
func (t *RequestThrottle) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for key, entry := range t.limiters {
		if now.Sub(entry.lastSeen) >= t.idle {
			delete(t.limiters, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked clients.
func (t *RequestThrottle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.limiters)
}
