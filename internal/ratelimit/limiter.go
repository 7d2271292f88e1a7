// Package ratelimit bounds how often a single origin may submit an agent
// application.
package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultMessage is returned to clients that exhausted their window.
const DefaultMessage = "Too many applications submitted from this IP, please try again after 24 hours"

// CounterStore increments a counter whose expiry is set by the first
// increment only. It returns the new count and the time left until the
// counter expires. Implementations must be safe for concurrent use.
type CounterStore interface {
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, time.Duration, error)
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Count     int64
	Remaining int
	ResetIn   time.Duration
	ResetAt   time.Time
}

// Limiter allows at most limit hits per origin within window. The window
// opens at the origin's first hit and closes window later.
type Limiter struct {
	store  CounterStore
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
	logger *zap.Logger
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithPrefix namespaces counter keys.
func WithPrefix(prefix string) Option {
	return func(l *Limiter) { l.prefix = prefix }
}

// WithLogger sets the logger used when the store fails.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Limiter) { l.logger = logger }
}

// NewLimiter builds a limiter on top of store.
func NewLimiter(store CounterStore, limit int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		limit:  limit,
		window: window,
		prefix: "agent-submit",
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records a hit for origin and reports whether it is within budget.
// A failing store lets the request through.
func (l *Limiter) Allow(ctx context.Context, origin string) Decision {
	if l == nil || l.store == nil || l.limit <= 0 || l.window <= 0 || origin == "" {
		return Decision{Allowed: true, Remaining: -1}
	}

	count, resetIn, err := l.store.Increment(ctx, l.key(origin), l.window)
	if err != nil {
		l.logger.Warn("rate limit store unavailable", zap.String("origin", origin), zap.Error(err))
		return Decision{Allowed: true, Remaining: -1}
	}
	if resetIn <= 0 || resetIn > l.window {
		resetIn = l.window
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= int64(l.limit),
		Count:     count,
		Remaining: remaining,
		ResetIn:   resetIn,
		ResetAt:   l.now().Add(resetIn),
	}
}

// Limit returns the configured number of hits per window.
func (l *Limiter) Limit() int {
	if l == nil {
		return 0
	}
	return l.limit
}

func (l *Limiter) key(origin string) string {
	return l.prefix + ":" + origin
}
