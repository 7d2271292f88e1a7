package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const incrementScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`

// RedisStore keeps counters in Redis so every instance shares them.
type RedisStore struct {
	client  *redis.Client
	script  *redis.Script
	timeout time.Duration
}

// NewRedisStore wraps client. It returns nil when client is nil.
func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		return nil
	}
	return &RedisStore{
		client:  client,
		script:  redis.NewScript(incrementScript),
		timeout: 250 * time.Millisecond,
	}
}

func (s *RedisStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, time.Duration, error) {
	if s == nil || s.client == nil {
		return 0, 0, errors.New("redis counter store not configured")
	}
	ms := ttl.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.script.Run(ctx, s.client, []string{key}, ms).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("unexpected counter reply %v", res)
	}
	resetIn := time.Duration(res[1]) * time.Millisecond
	if res[1] < 0 {
		resetIn = ttl
	}
	return res[0], resetIn, nil
}
