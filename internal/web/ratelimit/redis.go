package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow trims entries at or before the cutoff, admits the request
// when under the limit and returns {allowed, count, oldest score}. Scores
// are milliseconds.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', key, '-inf', ARGV[2])
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
	redis.call('ZADD', key, ARGV[1], ARGV[5])
	count = count + 1
	allowed = 1
end
redis.call('PEXPIRE', key, ARGV[3])

local oldest = tonumber(ARGV[1])
local first = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if first[2] then
	oldest = tonumber(first[2])
end
return {allowed, count, oldest}
`)

// Redis is a sliding window limiter shared between server instances
type Redis struct {
	client *redis.Client
	config Config
	prefix string
	now    func() time.Time
}

// NewRedis creates a limiter on an existing client. The client stays owned
// by the caller.
func NewRedis(client *redis.Client, config Config, prefix string) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Redis{
		client: client,
		config: config,
		prefix: prefix,
		now:    time.Now,
	}, nil
}

// Allow records the request in key's window when it is under the limit
func (r *Redis) Allow(ctx context.Context, key string) (*Decision, error) {
	now := r.now()
	window := r.config.Window.Milliseconds()
	if window < 1 {
		window = 1
	}

	result, err := slidingWindow.Run(ctx, r.client, []string{r.prefix + key},
		now.UnixMilli(), now.UnixMilli()-window, window, r.config.Requests, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check failed: %w", err)
	}
	if len(result) != 3 {
		return nil, fmt.Errorf("unexpected rate limit script result: %v", result)
	}

	resetAt := time.UnixMilli(result[2] + window)
	decision := &Decision{
		Allowed:   result[0] == 1,
		Limit:     r.config.Requests,
		Remaining: max(0, r.config.Requests-int(result[1])),
		ResetAt:   resetAt,
	}
	if !decision.Allowed {
		decision.RetryAfter = max(0, resetAt.Sub(now))
	}
	return decision, nil
}

// Reset forgets every request recorded for key
func (r *Redis) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

// Close is a no-op; the client belongs to the caller
func (r *Redis) Close() error {
	return nil
}
