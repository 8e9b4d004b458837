package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Limiter admits or rejects requests per key
type Limiter interface {
	// Allow records one request for key and reports whether it is admitted
	Allow(ctx context.Context, key string) (*Decision, error)
	Close() error
}

// Decision is the limiter state after one request
type Decision struct {
	Allowed bool
	// Limit is the number of requests admitted per window
	Limit     int
	Remaining int
	// ResetAt is when the full quota is available again
	ResetAt time.Time
	// RetryAfter is how long a rejected caller should wait, zero when allowed
	RetryAfter time.Duration
}

// Config bounds each key to Requests per Window
type Config struct {
	Requests int
	Window   time.Duration
}

// DefaultConfig allows 100 requests per minute
func DefaultConfig() Config {
	return Config{
		Requests: 100,
		Window:   time.Minute,
	}
}

// Validate rejects limits that could never admit a request
func (c Config) Validate() error {
	if c.Requests <= 0 {
		return errors.New("requests must be greater than 0")
	}
	if c.Window <= 0 {
		return errors.New("window must be greater than 0")
	}
	return nil
}
