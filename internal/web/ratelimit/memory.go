package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Memory is a per-process token bucket limiter. Each key holds up to
// Requests tokens, refilled continuously over Window.
type Memory struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity float64
	interval time.Duration // time to refill one token
	config   Config
	now      func() time.Time
	done     chan struct{}
	once     sync.Once
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewMemory creates a token bucket limiter. Buckets idle for a whole window
// are full again and get swept every sweep interval; zero disables sweeping.
func NewMemory(config Config, sweep time.Duration) (*Memory, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	interval := config.Window / time.Duration(config.Requests)
	if interval <= 0 {
		interval = 1
	}

	m := &Memory{
		buckets:  make(map[string]*bucket),
		capacity: float64(config.Requests),
		interval: interval,
		config:   config,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	if sweep > 0 {
		go m.sweepLoop(sweep)
	}
	return m, nil
}

// Allow takes one token from key's bucket, creating a full bucket for a new
// key. A denied decision carries the wait until the next token.
func (m *Memory) Allow(ctx context.Context, key string) (*Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{tokens: m.capacity, last: now}
		m.buckets[key] = b
	} else if elapsed := now.Sub(b.last); elapsed > 0 {
		b.tokens = min(m.capacity, b.tokens+float64(elapsed)/float64(m.interval))
		b.last = now
	}

	decision := &Decision{Limit: m.config.Requests}
	if b.tokens >= 1 {
		b.tokens--
		decision.Allowed = true
	} else {
		decision.RetryAfter = m.refill(1 - b.tokens)
	}
	decision.Remaining = int(b.tokens)
	decision.ResetAt = now.Add(m.refill(m.capacity - b.tokens))
	return decision, nil
}

// refill returns how long it takes to regain tokens
func (m *Memory) refill(tokens float64) time.Duration {
	return time.Duration(tokens * float64(m.interval))
}

func (m *Memory) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.done:
			return
		}
	}
}

func (m *Memory) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, b := range m.buckets {
		if now.Sub(b.last) >= m.config.Window {
			delete(m.buckets, key)
		}
	}
}

// Len returns the number of tracked keys
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}

// Close stops the sweep goroutine
func (m *Memory) Close() error {
	m.once.Do(func() { close(m.done) })
	return nil
}
