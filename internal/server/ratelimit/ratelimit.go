// Package ratelimit provides per-client token bucket rate limiting for the HTTP API.
package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket refills continuously at refillRate up to capacity.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   int
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
}

func newTokenBucket(capacity int, refillRate float64, now time.Time) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: now,
	}
}

// refill must be called with mu held.
func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed > 0 {
		tb.tokens = min(float64(tb.capacity), tb.tokens+elapsed*tb.refillRate)
		tb.lastRefill = now
	}
}

// take consumes a token if one is available and reports the bucket status.
func (tb *TokenBucket) take(now time.Time) (allowed bool, remaining int, resetTime time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(now)
	if tb.tokens >= 1 {
		tb.tokens--
		allowed = true
	}

	remaining = int(tb.tokens)
	resetTime = now
	if missing := float64(tb.capacity) - tb.tokens; missing > 0 && tb.refillRate > 0 {
		resetTime = now.Add(time.Duration(missing / tb.refillRate * float64(time.Second)))
	}
	return allowed, remaining, resetTime
}

// Info describes the outcome of one Allow call.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

type entry struct {
	bucket     *TokenBucket
	lastAccess time.Time
}

// Limiter tracks one bucket per client, route and method.
type Limiter struct {
	config *Config
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*entry

	stopOnce sync.Once
	stop     chan struct{}
}

// NewLimiter creates a limiter. A nil config enables a permissive default.
func NewLimiter(config *Config) *Limiter {
	return newLimiter(config, time.Now)
}

func newLimiter(config *Config, now func() time.Time) *Limiter {
	if config == nil {
		config = &Config{
			Enabled:         true,
			DefaultLimit:    600,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
			IdleTTL:         time.Hour,
		}
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = time.Hour
	}

	l := &Limiter{
		config:  config,
		now:     now,
		buckets: make(map[string]*entry),
		stop:    make(chan struct{}),
	}
	if config.Enabled && config.CleanupInterval > 0 {
		go l.cleanupLoop(config.CleanupInterval)
	}
	return l
}

// Allow reports whether clientID may call method on path now.
func (l *Limiter) Allow(clientID, path, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return false, Info{}
	}

	cfg := MatchEndpoint(path, method, l.config.EndpointConfigs)
	if cfg == nil {
		cfg = &EndpointConfig{Limit: l.config.DefaultLimit, Window: l.config.DefaultWindow}
	}
	if cfg.Limit <= 0 || cfg.Window <= 0 {
		return true, Info{Allowed: true}
	}

	now := l.now()
	bucket := l.bucket(clientID+":"+method+":"+path, cfg, now)
	allowed, remaining, reset := bucket.take(now)

	info := Info{
		Allowed:   allowed,
		Limit:     cfg.Limit,
		Remaining: remaining,
		ResetTime: reset,
	}
	if !allowed {
		// time until the next whole token
		info.RetryAfter = cfg.Window / time.Duration(cfg.Limit)
	}
	return allowed, info
}

func (l *Limiter) bucket(key string, cfg *EndpointConfig, now time.Time) *TokenBucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.buckets[key]; ok {
		e.lastAccess = now
		return e.bucket
	}

	capacity := cfg.Burst
	if capacity <= 0 {
		capacity = cfg.Limit
	}
	b := newTokenBucket(capacity, float64(cfg.Limit)/cfg.Window.Seconds(), now)
	l.buckets[key] = &entry{bucket: b, lastAccess: now}
	return b
}

func (l *Limiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

// sweep drops buckets idle for longer than IdleTTL.
func (l *Limiter) sweep() {
	cutoff := l.now().Add(-l.config.IdleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.buckets {
		if e.lastAccess.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Len returns the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
