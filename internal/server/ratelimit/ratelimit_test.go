package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    5,
		DefaultWindow:   time.Minute,
		Whitelist:       map[string]bool{"10.0.0.1": true},
		Blacklist:       map[string]bool{"10.0.0.66": true},
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

func TestTokenBucket_TakeAndRefill(t *testing.T) {
	clock := newFakeClock()
	bucket := newTokenBucket(10, 1.0, clock.Now())

	for i := 0; i < 10; i++ {
		allowed, remaining, _ := bucket.take(clock.Now())
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 9-i, remaining)
	}

	allowed, _, reset := bucket.take(clock.Now())
	assert.False(t, allowed)
	assert.Equal(t, clock.Now().Add(10*time.Second), reset)

	clock.Advance(time.Second)
	allowed, _, _ = bucket.take(clock.Now())
	assert.True(t, allowed)
	allowed, _, _ = bucket.take(clock.Now())
	assert.False(t, allowed)
}

func TestTokenBucket_NeverExceedsCapacity(t *testing.T) {
	clock := newFakeClock()
	bucket := newTokenBucket(3, 10, clock.Now())

	clock.Advance(time.Hour)
	_, remaining, reset := bucket.take(clock.Now())
	assert.Equal(t, 2, remaining)
	assert.True(t, reset.After(clock.Now()))
}

func TestLimiter_GenerativeRoutes(t *testing.T) {
	clock := newFakeClock()
	l := newLimiter(testConfig(), clock.Now)
	defer l.Stop()

	for i := 0; i < 3; i++ {
		allowed, info := l.Allow("10.0.0.2", "/api/profiles", "POST")
		require.True(t, allowed)
		assert.Equal(t, 20, info.Limit)
	}

	allowed, info := l.Allow("10.0.0.2", "/api/profiles", "POST")
	assert.False(t, allowed)
	assert.Equal(t, 3*time.Minute, info.RetryAfter)

	// other clients and routes have their own buckets
	allowed, _ = l.Allow("10.0.0.3", "/api/profiles", "POST")
	assert.True(t, allowed)
	allowed, _ = l.Allow("10.0.0.2", "/api/pitches", "POST")
	assert.True(t, allowed)

	clock.Advance(4 * time.Minute)
	allowed, _ = l.Allow("10.0.0.2", "/api/profiles", "POST")
	assert.True(t, allowed)
}

func TestLimiter_DefaultLimit(t *testing.T) {
	clock := newFakeClock()
	l := newLimiter(testConfig(), clock.Now)
	defer l.Stop()

	for i := 0; i < 5; i++ {
		allowed, _ := l.Allow("10.0.0.2", "/api/state", "GET")
		require.True(t, allowed)
	}
	allowed, info := l.Allow("10.0.0.2", "/api/state", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 5, info.Limit)
	assert.Equal(t, 12*time.Second, info.RetryAfter)
}

func TestLimiter_Lists(t *testing.T) {
	l := newLimiter(testConfig(), newFakeClock().Now)
	defer l.Stop()

	for i := 0; i < 20; i++ {
		allowed, _ := l.Allow("10.0.0.1", "/api/party", "POST")
		require.True(t, allowed)
	}

	allowed, _ := l.Allow("10.0.0.66", "/health", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	l := newLimiter(&Config{Enabled: false}, newFakeClock().Now)
	defer l.Stop()

	for i := 0; i < 100; i++ {
		allowed, info := l.Allow("10.0.0.2", "/api/party", "POST")
		require.True(t, allowed)
		assert.Zero(t, info.Limit)
	}
	assert.Zero(t, l.Len())
}

func TestLimiter_ProbesUnlimited(t *testing.T) {
	l := newLimiter(testConfig(), newFakeClock().Now)
	defer l.Stop()

	for i := 0; i < 50; i++ {
		allowed, _ := l.Allow("10.0.0.2", "/health", "GET")
		require.True(t, allowed)
		allowed, _ = l.Allow("10.0.0.2", "/metrics", "GET")
		require.True(t, allowed)
	}
	assert.Zero(t, l.Len())
}

func TestLimiter_Sweep(t *testing.T) {
	clock := newFakeClock()
	l := newLimiter(testConfig(), clock.Now)
	defer l.Stop()

	l.Allow("10.0.0.2", "/api/state", "GET")
	clock.Advance(30 * time.Minute)
	l.Allow("10.0.0.3", "/api/state", "GET")
	require.Equal(t, 2, l.Len())

	clock.Advance(45 * time.Minute)
	l.sweep()
	assert.Equal(t, 1, l.Len())
}

func TestLimiter_Concurrent(t *testing.T) {
	l := newLimiter(testConfig(), newFakeClock().Now)
	defer l.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("10.0.0.2", "/api/state", "GET"); ok {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, allowedCount)
}

func TestLimiter_StopTwice(t *testing.T) {
	l := NewLimiter(nil)
	l.Stop()
	assert.NotPanics(t, l.Stop)
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	tests := []struct {
		path   string
		method string
		want   string
	}{
		{"/api/profiles", "POST", "/api/profiles"},
		{"/api/profiles", "GET", ""},
		{"/api/bouncer/a1/biometrics", "POST", "/api/bouncer/"},
		{"/api/state", "GET", ""},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s", tt.method, tt.path), func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Path)
		})
	}

	health := MatchEndpoint("/health", "GET", configs)
	require.NotNil(t, health)
	assert.Zero(t, health.Limit)
}

func TestLoadConfig(t *testing.T) {
	env := map[string]string{
		"RATE_LIMIT_DEFAULT_LIMIT":  "42",
		"RATE_LIMIT_DEFAULT_WINDOW": "30s",
		"RATE_LIMIT_WHITELIST":      " 10.0.0.1, ,10.0.0.2",
	}
	cfg := loadConfig(func(k string) string { return env[k] })

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 42, cfg.DefaultLimit)
	assert.Equal(t, 30*time.Second, cfg.DefaultWindow)
	assert.Equal(t, 5*time.Minute, cfg.CleanupInterval)
	assert.Equal(t, map[string]bool{"10.0.0.1": true, "10.0.0.2": true}, cfg.Whitelist)
	assert.Empty(t, cfg.Blacklist)
	assert.NotEmpty(t, cfg.EndpointConfigs)

	disabled := loadConfig(func(k string) string {
		if k == "RATE_LIMIT_ENABLED" {
			return "false"
		}
		return ""
	})
	assert.False(t, disabled.Enabled)
}
