package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig is the limit applied to one route.
type EndpointConfig struct {
	Path   string        // exact path, or a prefix when it ends in "/"
	Method string        // HTTP method
	Limit  int           // requests per window
	Window time.Duration // refill window
	Burst  int           // bucket capacity; Limit when 0
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// LoadConfig reads RATE_LIMIT_* environment variables.
func LoadConfig() *Config {
	return loadConfig(os.Getenv)
}

func loadConfig(getenv func(string) string) *Config {
	if !envBool(getenv, "RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    envInt(getenv, "RATE_LIMIT_DEFAULT_LIMIT", 600),
		DefaultWindow:   envDuration(getenv, "RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: envDuration(getenv, "RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		IdleTTL:         time.Hour,
		Whitelist:       parseIPList(getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs limits the routes that call paid upstream services.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Generative calls
		{Path: "/api/profiles", Method: "POST", Limit: 20, Window: time.Hour, Burst: 3},
		{Path: "/api/pitches", Method: "POST", Limit: 20, Window: time.Hour, Burst: 3},
		{Path: "/api/party", Method: "POST", Limit: 20, Window: time.Hour, Burst: 3},
		{Path: "/api/tts", Method: "POST", Limit: 120, Window: time.Hour, Burst: 20},

		// Writes
		{Path: "/api/upload", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/api/bouncer/", Method: "POST", Limit: 300, Window: time.Minute, Burst: 50},
	}
}

func envInt(getenv func(string) string, key string, def int) int {
	if v, err := strconv.Atoi(getenv(key)); err == nil {
		return v
	}
	return def
}

func envBool(getenv func(string) string, key string, def bool) bool {
	if v, err := strconv.ParseBool(getenv(key)); err == nil {
		return v
	}
	return def
}

func envDuration(getenv func(string) string, key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(getenv(key)); err == nil {
		return v
	}
	return def
}

// parseIPList parses a comma-separated list of addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
