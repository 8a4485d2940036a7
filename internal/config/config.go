// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Environment variables read by FromEnv.
const (
	EnvGeminiAPIKey   = "GEMINI_API_KEY"
	EnvOpenAIAPIKey   = "OPENAI_API_KEY"
	EnvDatabaseURL    = "DATABASE_URL"
	EnvStateDir       = "VELVET_STATE_DIR"
	EnvAddr           = "VELVET_ADDR"
	EnvSeed           = "VELVET_SEED"
	EnvConcurrency    = "VELVET_CONCURRENCY"
	EnvLogFile        = "LOG_FILE"
	EnvLogLevel       = "LOG_LEVEL"
	EnvReplayInterval = "VELVET_REPLAY_INTERVAL_MS"
)

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or come from the environment or CLI flags.
type Config struct {
	// Credentials
	APIKey       string `json:"api_key,omitempty"`        // Gemini API key
	OpenAIAPIKey string `json:"openai_api_key,omitempty"` // Speech API key

	// Storage
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL; state goes to the file otherwise
	StateDir    string `json:"state_dir,omitempty"`    // Directory holding velvet-rope-pipeline.json

	// Server
	Addr             string `json:"addr,omitempty"`
	ReplayIntervalMs int    `json:"replay_interval_ms,omitempty"`

	// Behavior
	Seed        uint64 `json:"seed,omitempty"`        // Fallback simulation seed; 0 seeds from the clock
	Scatter     bool   `json:"scatter,omitempty"`     // Random starting positions in the fallback simulation
	Concurrency int    `json:"concurrency,omitempty"` // Parallel generative batches
	Verbose     bool   `json:"verbose,omitempty"`

	// Logging
	LogFile  string `json:"log_file,omitempty"`
	LogLevel string `json:"log_level,omitempty"` // debug, info, warn, error
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		StateDir:         ".velvet-rope",
		Addr:             ":8080",
		ReplayIntervalMs: 1500,
		Concurrency:      1,
		LogLevel:         "info",
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads configuration from environment variables. getenv is usually os.Getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		APIKey:       getenv(EnvGeminiAPIKey),
		OpenAIAPIKey: getenv(EnvOpenAIAPIKey),
		DatabaseURL:  getenv(EnvDatabaseURL),
		StateDir:     getenv(EnvStateDir),
		Addr:         getenv(EnvAddr),
		LogFile:      getenv(EnvLogFile),
		LogLevel:     getenv(EnvLogLevel),
	}

	if raw := getenv(EnvSeed); raw != "" {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvSeed, err)
		}
		cfg.Seed = seed
	}
	if raw := getenv(EnvConcurrency); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvConcurrency, err)
		}
		cfg.Concurrency = n
	}
	if raw := getenv(EnvReplayInterval); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvReplayInterval, err)
		}
		cfg.ReplayIntervalMs = ms
	}
	return cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Concurrency < 0 {
		return fmt.Errorf("config error: 'concurrency' must be non-negative")
	}
	if c.ReplayIntervalMs < 0 {
		return fmt.Errorf("config error: 'replay_interval_ms' must be non-negative")
	}
	if c.LogLevel != "" {
		if _, err := ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	if c.DatabaseURL != "" && !strings.HasPrefix(c.DatabaseURL, "postgres://") && !strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		return fmt.Errorf("config error: 'database_url' must be a postgres URL")
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// Layering is file or flags first, then environment, then Defaults().
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.OpenAIAPIKey == "" {
		result.OpenAIAPIKey = defaults.OpenAIAPIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.StateDir == "" {
		result.StateDir = defaults.StateDir
	}
	if result.Addr == "" {
		result.Addr = defaults.Addr
	}
	if result.LogFile == "" {
		result.LogFile = defaults.LogFile
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}

	if result.ReplayIntervalMs == 0 {
		result.ReplayIntervalMs = defaults.ReplayIntervalMs
	}
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}
	if result.Seed == 0 {
		result.Seed = defaults.Seed
	}

	// Bools cannot distinguish unset from false, so flags always win.

	return result
}
