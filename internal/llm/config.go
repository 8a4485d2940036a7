// Package llm provides the generative model configuration and client abstraction
// used by the profile, pitch, and simulation generators.
package llm

import "time"

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for short, high-volume calls such as profile batches
	TierLite ModelTier = "lite"
	// TierStandard is for creative structured output such as pitches
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long multi-round output such as the party simulation
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// ProviderGemini is the Google Gemini provider, the only one wired today.
const ProviderGemini Provider = "gemini"

// DefaultTimeout bounds a single generative call.
const DefaultTimeout = 60 * time.Second

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32
	// MaxOutputTokens caps the response per tier; zero leaves the provider default.
	MaxOutputTokens map[ModelTier]int32
	Timeout         time.Duration
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: 0.8,
		MaxOutputTokens: map[ModelTier]int32{
			TierLite:     2000,
			TierStandard: 2000,
			TierAdvanced: 8000,
		},
		Timeout: DefaultTimeout,
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	next := *c
	next.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		next.Models[k] = v
	}
	next.Models[tier] = model
	return &next
}
