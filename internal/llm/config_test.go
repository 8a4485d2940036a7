package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_TierPerArtifact(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, ProviderGemini, config.Provider)
	assert.Equal(t, DefaultTimeout, config.Timeout)
	// The simulation covers every round at once and needs the largest budget.
	assert.Greater(t, config.MaxOutputTokens[TierAdvanced], config.MaxOutputTokens[TierLite])
	for _, tier := range []ModelTier{TierLite, TierStandard, TierAdvanced} {
		assert.NotEmpty(t, config.GetModel(tier), tier)
	}
}

func TestGetModel(t *testing.T) {
	tests := []struct {
		name   string
		models map[ModelTier]string
		tier   ModelTier
		want   string
	}{
		{"exact", map[ModelTier]string{TierAdvanced: "pro"}, TierAdvanced, "pro"},
		{"falls back to standard", map[ModelTier]string{TierStandard: "flash", TierLite: "lite"}, TierAdvanced, "flash"},
		{"falls back to lite", map[ModelTier]string{TierLite: "lite"}, "unknown", "lite"},
		{"nothing configured", map[ModelTier]string{}, TierAdvanced, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{Provider: ProviderGemini, Models: tt.models}
			assert.Equal(t, tt.want, config.GetModel(tt.tier))
		})
	}
}

func TestWithModel_LeavesOriginalUntouched(t *testing.T) {
	config := DefaultConfig()
	before := config.GetModel(TierAdvanced)

	custom := config.WithModel(TierAdvanced, "custom-model")

	assert.Equal(t, before, config.GetModel(TierAdvanced))
	assert.Equal(t, "custom-model", custom.GetModel(TierAdvanced))
	assert.Equal(t, config.GetModel(TierLite), custom.GetModel(TierLite))
	assert.Equal(t, config.Temperature, custom.Temperature)
}
