package simulation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jonathan/velvet-rope/internal/llm"
	"github.com/jonathan/velvet-rope/internal/llm/llmtest"
	"github.com/jonathan/velvet-rope/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemote_DecodesAndValidates(t *testing.T) {
	profiles := roster(3)
	canned := NewGenerator(11).Generate(profiles, 2, Options{})
	payload, err := json.Marshal(canned)
	require.NoError(t, err)

	client := &llmtest.MockClient{
		GenerateJSONFunc: func(_ context.Context, prompt string, tier llm.ModelTier) (string, error) {
			assert.Equal(t, llm.TierAdvanced, tier)
			assert.Contains(t, prompt, "The Loft")
			assert.Contains(t, prompt, "(id: a2)")
			assert.Contains(t, prompt, "Simulate 2 rounds")
			return "Here is the simulation:\n" + string(payload), nil
		},
	}

	dj := types.DefaultDjConfig()
	dj.Rounds = 2
	stamp := time.Date(2026, 6, 12, 23, 30, 0, 0, time.UTC)
	result, err := Remote(context.Background(), client, profiles, types.DefaultVenueConfig(3), dj,
		func() time.Time { return stamp })
	require.NoError(t, err)
	assert.Equal(t, types.SourceGenerated, result.Source)
	assert.Equal(t, stamp, result.GeneratedAt)
	assert.Len(t, result.Rounds, 2)
	assert.Equal(t, 1, client.Calls())
}

func TestRemote_Failures(t *testing.T) {
	profiles := roster(2)
	venue := types.DefaultVenueConfig(2)
	dj := types.DefaultDjConfig()

	t.Run("no client", func(t *testing.T) {
		_, err := Remote(context.Background(), nil, profiles, venue, dj, nil)
		var apiErr *APICallError
		assert.ErrorAs(t, err, &apiErr)
	})

	t.Run("call error", func(t *testing.T) {
		boom := errors.New("quota exceeded")
		client := &llmtest.MockClient{GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			return "", boom
		}}
		_, err := Remote(context.Background(), client, profiles, venue, dj, nil)
		var apiErr *APICallError
		require.ErrorAs(t, err, &apiErr)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("malformed", func(t *testing.T) {
		client := &llmtest.MockClient{GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			return `{"rounds": [{"round_number": 1, "agent_st`, nil
		}}
		_, err := Remote(context.Background(), client, profiles, venue, dj, nil)
		var parseErr *ParseError
		assert.ErrorAs(t, err, &parseErr)
	})

	t.Run("roster mismatch", func(t *testing.T) {
		client := &llmtest.MockClient{GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			return `{"rounds": [{"round_number": 1, "agent_states": [{"attendee_id": "a1", "position": {"x": 0.1, "y": 0.2}}]}]}`, nil
		}}
		_, err := Remote(context.Background(), client, profiles, venue, dj, nil)
		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})
}
