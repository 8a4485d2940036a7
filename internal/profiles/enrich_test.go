package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jonathan/velvet-rope/internal/llm"
	"github.com/jonathan/velvet-rope/internal/llm/llmtest"
	"github.com/jonathan/velvet-rope/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

func attendees(n int) []types.Attendee {
	out := make([]types.Attendee, n)
	for i := range out {
		out[i] = types.Attendee{
			ID:              fmt.Sprintf("%d", i+1),
			FirstName:       "Guest",
			LastName:        fmt.Sprintf("Number%d", i+1),
			Email:           fmt.Sprintf("guest%d@example.com", i+1),
			Company:         fmt.Sprintf("Company%d", i+1),
			Title:           "CTO",
			Industry:        "Fintech",
			YearsExperience: 10 + i,
			Skills:          "Go; Kubernetes",
			Interests:       "LLMs;Robotics",
			Bio:             fmt.Sprintf("Bio of guest %d", i+1),
		}
	}
	return out
}

// echoClient answers every batch with a valid record per person in the prompt.
func echoClient(t *testing.T) *llmtest.MockClient {
	return &llmtest.MockClient{
		GenerateJSONFunc: func(_ context.Context, prompt string, tier llm.ModelTier) (string, error) {
			assert.Equal(t, llm.TierLite, tier)
			start := strings.Index(prompt, "[")
			end := strings.LastIndex(prompt, "]")
			var people []request
			require.NoError(t, json.Unmarshal([]byte(prompt[start:end+1]), &people))

			out := make([]Generated, len(people))
			for i, p := range people {
				out[i] = Generated{
					ID:                     p.ID,
					ProfileSummary:         "Generated summary for " + p.Name,
					UniqueValue:            "Brings " + p.Skills,
					PotentialContributions: []string{"a", "b", "c"},
				}
			}
			data, err := json.Marshal(out)
			require.NoError(t, err)
			return string(data), nil
		},
	}
}

func TestGenerate_AllGenerated(t *testing.T) {
	client := echoClient(t)
	g := &Generator{Client: client, Now: func() time.Time { return fixedNow }}

	profiles := g.Generate(context.Background(), attendees(12))

	require.Len(t, profiles, 12)
	assert.Equal(t, 3, client.Calls())
	for i, p := range profiles {
		assert.Equal(t, fmt.Sprintf("%d", i+1), p.ID)
		assert.Equal(t, types.SourceGenerated, p.Source)
		assert.Equal(t, "Generated summary for Guest Number"+p.ID, p.ProfileSummary)
		assert.Equal(t, []string{"Go", "Kubernetes"}, p.ParsedSkills)
		assert.Equal(t, []string{"LLMs", "Robotics"}, p.ParsedInterests)
		assert.Contains(t, p.AvatarURL, "guest"+p.ID)
		assert.Equal(t, fixedNow, p.GeneratedAt)
	}
}

func TestGenerate_HardFailureFallsBackEverywhere(t *testing.T) {
	client := &llmtest.MockClient{
		GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			return "", errors.New("503 service unavailable")
		},
	}
	g := &Generator{Client: client, Now: func() time.Time { return fixedNow }}

	roster := attendees(15)
	profiles := g.Generate(context.Background(), roster)

	require.Len(t, profiles, 15)
	assert.Equal(t, 1, client.Calls(), "no retries and no further batches after a hard failure")
	for i, p := range profiles {
		a := roster[i]
		assert.Equal(t, types.SourceFallback, p.Source)
		assert.Equal(t,
			fmt.Sprintf("%s at %s with %d years in %s", a.Title, a.Company, a.YearsExperience, a.Industry),
			p.ProfileSummary)
		assert.Equal(t, fmt.Sprintf("%s at %s", a.Title, a.Company), p.UniqueValue)
		assert.Equal(t, []string{"Go", "LLMs", fmt.Sprintf("%d years of Fintech perspective", a.YearsExperience)}, p.PotentialContributions)
	}
}

func TestGenerate_LateHardFailureDiscardsGeneratedBatches(t *testing.T) {
	good := echoClient(t)
	calls := 0
	client := &llmtest.MockClient{
		GenerateJSONFunc: func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
			calls++
			if calls == 2 {
				return "", errors.New("upstream timeout")
			}
			return good.GenerateJSONFunc(ctx, prompt, tier)
		},
	}
	g := &Generator{Client: client, Now: func() time.Time { return fixedNow }}

	roster := attendees(15)
	profiles := g.Generate(context.Background(), roster)

	require.Len(t, profiles, 15)
	assert.Equal(t, 2, calls)
	for i, p := range profiles {
		a := roster[i]
		assert.Equal(t, types.SourceFallback, p.Source, "record %d", i)
		assert.Equal(t,
			fmt.Sprintf("%s at %s with %d years in %s", a.Title, a.Company, a.YearsExperience, a.Industry),
			p.ProfileSummary, "record %d", i)
	}
}

func TestGenerate_NoClient(t *testing.T) {
	profiles := (&Generator{}).Generate(context.Background(), attendees(6))
	require.Len(t, profiles, 6)
	for _, p := range profiles {
		assert.Equal(t, types.SourceFallback, p.Source)
		assert.Contains(t, p.ProfileSummary, " years in ")
	}
}

func TestGenerate_SoftFailureReplacesOneBatch(t *testing.T) {
	good := echoClient(t)
	calls := 0
	client := &llmtest.MockClient{
		GenerateJSONFunc: func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
			calls++
			if calls == 2 {
				return `[{"id": "6", "profileSummary": "cut off`, nil
			}
			return good.GenerateJSONFunc(ctx, prompt, tier)
		},
	}
	g := &Generator{Client: client}

	profiles := g.Generate(context.Background(), attendees(15))

	require.Len(t, profiles, 15)
	assert.Equal(t, 3, calls)
	for i, p := range profiles {
		if i >= 5 && i < 10 {
			assert.Equal(t, types.SourceFallback, p.Source, "record %d", i)
			assert.Equal(t, p.Bio, p.ProfileSummary, "soft fallback prefers the bio")
		} else {
			assert.Equal(t, types.SourceGenerated, p.Source, "record %d", i)
		}
	}
}

func TestGenerate_ConcurrentMatchesSequential(t *testing.T) {
	now := func() time.Time { return fixedNow }
	sequential := (&Generator{Client: echoClient(t), Now: now}).Generate(context.Background(), attendees(23))
	concurrent := (&Generator{Client: echoClient(t), Now: now, Concurrency: 4}).Generate(context.Background(), attendees(23))
	assert.Equal(t, sequential, concurrent)
}

func TestMerge_MissingRecordFallsBack(t *testing.T) {
	chunk := attendees(3)
	items := []Generated{
		{ID: "1", ProfileSummary: "One"},
		{ID: "3", ProfileSummary: "  "},
		{ID: "stranger", ProfileSummary: "Who?"},
	}

	out := Merge(chunk, items, fixedNow)
	require.Len(t, out, 3)
	assert.Equal(t, types.SourceGenerated, out[0].Source)
	assert.Equal(t, "CTO at Company1", out[0].UniqueValue)
	assert.Len(t, out[0].PotentialContributions, 3)
	assert.Equal(t, types.SourceFallback, out[1].Source)
	assert.Equal(t, types.SourceFallback, out[2].Source)
}

func TestFallback_NoBio(t *testing.T) {
	a := types.Attendee{ID: "9", Title: "Founder", Company: "Acme", YearsExperience: 4, Industry: "Retail"}

	soft := Fallback(a, false, fixedNow)
	assert.Equal(t, "Founder at Acme with 4 years in Retail", soft.ProfileSummary)
	assert.Equal(t, []string{"4 years of Retail perspective"}, soft.PotentialContributions)

	a.Bio = "Serial founder."
	assert.Equal(t, "Serial founder.", Fallback(a, false, fixedNow).ProfileSummary)
	assert.Equal(t, "Founder at Acme with 4 years in Retail", Fallback(a, true, fixedNow).ProfileSummary)
}

func TestBuildPrompt(t *testing.T) {
	prompt, err := BuildPrompt(attendees(2))
	require.NoError(t, err)
	assert.Contains(t, prompt, `"id":"1"`)
	assert.Contains(t, prompt, `"name":"Guest Number2"`)
	assert.Contains(t, prompt, "AI hackathon")
	assert.NotContains(t, prompt, "{{.")
}
