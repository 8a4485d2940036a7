package pitches

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/jonathan/velvet-rope/internal/llm"
	"github.com/jonathan/velvet-rope/internal/llm/llmtest"
	"github.com/jonathan/velvet-rope/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

func profiles(n int) []types.EnrichedProfile {
	out := make([]types.EnrichedProfile, n)
	for i := range out {
		out[i] = types.EnrichedProfile{
			Attendee: types.Attendee{
				ID:              fmt.Sprintf("p%d", i+1),
				FirstName:       "Ada",
				LastName:        fmt.Sprintf("L%d", i+1),
				Company:         "Engines",
				Title:           "Founder",
				Industry:        "Compute",
				YearsExperience: 12,
			},
			ParsedSkills: []string{"Math", "Poetry", "Looms"},
			UniqueValue:  "First programmer",
		}
	}
	return out
}

var personID = regexp.MustCompile(`Person (p\d+):`)

// answer replies with a pitch per person named in the prompt, using tone for all of them.
func answer(tone string) func(context.Context, string, llm.ModelTier) (string, error) {
	return func(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
		var out []Generated
		for _, m := range personID.FindAllStringSubmatch(prompt, -1) {
			out = append(out, Generated{
				AttendeeID:   m[1],
				PitchText:    "Let me in, I am " + m[1],
				PitchTone:    tone,
				KeyArguments: []string{"one", "two", "three"},
			})
		}
		data, err := json.Marshal(out)
		return string(data), err
	}
}

func TestGenerate_Generated(t *testing.T) {
	client := &llmtest.MockClient{GenerateJSONFunc: answer("Humorous")}
	g := &Generator{Client: client, Now: func() time.Time { return fixedNow }}

	pitches := g.Generate(context.Background(), profiles(7))

	require.Len(t, pitches, 7)
	assert.Equal(t, 3, client.Calls())
	for i, p := range pitches {
		assert.Equal(t, fmt.Sprintf("p%d", i+1), p.AttendeeID)
		assert.Equal(t, types.SourceGenerated, p.Source)
		assert.Equal(t, types.ToneHumorous, p.PitchTone)
		assert.Equal(t, "Let me in, I am "+p.AttendeeID, p.PitchText)
		assert.Equal(t, fixedNow, p.GeneratedAt)
	}
}

func TestGenerate_InvalidToneIsRoundRobinByRosterIndex(t *testing.T) {
	client := &llmtest.MockClient{GenerateJSONFunc: answer("smug")}
	pitches := (&Generator{Client: client}).Generate(context.Background(), profiles(7))

	require.Len(t, pitches, 7)
	for i, p := range pitches {
		assert.Equal(t, types.Tones[i%len(types.Tones)], p.PitchTone, "pitch %d", i)
	}
}

func TestGenerate_HardFailure(t *testing.T) {
	client := &llmtest.MockClient{
		GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			return "", errors.New("context deadline exceeded")
		},
	}
	pitches := (&Generator{Client: client}).Generate(context.Background(), profiles(9))

	require.Len(t, pitches, 9)
	assert.Equal(t, 1, client.Calls())
	for i, p := range pitches {
		assert.Equal(t, types.SourceFallback, p.Source)
		assert.Equal(t, types.ToneForIndex(i), p.PitchTone)
	}
}

func TestGenerate_SoftFailureAffectsOneBatch(t *testing.T) {
	good := answer("confident")
	calls := 0
	client := &llmtest.MockClient{
		GenerateJSONFunc: func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
			calls++
			if calls == 1 {
				return "Sorry, I can't help with that.", nil
			}
			return good(ctx, prompt, tier)
		},
	}
	pitches := (&Generator{Client: client}).Generate(context.Background(), profiles(6))

	require.Len(t, pitches, 6)
	for i, p := range pitches {
		want := types.SourceGenerated
		if i < BatchSize {
			want = types.SourceFallback
		}
		assert.Equal(t, want, p.Source, "pitch %d", i)
	}
}

func TestFallback_Text(t *testing.T) {
	c := Candidate{Index: 3, Profile: profiles(1)[0]}
	p := Fallback(c, fixedNow)

	assert.Equal(t, "Look, I know you've got a list, but hear me out. I'm Ada L1, and I've spent 12 years in Compute. "+
		"I built Engines from the ground up. My skills in Math and Poetry aren't just resume padding; they're battle scars. "+
		"Let me in and I promise this event won't be the same without me. I didn't come all this way to stand outside.",
		p.PitchText)
	assert.Equal(t, types.TonePassionate, p.PitchTone)
	assert.Equal(t, []string{"Math", "First programmer", "12 years of expertise"}, p.KeyArguments)
	assert.Equal(t, types.SourceFallback, p.Source)
}

func TestFallback_NoSkills(t *testing.T) {
	profile := profiles(1)[0]
	profile.ParsedSkills = nil
	p := Fallback(Candidate{Profile: profile}, fixedNow)
	assert.Equal(t, "experience", p.KeyArguments[0])
	assert.Contains(t, p.PitchText, "My skills in experience aren't")
	assert.NotContains(t, p.PitchText, "  ")
}

func TestSkillsPhrase(t *testing.T) {
	tests := []struct {
		skills []string
		want   string
	}{
		{nil, "experience"},
		{[]string{" ", ""}, "experience"},
		{[]string{"Go"}, "Go"},
		{[]string{"Go", " ", "Rust", "Zig"}, "Go and Rust"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, skillsPhrase(tt.skills), "%q", tt.skills)
	}
}

func TestMerge_MissingAndDefaults(t *testing.T) {
	chunk := Candidates(profiles(3))
	out := Merge(chunk, []Generated{
		{AttendeeID: "p1", PitchText: "Please", PitchTone: "ANALYTICAL"},
		{AttendeeID: "p3", PitchText: ""},
	}, fixedNow)

	require.Len(t, out, 3)
	assert.Equal(t, types.SourceGenerated, out[0].Source)
	assert.Equal(t, types.ToneAnalytical, out[0].PitchTone)
	assert.Equal(t, []string{"Math", "First programmer", "12 years of expertise"}, out[0].KeyArguments)
	assert.Equal(t, types.SourceFallback, out[1].Source)
	assert.Equal(t, types.SourceFallback, out[2].Source)
}

func TestBuildPrompt(t *testing.T) {
	chunk := Candidates(profiles(4))[3:]
	prompt, err := BuildPrompt(chunk)
	require.NoError(t, err)

	assert.Contains(t, prompt, "Person p4: Ada L4, Founder at Engines. 12 years in Compute. Skills: Math, Poetry, Looms.")
	assert.Contains(t, prompt, "Tone: passionate.")
	assert.Contains(t, prompt, `"confident" or "humble" or "humorous" or "passionate" or "analytical"`)
	assert.NotContains(t, prompt, "{{.")
}
