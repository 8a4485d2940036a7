package simulation

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/jonathan/velvet-rope/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roster(n int) []types.EnrichedProfile {
	industries := []string{"Fintech", "Healthcare", "Climate", "Media"}
	out := make([]types.EnrichedProfile, n)
	for i := range out {
		out[i] = types.EnrichedProfile{
			Attendee: types.Attendee{
				ID:        fmt.Sprintf("a%d", i+1),
				FirstName: fmt.Sprintf("First%d", i+1),
				LastName:  "Guest",
				Industry:  industries[i%len(industries)],
			},
			ParsedSkills:    []string{fmt.Sprintf("skill%d", i+1)},
			ParsedInterests: []string{fmt.Sprintf("interest%d", i+1)},
		}
	}
	return out
}

func TestGroupSize(t *testing.T) {
	tests := []struct{ n, want int }{
		{1, 2}, {2, 2}, {5, 2}, {6, 2}, {7, 3}, {9, 3}, {10, 4}, {30, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GroupSize(tt.n), "roster %d", tt.n)
	}
}

func TestProgress(t *testing.T) {
	assert.InDelta(t, 1.0/3, Progress(0, 5), 1e-9)
	assert.Equal(t, 1.0, Progress(2, 5))
	assert.InDelta(t, 0.5, Progress(5, 20), 1e-9)
	assert.Equal(t, 1.0, Progress(11, 20))
}

func TestGenerate_Shape(t *testing.T) {
	for _, n := range []int{1, 2, 5, 8, 15} {
		t.Run(fmt.Sprintf("roster_%d", n), func(t *testing.T) {
			profiles := roster(n)
			result := NewGenerator(99).Generate(profiles, 6, Options{})

			require.Len(t, result.Rounds, 6)
			assert.Equal(t, 6, result.TotalRounds)
			assert.Equal(t, types.SourceFallback, result.Source)
			assert.NotEmpty(t, result.AggregatedOutput)
			assert.Equal(t, len(result.Rounds[5].Groups), len(result.FinalGroups))

			known := map[string]bool{}
			for _, p := range profiles {
				known[p.ID] = true
			}

			for r, round := range result.Rounds {
				assert.Equal(t, r+1, round.RoundNumber)
				assert.NotEmpty(t, round.Narrative)
				assert.NotEmpty(t, round.Events)
				require.Len(t, round.AgentStates, n)

				seen := map[string]bool{}
				for _, s := range round.AgentStates {
					assert.False(t, seen[s.AttendeeID], "duplicate agent %s", s.AttendeeID)
					seen[s.AttendeeID] = true
					assert.True(t, known[s.AttendeeID])
					assert.GreaterOrEqual(t, s.Position.X, 0.0)
					assert.LessOrEqual(t, s.Position.X, 1.0)
					assert.GreaterOrEqual(t, s.Position.Y, 0.0)
					assert.LessOrEqual(t, s.Position.Y, 1.0)
					assert.GreaterOrEqual(t, s.EnergyLevel, 0)
					assert.LessOrEqual(t, s.EnergyLevel, 100)
					assert.GreaterOrEqual(t, s.Satisfaction, 0)
					assert.LessOrEqual(t, s.Satisfaction, 100)
					require.NotNil(t, s.CurrentGroupID)
				}

				members := 0
				for _, g := range round.Groups {
					assert.GreaterOrEqual(t, g.Cohesion, 60)
					assert.Less(t, g.Cohesion, 90)
					for _, id := range g.MemberIDs {
						assert.True(t, known[id])
						members++
					}
				}
				assert.Equal(t, n, members)
			}
		})
	}
}

func TestGenerate_GroupsAreContiguous(t *testing.T) {
	result := NewGenerator(1).Generate(roster(7), 3, Options{})

	require.Len(t, result.FinalGroups, 3)
	assert.Equal(t, []string{"a1", "a2", "a3"}, result.FinalGroups[0].MemberIDs)
	assert.Equal(t, []string{"a4", "a5", "a6"}, result.FinalGroups[1].MemberIDs)
	assert.Equal(t, []string{"a7"}, result.FinalGroups[2].MemberIDs)
	assert.Equal(t, "g1", result.FinalGroups[0].ID)
	assert.Equal(t, "Exploring interest1 and interest2", result.FinalGroups[0].Topic)
	assert.Equal(t, "Exploring interest7 and innovation", result.FinalGroups[2].Topic)
	assert.Equal(t, "A concept combining skill1, skill2, skill3", result.FinalGroups[0].Output)

	for _, s := range result.Rounds[0].AgentStates {
		idx := 0
		_, err := fmt.Sscanf(s.AttendeeID, "a%d", &idx)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("g%d", (idx-1)/3+1), *s.CurrentGroupID)
	}
}

func TestGenerate_FinalRoundReachesTarget(t *testing.T) {
	profiles := roster(9)
	result := NewGenerator(5).Generate(profiles, 5, Options{NoJitter: true})
	groupSize := GroupSize(len(profiles))

	final := result.Rounds[len(result.Rounds)-1]
	for idx, s := range final.AgentStates {
		target := TargetPosition(idx, groupSize)
		assert.InDelta(t, target.X, s.Position.X, 1e-9)
		assert.InDelta(t, target.Y, s.Position.Y, 1e-9)
	}

	jittered := NewGenerator(5).Generate(profiles, 5, Options{})
	for idx, s := range jittered.Rounds[4].AgentStates {
		target := TargetPosition(idx, groupSize)
		assert.LessOrEqual(t, math.Abs(target.X-s.Position.X), DefaultJitter+1e-9)
		assert.LessOrEqual(t, math.Abs(target.Y-s.Position.Y), DefaultJitter+1e-9)
	}
}

func TestGenerate_ScatterStartsInsideFloor(t *testing.T) {
	result := NewGenerator(3).Generate(roster(12), 10, Options{Scatter: true, NoJitter: true})
	for _, s := range result.Rounds[0].AgentStates {
		assert.Greater(t, s.Position.X, 0.0)
		assert.Less(t, s.Position.X, 1.0)
		assert.Greater(t, s.Position.Y, 0.0)
		assert.Less(t, s.Position.Y, 1.0)
	}
}

func TestGenerate_SeedIsReproducible(t *testing.T) {
	profiles := roster(8)
	a := NewGenerator(42).Generate(profiles, 5, Options{Scatter: true})
	b := NewGenerator(42).Generate(profiles, 5, Options{Scatter: true})
	c := NewGenerator(43).Generate(profiles, 5, Options{Scatter: true})

	b.GeneratedAt = a.GeneratedAt
	c.GeneratedAt = a.GeneratedAt

	aj, err := json.Marshal(a)
	require.NoError(t, err)
	bj, err := json.Marshal(b)
	require.NoError(t, err)
	cj, err := json.Marshal(c)
	require.NoError(t, err)

	assert.Equal(t, string(aj), string(bj))
	assert.NotEqual(t, string(aj), string(cj))
	assert.Equal(t, uint64(42), a.Seed)
}

func TestGenerate_ZeroSeedIsRecorded(t *testing.T) {
	result := NewGenerator(0).Generate(roster(3), 2, Options{})
	assert.NotZero(t, result.Seed)
}

func TestGenerate_DefaultRounds(t *testing.T) {
	result := NewGenerator(1).Generate(roster(4), 0, Options{})
	assert.Len(t, result.Rounds, DefaultRounds)
}

func TestGenerate_Events(t *testing.T) {
	result := NewGenerator(8).Generate(roster(6), 6, Options{})

	first := result.Rounds[0].Events
	require.Len(t, first, len(result.FinalGroups))
	for _, e := range first {
		assert.Equal(t, types.EventGroupFormed, e.Type)
	}

	moved := 0
	for r, round := range result.Rounds {
		for _, e := range round.Events {
			if e.Type == types.EventAgentMoved {
				moved++
				// max(3, 6*0.6) = 3.6, so p first reaches 1 in round index 3
				assert.Equal(t, 3, r)
			}
		}
	}
	assert.Equal(t, 1, moved)

	last := result.Rounds[5].Events
	assert.Equal(t, types.EventOutputProduced, last[0].Type)
}

func TestGenerate_NarrativeTiers(t *testing.T) {
	result := NewGenerator(2).Generate(roster(3), 6, Options{})
	assert.Contains(t, result.Rounds[0].Narrative, "Round 1:")
	assert.Contains(t, result.Rounds[1].Narrative, "building")
	assert.Contains(t, result.Rounds[2].Narrative, "at its peak")
	assert.Contains(t, result.Rounds[5].Narrative, "productive focus")
}

func TestGenerate_RoundsDoNotShareGroups(t *testing.T) {
	result := NewGenerator(4).Generate(roster(4), 3, Options{})
	result.Rounds[0].Groups[0].MemberIDs[0] = "mutated"
	assert.NotEqual(t, "mutated", result.Rounds[1].Groups[0].MemberIDs[0])
	assert.NotEqual(t, "mutated", result.FinalGroups[0].MemberIDs[0])
}
