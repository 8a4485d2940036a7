package simulation

import (
	"math"
	"testing"

	"github.com/jonathan/velvet-rope/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_AcceptsGeneratedResult(t *testing.T) {
	profiles := roster(5)
	result := NewGenerator(1).Generate(profiles, 3, Options{})
	assert.NoError(t, Validate(result, profiles))
}

func TestValidate_Normalizes(t *testing.T) {
	profiles := roster(2)
	g := "g1"
	result := &types.SimulationResult{
		Rounds: []types.SimulationRound{{
			RoundNumber: 1,
			AgentStates: []types.AgentState{
				{AttendeeID: "a1", Position: types.Position{X: 1.4, Y: -0.2}, CurrentGroupID: &g, EnergyLevel: 140},
				{AttendeeID: "a2", Position: types.Position{X: 0.5, Y: 0.5}, Satisfaction: -5},
			},
			Groups: []types.Group{{ID: "g1", MemberIDs: []string{"a1"}, Cohesion: 150}},
		}},
		TotalRounds: 9,
	}

	require.NoError(t, Validate(result, profiles))
	state := result.Rounds[0].AgentStates[0]
	assert.Equal(t, 1.0, state.Position.X)
	assert.Equal(t, 0.0, state.Position.Y)
	assert.Equal(t, 100, state.EnergyLevel)
	assert.Equal(t, 0, result.Rounds[0].AgentStates[1].Satisfaction)
	assert.Equal(t, 1, result.TotalRounds)
	require.Len(t, result.FinalGroups, 1)
	assert.Equal(t, 100, result.FinalGroups[0].Cohesion)
}

func TestValidate_Rejects(t *testing.T) {
	profiles := roster(2)

	state := func(id string) types.AgentState {
		return types.AgentState{AttendeeID: id, Position: types.Position{X: 0.5, Y: 0.5}}
	}
	round := func(n int, states ...types.AgentState) types.SimulationRound {
		return types.SimulationRound{RoundNumber: n, AgentStates: states}
	}

	tests := []struct {
		name   string
		result *types.SimulationResult
		field  string
	}{
		{"nil", nil, ""},
		{"no rounds", &types.SimulationResult{}, "rounds"},
		{"bad numbering", &types.SimulationResult{Rounds: []types.SimulationRound{
			round(2, state("a1"), state("a2")),
		}}, "rounds[0].round_number"},
		{"missing agent", &types.SimulationResult{Rounds: []types.SimulationRound{
			round(1, state("a1")),
		}}, "rounds[0].agent_states"},
		{"duplicate agent", &types.SimulationResult{Rounds: []types.SimulationRound{
			round(1, state("a1"), state("a1")),
		}}, "rounds[0].agent_states[1]"},
		{"stranger", &types.SimulationResult{Rounds: []types.SimulationRound{
			round(1, state("a1"), state("zz")),
		}}, "rounds[0].agent_states[1]"},
		{"nan position", &types.SimulationResult{Rounds: []types.SimulationRound{
			round(1, state("a1"), types.AgentState{AttendeeID: "a2", Position: types.Position{X: math.NaN()}}),
		}}, "rounds[0].agent_states[1].position"},
		{"group stranger", &types.SimulationResult{Rounds: []types.SimulationRound{{
			RoundNumber: 1,
			AgentStates: []types.AgentState{state("a1"), state("a2")},
			Groups:      []types.Group{{ID: "g1", MemberIDs: []string{"a1", "zz"}}},
		}}}, "rounds[0].groups[0].member_ids"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.result, profiles)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}
}
