package simulation

import (
	"fmt"
	"math"

	"github.com/jonathan/velvet-rope/internal/types"
)

// Validate checks an externally produced result against the admitted roster
// and normalizes the fields that can be repaired in place: positions and
// scores are clamped, TotalRounds is recomputed, and empty FinalGroups are
// taken from the last round. Structural problems return a *ValidationError.
func Validate(result *types.SimulationResult, roster []types.EnrichedProfile) error {
	if result == nil {
		return &ValidationError{Message: "result is empty"}
	}
	if len(result.Rounds) == 0 {
		return &ValidationError{Field: "rounds", Message: "no rounds returned"}
	}

	known := make(map[string]bool, len(roster))
	for _, p := range roster {
		known[p.ID] = true
	}

	for i := range result.Rounds {
		round := &result.Rounds[i]
		if round.RoundNumber != i+1 {
			return &ValidationError{
				Field:   fmt.Sprintf("rounds[%d].round_number", i),
				Message: fmt.Sprintf("expected %d, got %d", i+1, round.RoundNumber),
			}
		}

		seen := make(map[string]bool, len(round.AgentStates))
		for j := range round.AgentStates {
			state := &round.AgentStates[j]
			if !known[state.AttendeeID] {
				return &ValidationError{
					Field:   fmt.Sprintf("rounds[%d].agent_states[%d]", i, j),
					Message: fmt.Sprintf("unknown attendee %q", state.AttendeeID),
				}
			}
			if seen[state.AttendeeID] {
				return &ValidationError{
					Field:   fmt.Sprintf("rounds[%d].agent_states[%d]", i, j),
					Message: fmt.Sprintf("attendee %q listed twice", state.AttendeeID),
				}
			}
			seen[state.AttendeeID] = true

			if !finite(state.Position.X) || !finite(state.Position.Y) {
				return &ValidationError{
					Field:   fmt.Sprintf("rounds[%d].agent_states[%d].position", i, j),
					Message: "position is not a finite number",
				}
			}
			state.Position.X = clampUnit(state.Position.X)
			state.Position.Y = clampUnit(state.Position.Y)
			state.EnergyLevel = clampScore(state.EnergyLevel)
			state.Satisfaction = clampScore(state.Satisfaction)
		}
		if len(seen) != len(known) {
			return &ValidationError{
				Field:   fmt.Sprintf("rounds[%d].agent_states", i),
				Message: fmt.Sprintf("expected %d attendees, got %d", len(known), len(seen)),
			}
		}

		if err := checkGroups(round.Groups, known, fmt.Sprintf("rounds[%d].groups", i)); err != nil {
			return err
		}
	}

	if len(result.FinalGroups) == 0 {
		result.FinalGroups = copyGroups(result.Rounds[len(result.Rounds)-1].Groups)
	}
	if err := checkGroups(result.FinalGroups, known, "final_groups"); err != nil {
		return err
	}

	result.TotalRounds = len(result.Rounds)
	return nil
}

func checkGroups(groups []types.Group, known map[string]bool, field string) error {
	for i := range groups {
		for _, id := range groups[i].MemberIDs {
			if !known[id] {
				return &ValidationError{
					Field:   fmt.Sprintf("%s[%d].member_ids", field, i),
					Message: fmt.Sprintf("unknown attendee %q", id),
				}
			}
		}
		groups[i].Cohesion = clampScore(groups[i].Cohesion)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
