package store

import (
	"fmt"
	"slices"

	"github.com/jonathan/velvet-rope/internal/types"
)

// Reduce computes the state that results from applying action to state.
// The input state is never modified; slices are replaced, not appended to in place.
func Reduce(state types.PipelineState, action Action) (types.PipelineState, error) {
	next := state

	switch a := action.(type) {
	case SetRawAttendees:
		next.RawAttendees = clone(a.Attendees)
	case SetEnrichedProfiles:
		next.EnrichedProfiles = clone(a.Profiles)
	case SetPitches:
		next.Pitches = clone(a.Pitches)
	case AddBiometricResult:
		if state.HasBiometricResult(a.Result.AttendeeID) {
			return state, &DuplicateResultError{AttendeeID: a.Result.AttendeeID}
		}
		next.BiometricResults = append(slices.Clone(state.BiometricResults), a.Result)
	case SetBiometricResults:
		next.BiometricResults = clone(a.Results)
	case SetGuestList:
		next.GuestList = clone(a.Entries)
		next.Capacity = a.Capacity
		next.SimulationResult = nil
	case SetVenueConfig:
		cfg := a.Config
		next.VenueConfig = &cfg
		next.SimulationResult = nil
	case SetDjConfig:
		cfg := a.Config
		cfg.Rules = slices.Clone(cfg.Rules)
		next.DjConfig = &cfg
		next.SimulationResult = nil
	case SetSimulationResult:
		next.SimulationResult = a.Result
	case ClearSimulationResult:
		next.SimulationResult = nil
	case Advance:
		want, ok := state.CurrentStage.Next()
		if !ok || want != a.To {
			return state, &TransitionError{From: state.CurrentStage, To: a.To, Kind: "advance"}
		}
		next.CurrentStage = a.To
	case Rewind:
		if state.CurrentStage != types.StageParty || a.To != types.StageVenue {
			return state, &TransitionError{From: state.CurrentStage, To: a.To, Kind: "rewind"}
		}
		next.CurrentStage = a.To
		next.SimulationResult = nil
	case Reset:
		next = types.NewPipelineState()
	default:
		return state, fmt.Errorf("unknown action %T", action)
	}

	return next, nil
}

func clone[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return slices.Clone(in)
}
