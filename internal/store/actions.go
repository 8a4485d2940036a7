package store

import "github.com/jonathan/velvet-rope/internal/types"

// Action is a state change understood by Reduce.
type Action interface {
	// Name identifies the action in logs.
	Name() string
}

// SetRawAttendees replaces the uploaded roster.
type SetRawAttendees struct{ Attendees []types.Attendee }

// SetEnrichedProfiles replaces the enriched profiles.
type SetEnrichedProfiles struct{ Profiles []types.EnrichedProfile }

// SetPitches replaces the pitches.
type SetPitches struct{ Pitches []types.Pitch }

// AddBiometricResult appends one attendee's result. Duplicates are rejected.
type AddBiometricResult struct{ Result types.BiometricResult }

// SetBiometricResults replaces every biometric result.
type SetBiometricResults struct{ Results []types.BiometricResult }

// SetGuestList replaces the guest list and the capacity that produced it.
type SetGuestList struct {
	Entries  []types.GuestListEntry
	Capacity int
}

// SetVenueConfig stores the venue.
type SetVenueConfig struct{ Config types.VenueConfig }

// SetDjConfig stores the DJ configuration.
type SetDjConfig struct{ Config types.DjConfig }

// SetSimulationResult stores a finished simulation.
type SetSimulationResult struct{ Result *types.SimulationResult }

// ClearSimulationResult drops any stored simulation.
type ClearSimulationResult struct{}

// Advance moves to the immediately following stage.
type Advance struct{ To types.Stage }

// Rewind returns from party to venue so the simulation can be rerun.
type Rewind struct{ To types.Stage }

// Reset returns to the initial empty state.
type Reset struct{}

// Name implements Action.
func (SetRawAttendees) Name() string { return "set_raw_attendees" }

// Name implements Action.
func (SetEnrichedProfiles) Name() string { return "set_enriched_profiles" }

// Name implements Action.
func (SetPitches) Name() string { return "set_pitches" }

// Name implements Action.
func (AddBiometricResult) Name() string { return "add_biometric_result" }

// Name implements Action.
func (SetBiometricResults) Name() string { return "set_biometric_results" }

// Name implements Action.
func (SetGuestList) Name() string { return "set_guest_list" }

// Name implements Action.
func (SetVenueConfig) Name() string { return "set_venue_config" }

// Name implements Action.
func (SetDjConfig) Name() string { return "set_dj_config" }

// Name implements Action.
func (SetSimulationResult) Name() string { return "set_simulation_result" }

// Name implements Action.
func (ClearSimulationResult) Name() string { return "clear_simulation_result" }

// Name implements Action.
func (Advance) Name() string { return "advance" }

// Name implements Action.
func (Rewind) Name() string { return "rewind" }

// Name implements Action.
func (Reset) Name() string { return "reset" }
