package types

import "time"

// StateVersion is bumped whenever the persisted PipelineState layout changes.
const StateVersion = 1

// PipelineState is the aggregate root holding every artifact of a run.
type PipelineState struct {
	Version          int               `json:"version"`
	CurrentStage     Stage             `json:"current_stage"`
	RawAttendees     []Attendee        `json:"raw_attendees"`
	EnrichedProfiles []EnrichedProfile `json:"enriched_profiles"`
	Pitches          []Pitch           `json:"pitches"`
	BiometricResults []BiometricResult `json:"biometric_results"`
	GuestList        []GuestListEntry  `json:"guest_list"`
	Capacity         int               `json:"capacity"`
	VenueConfig      *VenueConfig      `json:"venue_config"`
	DjConfig         *DjConfig         `json:"dj_config"`
	SimulationResult *SimulationResult `json:"simulation_result"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// NewPipelineState returns the initial empty state at the upload stage.
func NewPipelineState() PipelineState {
	return PipelineState{
		Version:          StateVersion,
		CurrentStage:     StageUpload,
		RawAttendees:     []Attendee{},
		EnrichedProfiles: []EnrichedProfile{},
		Pitches:          []Pitch{},
		BiometricResults: []BiometricResult{},
		GuestList:        []GuestListEntry{},
	}
}

// PitchFor returns the pitch for an attendee.
func (s PipelineState) PitchFor(attendeeID string) (Pitch, bool) {
	for _, p := range s.Pitches {
		if p.AttendeeID == attendeeID {
			return p, true
		}
	}
	return Pitch{}, false
}

// HasBiometricResult reports whether the attendee has already been vetted.
func (s PipelineState) HasBiometricResult(attendeeID string) bool {
	for _, r := range s.BiometricResults {
		if r.AttendeeID == attendeeID {
			return true
		}
	}
	return false
}

// AdmittedCount counts admitted guest-list entries.
func (s PipelineState) AdmittedCount() int {
	n := 0
	for _, e := range s.GuestList {
		if e.Admitted {
			n++
		}
	}
	return n
}
