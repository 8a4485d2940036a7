package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/velvet-rope/internal/types"
)

func TestStageRegistry(t *testing.T) {
	for _, stage := range types.StageOrder {
		def, ok := StageRegistry[stage]
		require.True(t, ok, "stage %s should be in registry", stage)
		assert.Equal(t, stage, def.Name)
		assert.NotEmpty(t, def.Category)
	}
	assert.Len(t, StageRegistry, len(types.StageOrder))
}

func TestValidateDependencies(t *testing.T) {
	empty := types.NewPipelineState()

	full := types.NewPipelineState()
	full.RawAttendees = []types.Attendee{{ID: "1"}}
	full.EnrichedProfiles = []types.EnrichedProfile{{Attendee: types.Attendee{ID: "1"}}}
	full.Pitches = []types.Pitch{{AttendeeID: "1"}}
	full.BiometricResults = []types.BiometricResult{{AttendeeID: "1"}}
	full.GuestList = []types.GuestListEntry{{Rank: 1, Admitted: true}}
	venue := types.DefaultVenueConfig(1)
	dj := types.DefaultDjConfig()
	full.VenueConfig = &venue
	full.DjConfig = &dj

	tests := []struct {
		stage   types.Stage
		missing []string
	}{
		{types.StageUpload, nil},
		{types.StageProfiles, []string{"raw attendees"}},
		{types.StagePitches, []string{"enriched profiles"}},
		{types.StageBouncer, []string{"pitches"}},
		{types.StageGuestList, []string{"biometric results"}},
		{types.StageVenue, []string{"admitted guests"}},
		{types.StageParty, []string{"venue config", "dj config"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			assert.NoError(t, ValidateDependencies(&full, tt.stage))

			err := ValidateDependencies(&empty, tt.stage)
			if tt.missing == nil {
				assert.NoError(t, err)
				return
			}
			var depErr *DependencyError
			require.ErrorAs(t, err, &depErr)
			assert.Equal(t, tt.stage, depErr.Stage)
			assert.Equal(t, tt.missing, depErr.MissingDependencies)
		})
	}
}

func TestValidateDependencies_NoneAdmitted(t *testing.T) {
	state := types.NewPipelineState()
	state.GuestList = []types.GuestListEntry{{Rank: 1}, {Rank: 2}}

	err := ValidateDependencies(&state, types.StageVenue)
	var depErr *DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Contains(t, err.Error(), "admitted guests")
}

func TestValidateDependencies_UnknownStage(t *testing.T) {
	state := types.NewPipelineState()
	err := ValidateDependencies(&state, "afterparty")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stage")
}

func TestRequire(t *testing.T) {
	state := types.NewPipelineState()
	err := Require(&state, types.StageParty, ReplayRequirement)
	var depErr *DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, []string{"simulation result"}, depErr.MissingDependencies)

	state.SimulationResult = &types.SimulationResult{Rounds: []types.SimulationRound{{RoundNumber: 1}}}
	assert.NoError(t, Require(&state, types.StageParty, ReplayRequirement))
}
