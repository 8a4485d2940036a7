// Package steps defines the pipeline stages and the artifacts each one needs
// before it may be entered.
package steps

import (
	"fmt"
	"strings"

	"github.com/jonathan/velvet-rope/internal/types"
)

// Stage categories.
const (
	CategoryIntake     = "intake"
	CategoryGeneration = "generation"
	CategoryVetting    = "vetting"
	CategoryEvent      = "event"
)

// Requirement is one artifact a stage needs, checked against the current state.
type Requirement struct {
	Name  string
	Check func(state *types.PipelineState) bool
}

// StageDefinition defines metadata for a pipeline stage.
type StageDefinition struct {
	Name     types.Stage
	Category string
	Requires []Requirement
}

var (
	rawAttendees = Requirement{"raw attendees", func(s *types.PipelineState) bool {
		return len(s.RawAttendees) > 0
	}}
	enrichedProfiles = Requirement{"enriched profiles", func(s *types.PipelineState) bool {
		return len(s.EnrichedProfiles) > 0
	}}
	pitches = Requirement{"pitches", func(s *types.PipelineState) bool {
		return len(s.Pitches) > 0
	}}
	biometricResults = Requirement{"biometric results", func(s *types.PipelineState) bool {
		return len(s.BiometricResults) > 0
	}}
	admittedGuests = Requirement{"admitted guests", func(s *types.PipelineState) bool {
		return s.AdmittedCount() > 0
	}}
	venueConfig = Requirement{"venue config", func(s *types.PipelineState) bool {
		return s.VenueConfig != nil
	}}
	djConfig = Requirement{"dj config", func(s *types.PipelineState) bool {
		return s.DjConfig != nil
	}}
	simulationResult = Requirement{"simulation result", func(s *types.PipelineState) bool {
		return s.SimulationResult != nil && len(s.SimulationResult.Rounds) > 0
	}}
)

// StageRegistry holds every stage definition.
var StageRegistry = map[types.Stage]StageDefinition{
	types.StageUpload:    {Name: types.StageUpload, Category: CategoryIntake},
	types.StageProfiles:  {Name: types.StageProfiles, Category: CategoryGeneration, Requires: []Requirement{rawAttendees}},
	types.StagePitches:   {Name: types.StagePitches, Category: CategoryGeneration, Requires: []Requirement{enrichedProfiles}},
	types.StageBouncer:   {Name: types.StageBouncer, Category: CategoryVetting, Requires: []Requirement{pitches}},
	types.StageGuestList: {Name: types.StageGuestList, Category: CategoryVetting, Requires: []Requirement{biometricResults}},
	types.StageVenue:     {Name: types.StageVenue, Category: CategoryEvent, Requires: []Requirement{admittedGuests}},
	types.StageParty:     {Name: types.StageParty, Category: CategoryEvent, Requires: []Requirement{venueConfig, djConfig}},
}

// ReplayRequirement gates replaying the party.
var ReplayRequirement = simulationResult

// DependencyError represents a stage whose inputs do not exist yet.
type DependencyError struct {
	Stage               types.Stage
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("cannot enter %s: missing %s", e.Stage, strings.Join(e.MissingDependencies, ", "))
}

// ValidateDependencies checks that every artifact the stage needs is present.
func ValidateDependencies(state *types.PipelineState, stage types.Stage) error {
	def, ok := StageRegistry[stage]
	if !ok {
		return fmt.Errorf("unknown stage: %s", stage)
	}

	var missing []string
	for _, req := range def.Requires {
		if !req.Check(state) {
			missing = append(missing, req.Name)
		}
	}
	if len(missing) > 0 {
		return &DependencyError{Stage: stage, MissingDependencies: missing}
	}
	return nil
}

// Require checks a single requirement outside of stage entry.
func Require(state *types.PipelineState, stage types.Stage, req Requirement) error {
	if req.Check(state) {
		return nil
	}
	return &DependencyError{Stage: stage, MissingDependencies: []string{req.Name}}
}
