// Package types provides type definitions for structured data used throughout the velvet-rope pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "fmt"

// Stage is one of the seven ordered pipeline phases.
type Stage string

// Pipeline stages in their fixed order.
const (
	StageUpload    Stage = "upload"
	StageProfiles  Stage = "profiles"
	StagePitches   Stage = "pitches"
	StageBouncer   Stage = "bouncer"
	StageGuestList Stage = "guest-list"
	StageVenue     Stage = "venue"
	StageParty     Stage = "party"
)

// StageOrder lists every stage from first to last.
var StageOrder = []Stage{
	StageUpload,
	StageProfiles,
	StagePitches,
	StageBouncer,
	StageGuestList,
	StageVenue,
	StageParty,
}

// StageLabels are the display names shown by the CLI and API.
var StageLabels = map[Stage]string{
	StageUpload:    "The Line",
	StageProfiles:  "Dossiers",
	StagePitches:   "The Plea",
	StageBouncer:   "The Bouncer",
	StageGuestList: "The List",
	StageVenue:     "The Venue",
	StageParty:     "The Floor",
}

// Index returns the position of the stage in StageOrder, or -1 if unknown.
func (s Stage) Index() int {
	for i, st := range StageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	return s.Index() >= 0
}

// Next returns the stage that follows s. The final stage has no successor.
func (s Stage) Next() (Stage, bool) {
	idx := s.Index()
	if idx < 0 || idx+1 >= len(StageOrder) {
		return "", false
	}
	return StageOrder[idx+1], true
}

// Label returns the display label for the stage.
func (s Stage) Label() string {
	if label, ok := StageLabels[s]; ok {
		return label
	}
	return string(s)
}

// ParseStage converts a string into a Stage.
func ParseStage(raw string) (Stage, error) {
	s := Stage(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown stage: %q", raw)
	}
	return s, nil
}
