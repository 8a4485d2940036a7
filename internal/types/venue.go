package types

import "github.com/go-playground/validator/v10"

// VenueType is the kind of space the simulated event runs in.
type VenueType string

// Venue types.
const (
	VenueConference VenueType = "conference"
	VenueWorkshop   VenueType = "workshop"
	VenueNetworking VenueType = "networking"
	VenueHackathon  VenueType = "hackathon"
	VenueRoundtable VenueType = "roundtable"
)

// Dynamics is the interaction style the DJ imposes.
type Dynamics string

// DJ dynamics.
const (
	DynamicsCompetitive   Dynamics = "competitive"
	DynamicsCollaborative Dynamics = "collaborative"
	DynamicsSpeedDating   Dynamics = "speed-dating"
	DynamicsOpenFloor     Dynamics = "open-floor"
	DynamicsStructured    Dynamics = "structured"
)

// MaxRounds bounds the simulation length a DJ can request.
const MaxRounds = 20

// VenueConfig describes the simulated space.
type VenueConfig struct {
	Name        string    `json:"name" validate:"required"`
	Type        VenueType `json:"type" validate:"required,oneof=conference workshop networking hackathon roundtable"`
	Capacity    int       `json:"capacity" validate:"gte=0"`
	Description string    `json:"description"`
}

// DjConfig describes how the DJ steers the simulated event.
type DjConfig struct {
	Theme      string   `json:"theme" validate:"required"`
	Goal       string   `json:"goal" validate:"required"`
	Dynamics   Dynamics `json:"dynamics" validate:"required,oneof=competitive collaborative speed-dating open-floor structured"`
	Rounds     int      `json:"rounds" validate:"gte=1,lte=20"`
	Rules      []string `json:"rules"`
	Icebreaker string   `json:"icebreaker"`
}

// Validate checks the venue's struct tags.
func (v *VenueConfig) Validate() error {
	validate := validator.New()
	return validate.Struct(v)
}

// Validate checks the DJ config's struct tags.
func (d *DjConfig) Validate() error {
	validate := validator.New()
	return validate.Struct(d)
}

// DefaultVenueConfig is the venue offered when none has been configured yet.
func DefaultVenueConfig(admitted int) VenueConfig {
	return VenueConfig{
		Name:        "The Loft",
		Type:        VenueHackathon,
		Capacity:    admitted,
		Description: "An intimate rooftop space in Manhattan with panoramic city views.",
	}
}

// DefaultDjConfig is the DJ setup offered when none has been configured yet.
func DefaultDjConfig() DjConfig {
	return DjConfig{
		Theme:    "AI-Powered Solutions for Real-World Problems",
		Goal:     "Generate 5 viable startup ideas that combine the attendees' diverse expertise into novel AI applications.",
		Dynamics: DynamicsCollaborative,
		Rounds:   5,
		Rules: []string{
			"Each person must contribute their unique domain expertise",
			"Groups should have diverse skill sets",
		},
		Icebreaker: "What's the most broken process you've seen in your industry that AI could fix?",
	}
}
