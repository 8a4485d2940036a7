package types

import "time"

// Source records whether an artifact came from the generative service or a local fallback.
type Source string

// Artifact sources.
const (
	SourceGenerated Source = "generated"
	SourceFallback  Source = "fallback"
)

// EnrichedProfile is an Attendee plus derived and generated fields.
type EnrichedProfile struct {
	Attendee
	ParsedSkills           []string  `json:"parsed_skills"`
	ParsedInterests        []string  `json:"parsed_interests"`
	ParsedEventHistory     []string  `json:"parsed_event_history"`
	AvatarURL              string    `json:"avatar_url"`
	ProfileSummary         string    `json:"profile_summary"`
	UniqueValue            string    `json:"unique_value"`
	PotentialContributions []string  `json:"potential_contributions"`
	Source                 Source    `json:"source"`
	GeneratedAt            time.Time `json:"generated_at"`
}

// FirstSkill returns the first parsed skill or an empty string.
func (p *EnrichedProfile) FirstSkill() string {
	if len(p.ParsedSkills) == 0 {
		return ""
	}
	return p.ParsedSkills[0]
}

// FirstInterest returns the first parsed interest or an empty string.
func (p *EnrichedProfile) FirstInterest() string {
	if len(p.ParsedInterests) == 0 {
		return ""
	}
	return p.ParsedInterests[0]
}
