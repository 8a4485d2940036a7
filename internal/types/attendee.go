package types

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// ListDelimiter separates entries in the free-text list columns of an upload.
const ListDelimiter = ";"

// ConnectionStrength describes how warm the relationship with an attendee is.
type ConnectionStrength string

// Connection strengths accepted in uploads.
const (
	ConnectionCold ConnectionStrength = "cold"
	ConnectionWarm ConnectionStrength = "warm"
	ConnectionHot  ConnectionStrength = "hot"
)

// Attendee is the raw, immutable applicant record as uploaded.
type Attendee struct {
	ID                 string             `json:"id" validate:"required"`
	FirstName          string             `json:"first_name"`
	LastName           string             `json:"last_name"`
	Email              string             `json:"email" validate:"omitempty,email"`
	Company            string             `json:"company"`
	Title              string             `json:"title"`
	Industry           string             `json:"industry"`
	YearsExperience    int                `json:"years_experience" validate:"gte=0"`
	Skills             string             `json:"skills"`
	Interests          string             `json:"interests"`
	LinkedinURL        string             `json:"linkedin_url,omitempty"`
	Bio                string             `json:"bio"`
	ConnectionStrength ConnectionStrength `json:"connection_strength" validate:"omitempty,oneof=cold warm hot"`
	LastInteraction    string             `json:"last_interaction,omitempty"`
	DealValue          int                `json:"deal_value"`
	EventHistory       string             `json:"event_history"`
	PersonalityType    string             `json:"personality_type"`
	NetworkSize        int                `json:"network_size"`
	InfluenceScore     int                `json:"influence_score"`
	Notes              string             `json:"notes,omitempty"`
}

// Validate checks the attendee's struct tags.
func (a *Attendee) Validate() error {
	validate := validator.New()
	return validate.Struct(a)
}

// FullName joins first and last name.
func (a *Attendee) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// SplitList splits a delimiter-joined list column, trimming entries and dropping blanks.
func SplitList(raw string) []string {
	parts := strings.Split(raw, ListDelimiter)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
