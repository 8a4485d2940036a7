package simulation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/velvet-rope/internal/llm"
	"github.com/jonathan/velvet-rope/internal/prompts"
	"github.com/jonathan/velvet-rope/internal/schemas"
	"github.com/jonathan/velvet-rope/internal/types"
)

// Remote asks the generative service to simulate the party for the admitted roster.
// It returns *APICallError when the call itself fails, *ParseError when the output
// is not a usable simulation document, and *ValidationError when the document
// does not match the roster. now stamps the result; nil uses the wall clock.
func Remote(ctx context.Context, client llm.Client, roster []types.EnrichedProfile, venue types.VenueConfig, dj types.DjConfig, now func() time.Time) (*types.SimulationResult, error) {
	if client == nil {
		return nil, &APICallError{Message: "no generative client configured"}
	}

	prompt, err := BuildPrompt(roster, venue, dj)
	if err != nil {
		return nil, &APICallError{Message: "failed to build prompt", Cause: err}
	}

	raw, err := client.GenerateJSON(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return nil, &APICallError{Message: "failed to generate simulation", Cause: err}
	}

	decoded := schemas.Decode[types.SimulationResult](raw, schemas.Simulation)
	if !decoded.OK {
		return nil, &ParseError{Message: decoded.Reason}
	}

	result := decoded.Value
	if err := Validate(&result, roster); err != nil {
		return nil, err
	}
	result.Source = types.SourceGenerated
	result.Seed = 0
	if now == nil {
		now = time.Now
	}
	result.GeneratedAt = now().UTC()
	return &result, nil
}

// BuildPrompt renders the simulation prompt for the roster and configuration.
func BuildPrompt(roster []types.EnrichedProfile, venue types.VenueConfig, dj types.DjConfig) (string, error) {
	lineTemplate, err := prompts.Get(prompts.SimulationFile, "agent-line")
	if err != nil {
		return "", err
	}

	agents := make([]string, len(roster))
	for i, p := range roster {
		agents[i] = prompts.Format(lineTemplate, map[string]string{
			"Name":        p.FullName(),
			"ID":          p.ID,
			"Title":       p.Title,
			"Company":     p.Company,
			"Personality": p.PersonalityType,
			"Skills":      strings.Join(p.ParsedSkills, ", "),
			"Interests":   strings.Join(p.ParsedInterests, ", "),
			"Summary":     p.ProfileSummary,
		})
	}

	rounds := dj.Rounds
	if rounds <= 0 {
		rounds = DefaultRounds
	}

	return prompts.Render(prompts.SimulationFile, "simulate-party", map[string]string{
		"VenueName":        venue.Name,
		"VenueType":        string(venue.Type),
		"VenueDescription": venue.Description,
		"Theme":            dj.Theme,
		"Goal":             dj.Goal,
		"Dynamics":         string(dj.Dynamics),
		"Icebreaker":       dj.Icebreaker,
		"Rules":            strings.Join(dj.Rules, "; "),
		"AgentCount":       fmt.Sprintf("%d", len(roster)),
		"Agents":           strings.Join(agents, "\n"),
		"Rounds":           fmt.Sprintf("%d", rounds),
	})
}
