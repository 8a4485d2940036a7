// Package pitches writes each admitted-hopeful's plea to the bouncer.
package pitches

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonathan/velvet-rope/internal/batch"
	"github.com/jonathan/velvet-rope/internal/llm"
	"github.com/jonathan/velvet-rope/internal/metrics"
	"github.com/jonathan/velvet-rope/internal/prompts"
	"github.com/jonathan/velvet-rope/internal/schemas"
	"github.com/jonathan/velvet-rope/internal/types"
)

// BatchSize is the number of profiles sent per generative call.
const BatchSize = 3

const artifact = "pitches"

// Generated is one element of the pitch response.
type Generated struct {
	AttendeeID   string   `json:"attendeeId"`
	PitchText    string   `json:"pitchText"`
	PitchTone    string   `json:"pitchTone"`
	KeyArguments []string `json:"keyArguments"`
}

// Candidate is a profile with its position in the full roster, which fixes its default tone.
type Candidate struct {
	Index   int
	Profile types.EnrichedProfile
}

// Tone is the round-robin tone for the candidate.
func (c Candidate) Tone() types.Tone {
	return types.ToneForIndex(c.Index)
}

// Candidates numbers profiles by roster position.
func Candidates(profiles []types.EnrichedProfile) []Candidate {
	out := make([]Candidate, len(profiles))
	for i, p := range profiles {
		out[i] = Candidate{Index: i, Profile: p}
	}
	return out
}

// Generator produces pitches. A nil Client means every batch falls back.
type Generator struct {
	Client      llm.Client
	Concurrency int
	Logger      *slog.Logger
	Metrics     *metrics.Manager
	Now         func() time.Time
	OnBatch     func(batch.Report)
}

// Generate returns one pitch per profile, in roster order. It never fails.
func (g *Generator) Generate(ctx context.Context, profiles []types.EnrichedProfile) []types.Pitch {
	logger := g.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now().UTC()
	if g.Now != nil {
		now = g.Now().UTC()
	}

	call := func(ctx context.Context, chunk []Candidate) ([]types.Pitch, error) {
		started := time.Now()
		items, err := Request(ctx, g.Client, chunk)
		g.Metrics.ExternalCall(artifact, outcomeOf(err), time.Since(started))
		if err != nil {
			return nil, err
		}
		return Merge(chunk, items, now), nil
	}

	fallback := func(chunk []Candidate, _ bool) []types.Pitch {
		g.Metrics.FallbackRecords(artifact, len(chunk))
		out := make([]types.Pitch, len(chunk))
		for i, c := range chunk {
			out[i] = Fallback(c, now)
		}
		return out
	}

	pitches, summary := batch.Run(ctx, Candidates(profiles), batch.Options{
		Size:        BatchSize,
		Concurrency: g.Concurrency,
		OnBatch: func(r batch.Report) {
			if r.Err != nil {
				logger.Warn("pitch batch fell back",
					slog.Int("batch", r.Index+1),
					slog.String("outcome", string(r.Outcome)),
					slog.Any("error", r.Err))
			}
			if g.OnBatch != nil {
				g.OnBatch(r)
			}
		},
	}, call, fallback)

	logger.Info("pitches generated",
		slog.Int("profiles", len(profiles)),
		slog.Int("batches", summary.Batches),
		slog.Int("generated_batches", summary.Generated),
		slog.Int("fallback_batches", summary.Soft+summary.Hard+summary.Skipped+summary.Discarded))
	return pitches
}

// Request sends one batch to the service and decodes the response.
func Request(ctx context.Context, client llm.Client, chunk []Candidate) ([]Generated, error) {
	if client == nil {
		return nil, &APICallError{Message: "no generative client configured"}
	}

	prompt, err := BuildPrompt(chunk)
	if err != nil {
		return nil, &APICallError{Message: "failed to build prompt", Cause: err}
	}

	raw, err := client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &APICallError{Message: "failed to generate pitches", Cause: err}
	}

	decoded := schemas.Decode[[]Generated](raw, schemas.Pitches)
	if !decoded.OK {
		return nil, &ParseError{Message: decoded.Reason}
	}
	return decoded.Value, nil
}

// BuildPrompt renders one line per candidate into the pitch prompt.
func BuildPrompt(chunk []Candidate) (string, error) {
	lines := make([]string, len(chunk))
	for i, c := range chunk {
		p := c.Profile
		line, err := prompts.Render(prompts.PitchesFile, "person-line", map[string]string{
			"ID":          p.ID,
			"Name":        p.FullName(),
			"Title":       p.Title,
			"Company":     p.Company,
			"Years":       fmt.Sprintf("%d", p.YearsExperience),
			"Industry":    p.Industry,
			"Skills":      strings.Join(p.ParsedSkills, ", "),
			"Bio":         p.Bio,
			"Personality": p.PersonalityType,
			"Tone":        string(c.Tone()),
		})
		if err != nil {
			return "", err
		}
		lines[i] = line
	}

	tones := make([]string, len(types.Tones))
	for i, t := range types.Tones {
		tones[i] = `"` + string(t) + `"`
	}

	return prompts.Render(prompts.PitchesFile, "generate-pitches", map[string]string{
		"People": strings.Join(lines, "\n\n"),
		"Tones":  strings.Join(tones, " or "),
	})
}

// Merge pairs candidates with their generated pitch by attendee id. A missing
// or empty pitch gets the fallback; an unknown tone gets the round-robin tone.
func Merge(chunk []Candidate, items []Generated, now time.Time) []types.Pitch {
	byID := make(map[string]Generated, len(items))
	for _, item := range items {
		byID[item.AttendeeID] = item
	}

	out := make([]types.Pitch, len(chunk))
	for i, c := range chunk {
		item, ok := byID[c.Profile.ID]
		if !ok || strings.TrimSpace(item.PitchText) == "" {
			out[i] = Fallback(c, now)
			continue
		}

		tone := types.Tone(strings.ToLower(strings.TrimSpace(item.PitchTone)))
		if !tone.Valid() {
			tone = c.Tone()
		}
		arguments := item.KeyArguments
		if len(arguments) == 0 {
			arguments = keyArguments(c.Profile)
		}

		out[i] = types.Pitch{
			AttendeeID:   c.Profile.ID,
			PitchText:    item.PitchText,
			PitchTone:    tone,
			KeyArguments: arguments,
			Source:       types.SourceGenerated,
			GeneratedAt:  now,
		}
	}
	return out
}

// Fallback is the fixed plea built from the profile's own fields.
func Fallback(c Candidate, now time.Time) types.Pitch {
	p := c.Profile
	text := fmt.Sprintf("Look, I know you've got a list, but hear me out. I'm %s %s, and I've spent %d years in %s. "+
		"I built %s from the ground up. My skills in %s aren't just resume padding; they're battle scars. "+
		"Let me in and I promise this event won't be the same without me. I didn't come all this way to stand outside.",
		p.FirstName, p.LastName, p.YearsExperience, p.Industry, p.Company, skillsPhrase(p.ParsedSkills))

	return types.Pitch{
		AttendeeID:   p.ID,
		PitchText:    text,
		PitchTone:    c.Tone(),
		KeyArguments: keyArguments(p),
		Source:       types.SourceFallback,
		GeneratedAt:  now,
	}
}

// skillsPhrase names up to two skills, or "experience" when none were parsed.
func skillsPhrase(skills []string) string {
	var named []string
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" {
			named = append(named, s)
		}
		if len(named) == 2 {
			break
		}
	}
	if len(named) == 0 {
		return "experience"
	}
	return strings.Join(named, " and ")
}

func keyArguments(p types.EnrichedProfile) []string {
	first := "experience"
	if s := p.FirstSkill(); s != "" {
		first = s
	}
	return []string{first, p.UniqueValue, fmt.Sprintf("%d years of expertise", p.YearsExperience)}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeGenerated
	case batch.IsSoft(err):
		return metrics.OutcomeSoftFailure
	default:
		return metrics.OutcomeHardFailure
	}
}
