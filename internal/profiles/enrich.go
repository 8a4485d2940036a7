// Package profiles turns uploaded attendees into enriched profiles, asking the
// generative service for summaries in batches and filling gaps locally.
package profiles

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonathan/velvet-rope/internal/avatar"
	"github.com/jonathan/velvet-rope/internal/batch"
	"github.com/jonathan/velvet-rope/internal/llm"
	"github.com/jonathan/velvet-rope/internal/metrics"
	"github.com/jonathan/velvet-rope/internal/prompts"
	"github.com/jonathan/velvet-rope/internal/schemas"
	"github.com/jonathan/velvet-rope/internal/types"
)

// BatchSize is the number of attendees sent per generative call.
const BatchSize = 5

const artifact = "profiles"

// Generated is one element of the enrichment response.
type Generated struct {
	ID                     string   `json:"id"`
	ProfileSummary         string   `json:"profileSummary"`
	UniqueValue            string   `json:"uniqueValue"`
	PotentialContributions []string `json:"potentialContributions"`
}

// request is one attendee as sent to the service.
type request struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	Company   string `json:"company"`
	Industry  string `json:"industry"`
	Years     int    `json:"yearsExperience"`
	Skills    string `json:"skills"`
	Interests string `json:"interests"`
	Bio       string `json:"bio"`
}

// Generator enriches attendees. A nil Client means every batch falls back.
type Generator struct {
	Client      llm.Client
	Concurrency int
	Logger      *slog.Logger
	Metrics     *metrics.Manager
	Now         func() time.Time
	// OnBatch observes each finished batch.
	OnBatch func(batch.Report)
}

// Generate returns one enriched profile per attendee, in input order.
// It never fails; unusable responses are replaced by local fallbacks.
func (g *Generator) Generate(ctx context.Context, attendees []types.Attendee) []types.EnrichedProfile {
	logger := g.logger()
	now := g.now()

	call := func(ctx context.Context, chunk []types.Attendee) ([]types.EnrichedProfile, error) {
		started := time.Now()
		items, err := Enrich(ctx, g.Client, chunk)
		g.Metrics.ExternalCall(artifact, outcomeOf(err), time.Since(started))
		if err != nil {
			return nil, err
		}
		return Merge(chunk, items, now), nil
	}

	fallback := func(chunk []types.Attendee, hard bool) []types.EnrichedProfile {
		g.Metrics.FallbackRecords(artifact, len(chunk))
		out := make([]types.EnrichedProfile, len(chunk))
		for i, a := range chunk {
			out[i] = Fallback(a, hard, now)
		}
		return out
	}

	profiles, summary := batch.Run(ctx, attendees, batch.Options{
		Size:        BatchSize,
		Concurrency: g.Concurrency,
		OnBatch: func(r batch.Report) {
			if r.Err != nil {
				logger.Warn("profile batch fell back",
					slog.Int("batch", r.Index+1),
					slog.String("outcome", string(r.Outcome)),
					slog.Any("error", r.Err))
			}
			if g.OnBatch != nil {
				g.OnBatch(r)
			}
		},
	}, call, fallback)

	logger.Info("profiles generated",
		slog.Int("attendees", len(attendees)),
		slog.Int("batches", summary.Batches),
		slog.Int("generated_batches", summary.Generated),
		slog.Int("soft_failures", summary.Soft),
		slog.Int("hard_failures", summary.Hard+summary.Skipped+summary.Discarded))
	return profiles
}

// Enrich sends one batch to the service and decodes the response.
func Enrich(ctx context.Context, client llm.Client, chunk []types.Attendee) ([]Generated, error) {
	if client == nil {
		return nil, &APICallError{Message: "no generative client configured"}
	}

	prompt, err := BuildPrompt(chunk)
	if err != nil {
		return nil, &APICallError{Message: "failed to build prompt", Cause: err}
	}

	raw, err := client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return nil, &APICallError{Message: "failed to enrich profiles", Cause: err}
	}

	decoded := schemas.Decode[[]Generated](raw, schemas.Enrichment)
	if !decoded.OK {
		return nil, &ParseError{Message: decoded.Reason}
	}
	return decoded.Value, nil
}

// BuildPrompt renders the enrichment prompt for a batch.
func BuildPrompt(chunk []types.Attendee) (string, error) {
	people := make([]request, len(chunk))
	for i, a := range chunk {
		people[i] = request{
			ID:        a.ID,
			Name:      a.FullName(),
			Title:     a.Title,
			Company:   a.Company,
			Industry:  a.Industry,
			Years:     a.YearsExperience,
			Skills:    a.Skills,
			Interests: a.Interests,
			Bio:       a.Bio,
		}
	}
	data, err := json.Marshal(people)
	if err != nil {
		return "", err
	}

	return prompts.Render(prompts.ProfilesFile, "enrich-profiles", map[string]string{
		"People":    string(data),
		"EventKind": "an AI hackathon",
	})
}

// Merge pairs each attendee with its generated record by id. Attendees the
// response skipped, or whose record is blank, get the per-record fallback.
func Merge(chunk []types.Attendee, items []Generated, now time.Time) []types.EnrichedProfile {
	byID := make(map[string]Generated, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	out := make([]types.EnrichedProfile, len(chunk))
	for i, a := range chunk {
		item, ok := byID[a.ID]
		if !ok || strings.TrimSpace(item.ProfileSummary) == "" {
			out[i] = Fallback(a, false, now)
			continue
		}

		profile := base(a, now)
		profile.ProfileSummary = item.ProfileSummary
		profile.UniqueValue = orDefault(item.UniqueValue, uniqueValue(a))
		profile.PotentialContributions = item.PotentialContributions
		if len(profile.PotentialContributions) == 0 {
			profile.PotentialContributions = contributions(a)
		}
		profile.Source = types.SourceGenerated
		out[i] = profile
	}
	return out
}

// Fallback builds a profile from the raw fields alone. When the whole service
// failed (hard) the summary is always the raw-field sentence; otherwise the
// attendee's own bio is preferred when present.
func Fallback(a types.Attendee, hard bool, now time.Time) types.EnrichedProfile {
	profile := base(a, now)
	profile.ProfileSummary = rawSummary(a)
	if !hard && strings.TrimSpace(a.Bio) != "" {
		profile.ProfileSummary = a.Bio
	}
	profile.UniqueValue = uniqueValue(a)
	profile.PotentialContributions = contributions(a)
	profile.Source = types.SourceFallback
	return profile
}

func base(a types.Attendee, now time.Time) types.EnrichedProfile {
	return types.EnrichedProfile{
		Attendee:           a,
		ParsedSkills:       types.SplitList(a.Skills),
		ParsedInterests:    types.SplitList(a.Interests),
		ParsedEventHistory: types.SplitList(a.EventHistory),
		AvatarURL:          avatar.For(a),
		GeneratedAt:        now,
	}
}

func rawSummary(a types.Attendee) string {
	return fmt.Sprintf("%s at %s with %d years in %s", a.Title, a.Company, a.YearsExperience, a.Industry)
}

func uniqueValue(a types.Attendee) string {
	return fmt.Sprintf("%s at %s", a.Title, a.Company)
}

func contributions(a types.Attendee) []string {
	var out []string
	if skills := types.SplitList(a.Skills); len(skills) > 0 {
		out = append(out, skills[0])
	}
	if interests := types.SplitList(a.Interests); len(interests) > 0 {
		out = append(out, interests[0])
	}
	return append(out, fmt.Sprintf("%d years of %s perspective", a.YearsExperience, a.Industry))
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

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now().UTC()
	}
	return time.Now().UTC()
}
