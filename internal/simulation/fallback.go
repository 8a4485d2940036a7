// Package simulation produces and replays multi-round social simulations of the admitted guests.
package simulation

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/jonathan/velvet-rope/internal/types"
)

const (
	// DefaultRounds is used when the DJ config does not name a round count.
	DefaultRounds = 5
	// DefaultJitter is the amplitude of the per-round positional wobble.
	DefaultJitter = 0.03

	minGroupSize     = 2
	groupsPerRoster  = 3
	cohesionBase     = 60
	cohesionSpread   = 30
	convergenceShare = 0.6
	minConvergence   = 3.0

	energyStart       = 80
	energyDecay       = 3
	satisfactionStart = 50
	satisfactionGain  = 8
	noiseSpread       = 10

	scatterMin  = 0.05
	scatterSpan = 0.85
	targetMin   = 0.02
	targetMax   = 0.98
)

var moods = []string{"excited", "curious", "engaged", "focused", "energized"}

var narrativeBank = map[tier][]string{
	tierEarly: {
		"Round %d: The attendees drift through the room, trading introductions and sizing each other up. Energy in the room is building.",
		"Round %d: Small clusters start to form around the bar as people hunt for shared interests. Energy in the room is building.",
	},
	tierMid: {
		"Round %d: Groups are forming around shared interests and complementary skills. Energy in the room is at its peak.",
		"Round %d: Ideas bounce between tables and the first sketches hit the whiteboards. Energy in the room is at its peak.",
	},
	tierLate: {
		"Round %d: The groups settle in and start turning conversation into output. The room is settling into productive focus.",
		"Round %d: Final touches land on each group's work while the DJ brings the volume down. The room is settling into productive focus.",
	},
}

type tier int

const (
	tierEarly tier = iota
	tierMid
	tierLate
)

func tierFor(round int) tier {
	switch {
	case round < 2:
		return tierEarly
	case round < 4:
		return tierMid
	default:
		return tierLate
	}
}

// Options tune the fallback generator.
type Options struct {
	// Scatter samples each agent's starting point uniformly instead of using the index formula.
	Scatter bool
	// Jitter overrides DefaultJitter. Use NoJitter for exact positions.
	Jitter float64
	// NoJitter disables the positional wobble entirely.
	NoJitter bool
}

// Generator is the deterministic, dependency-free simulation engine.
// A non-zero Seed makes output byte-reproducible; zero seeds from the clock.
type Generator struct {
	Seed uint64
	Now  func() time.Time
}

// NewGenerator creates a generator with the given seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{Seed: seed}
}

// GroupSize returns the contiguous group size for a roster.
func GroupSize(rosterSize int) int {
	return max(minGroupSize, int(math.Ceil(float64(rosterSize)/groupsPerRoster)))
}

// Progress is the interpolation fraction for 0-based round r of n.
func Progress(r, n int) float64 {
	return math.Min(1, float64(r+1)/math.Max(minConvergence, float64(n)*convergenceShare))
}

// Generate builds a full simulation for the roster.
func (g *Generator) Generate(profiles []types.EnrichedProfile, rounds int, opts Options) *types.SimulationResult {
	if rounds <= 0 {
		rounds = DefaultRounds
	}
	seed := g.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	jitter := DefaultJitter
	if opts.Jitter > 0 {
		jitter = opts.Jitter
	}
	if opts.NoJitter {
		jitter = 0
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d))

	groupSize := GroupSize(len(profiles))
	groups := buildGroups(profiles, groupSize, rng)

	targets := make([]types.Position, len(profiles))
	initials := make([]types.Position, len(profiles))
	for idx := range profiles {
		targets[idx] = TargetPosition(idx, groupSize)
		if opts.Scatter {
			initials[idx] = types.Position{
				X: scatterMin + rng.Float64()*scatterSpan,
				Y: scatterMin + rng.Float64()*scatterSpan,
			}
		} else {
			initials[idx] = InitialPosition(idx)
		}
	}

	converged := false
	out := make([]types.SimulationRound, 0, rounds)
	for r := 0; r < rounds; r++ {
		p := Progress(r, rounds)

		states := make([]types.AgentState, len(profiles))
		for idx, profile := range profiles {
			pos := types.Position{
				X: initials[idx].X + (targets[idx].X-initials[idx].X)*p,
				Y: initials[idx].Y + (targets[idx].Y-initials[idx].Y)*p,
			}
			if jitter > 0 {
				phase := float64(r + idx)
				pos.X += math.Sin(phase) * jitter
				pos.Y += math.Cos(phase*1.3) * jitter
			}
			pos.X = clampUnit(pos.X)
			pos.Y = clampUnit(pos.Y)

			groupID := groups[idx/groupSize].ID
			states[idx] = types.AgentState{
				AttendeeID:     profile.ID,
				Position:       pos,
				CurrentGroupID: &groupID,
				Mood:           moods[r%len(moods)],
				EnergyLevel:    clampScore(energyStart - r*energyDecay + rng.IntN(noiseSpread)),
				Satisfaction:   clampScore(satisfactionStart + r*satisfactionGain + rng.IntN(noiseSpread)),
			}
		}

		events := roundEvents(r, p >= 1 && !converged, groups, profiles)
		if p >= 1 {
			converged = true
		}

		bank := narrativeBank[tierFor(r)]
		out = append(out, types.SimulationRound{
			RoundNumber: r + 1,
			AgentStates: states,
			Groups:      copyGroups(groups),
			Narrative:   fmt.Sprintf(bank[r%len(bank)], r+1),
			Events:      events,
		})
	}

	return &types.SimulationResult{
		Rounds:           out,
		FinalGroups:      copyGroups(groups),
		AggregatedOutput: aggregatedOutput(groups, profiles),
		TotalRounds:      rounds,
		Source:           types.SourceFallback,
		Seed:             seed,
		GeneratedAt:      now().UTC(),
	}
}

// TargetPosition is where agent idx settles: groups tile the floor in diagonal
// bands and members cluster in a small grid inside their band.
func TargetPosition(idx, groupSize int) types.Position {
	group := idx / groupSize
	member := idx % groupSize
	return types.Position{
		X: clamp(0.1+float64(group)*0.3+float64(member%4)*0.05, targetMin, targetMax),
		Y: clamp(0.2+float64(group)*0.25+float64(member/4)*0.04, targetMin, targetMax),
	}
}

// InitialPosition is the index-based starting point used without scatter.
func InitialPosition(idx int) types.Position {
	_, fx := math.Modf(float64(idx) * 0.618034)
	_, fy := math.Modf(float64(idx)*0.381966 + 0.5)
	return types.Position{
		X: scatterMin + fx*scatterSpan,
		Y: scatterMin + fy*scatterSpan,
	}
}

func buildGroups(profiles []types.EnrichedProfile, groupSize int, rng *rand.Rand) []types.Group {
	var groups []types.Group
	for start := 0; start < len(profiles); start += groupSize {
		end := min(start+groupSize, len(profiles))
		members := profiles[start:end]

		ids := make([]string, len(members))
		contributions := make([]string, len(members))
		for i, m := range members {
			ids[i] = m.ID
			contributions[i] = firstNonEmpty(m.FirstSkill(), m.Industry, "fresh perspective")
		}

		first := firstNonEmpty(members[0].FirstInterest(), "AI applications")
		second := "innovation"
		if len(members) > 1 {
			second = firstNonEmpty(members[1].FirstInterest(), second)
		}

		groups = append(groups, types.Group{
			ID:        fmt.Sprintf("g%d", len(groups)+1),
			MemberIDs: ids,
			Topic:     fmt.Sprintf("Exploring %s and %s", first, second),
			Output:    "A concept combining " + strings.Join(contributions, ", "),
			Cohesion:  cohesionBase + rng.IntN(cohesionSpread),
		})
	}
	return groups
}

func roundEvents(r int, convergedNow bool, groups []types.Group, profiles []types.EnrichedProfile) []types.SimulationEvent {
	var events []types.SimulationEvent
	if len(groups) == 0 {
		return events
	}
	focus := groups[r%len(groups)]

	switch tierFor(r) {
	case tierEarly:
		if r == 0 {
			for _, g := range groups {
				events = append(events, types.SimulationEvent{
					Type:             types.EventGroupFormed,
					Description:      fmt.Sprintf("%s forms around %s", g.ID, lowerFirst(g.Topic)),
					InvolvedAgentIDs: append([]string(nil), g.MemberIDs...),
				})
			}
		} else {
			events = append(events, types.SimulationEvent{
				Type:             types.EventGroupFormed,
				Description:      fmt.Sprintf("New connections forming in round %d", r+1),
				InvolvedAgentIDs: firstIDs(profiles, 2),
			})
		}
	case tierMid:
		events = append(events, types.SimulationEvent{
			Type:             types.EventBreakthrough,
			Description:      fmt.Sprintf("%s lands on a promising angle", focus.ID),
			InvolvedAgentIDs: append([]string(nil), focus.MemberIDs...),
		})
	default:
		events = append(events, types.SimulationEvent{
			Type:             types.EventOutputProduced,
			Description:      fmt.Sprintf("%s presents: %s", focus.ID, focus.Output),
			InvolvedAgentIDs: append([]string(nil), focus.MemberIDs...),
		})
	}

	if convergedNow {
		events = append(events, types.SimulationEvent{
			Type:             types.EventAgentMoved,
			Description:      "Everyone has found their group",
			InvolvedAgentIDs: firstIDs(profiles, len(profiles)),
		})
	}
	return events
}

func aggregatedOutput(groups []types.Group, profiles []types.EnrichedProfile) string {
	var industries []string
	for _, p := range profiles {
		if len(industries) == 3 {
			break
		}
		if p.Industry != "" {
			industries = append(industries, p.Industry)
		}
	}
	if len(industries) == 0 {
		industries = []string{"several industries"}
	}
	return fmt.Sprintf("The event produced %d collaborative groups exploring the intersections of %s and more.",
		len(groups), strings.Join(industries, ", "))
}

func copyGroups(groups []types.Group) []types.Group {
	out := make([]types.Group, len(groups))
	for i, g := range groups {
		g.MemberIDs = append([]string(nil), g.MemberIDs...)
		out[i] = g
	}
	return out
}

func firstIDs(profiles []types.EnrichedProfile, n int) []string {
	n = min(n, len(profiles))
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = profiles[i].ID
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampUnit(v float64) float64 {
	return clamp(v, 0, 1)
}

func clampScore(v int) int {
	return max(0, min(100, v))
}
