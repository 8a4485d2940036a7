// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/velvet-rope/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad truncates or right-pads line to the box's inner width, counting runes.
func pad(line string) string {
	width := boxWidth - 4
	if utf8.RuneCountInString(line) > width {
		runes := []rune(line)
		line = string(runes[:width-3]) + "..."
	}
	return line + strings.Repeat(" ", width-utf8.RuneCountInString(line))
}

// PrintStatus outputs the stage tracker and artifact counts.
func (p *Printer) PrintStatus(state types.PipelineState) {
	var sb strings.Builder

	current := state.CurrentStage.Index()
	for i, stage := range types.StageOrder {
		marker := " "
		switch {
		case i < current:
			marker = "✓"
		case i == current:
			marker = "▶"
		}
		sb.WriteString(fmt.Sprintf("%s %d. %-12s %s\n", marker, i+1, stage, stage.Label()))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Attendees:  %d\n", len(state.RawAttendees)))
	sb.WriteString(fmt.Sprintf("Profiles:   %d\n", len(state.EnrichedProfiles)))
	sb.WriteString(fmt.Sprintf("Pitches:    %d\n", len(state.Pitches)))
	sb.WriteString(fmt.Sprintf("Vetted:     %d\n", len(state.BiometricResults)))
	if len(state.GuestList) > 0 {
		sb.WriteString(fmt.Sprintf("Admitted:   %d of %d\n", state.AdmittedCount(), len(state.GuestList)))
	}
	if state.VenueConfig != nil {
		sb.WriteString(fmt.Sprintf("Venue:      %s (%s)\n", state.VenueConfig.Name, state.VenueConfig.Type))
	}
	if state.SimulationResult != nil {
		sb.WriteString(fmt.Sprintf("Party:      %d rounds, %s\n", state.SimulationResult.TotalRounds, state.SimulationResult.Source))
	}
	if !state.UpdatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Updated:    %s\n", state.UpdatedAt.Format("2006-01-02 15:04:05")))
	}

	p.printBox("PIPELINE STATUS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintProfiles outputs the first few enriched profiles.
func (p *Printer) PrintProfiles(profiles []types.EnrichedProfile) {
	if len(profiles) == 0 {
		return
	}

	var sb strings.Builder
	generated := 0
	for _, profile := range profiles {
		if profile.Source == types.SourceGenerated {
			generated++
		}
	}
	sb.WriteString(fmt.Sprintf("Profiles: %d (%d generated, %d fallback)\n\n", len(profiles), generated, len(profiles)-generated))

	count := min(len(profiles), maxItemsToShow)
	for i := 0; i < count; i++ {
		profile := profiles[i]
		sb.WriteString(fmt.Sprintf("%s, %s at %s\n", profile.FullName(), profile.Title, profile.Company))
		sb.WriteString(fmt.Sprintf("    %s\n", profile.ProfileSummary))
	}
	if len(profiles) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(profiles)-maxItemsToShow))
	}

	p.printBox("DOSSIERS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPitches outputs the first few pitches with their tone.
func (p *Printer) PrintPitches(pitches []types.Pitch) {
	if len(pitches) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(pitches), maxItemsToShow)
	for i := 0; i < count; i++ {
		pitch := pitches[i]
		sb.WriteString(fmt.Sprintf("%s [%s, %s]\n", pitch.AttendeeID, pitch.PitchTone, pitch.Source))
		sb.WriteString(fmt.Sprintf("    %s\n", pitch.PitchText))
	}
	if len(pitches) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(pitches)-maxItemsToShow))
	}

	p.printBox("THE PLEA", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintGuestList outputs every ranked entry with its score and admission.
func (p *Printer) PrintGuestList(list []types.GuestListEntry) {
	if len(list) == 0 {
		return
	}

	var sb strings.Builder
	admitted := 0
	for _, entry := range list {
		mark := "  "
		if entry.Admitted {
			mark = "✓ "
			admitted++
		}
		sb.WriteString(fmt.Sprintf("%s#%-3d %-28s yesness %3d  engagement %3d\n",
			mark, entry.Rank, entry.Attendee.FullName(),
			entry.BiometricResult.YesnessScore, entry.BiometricResult.EngagementLevel))
	}
	sb.WriteString(fmt.Sprintf("\nAdmitted: %d of %d", admitted, len(list)))

	p.printBox("THE LIST", sb.String())
}

// PrintRound outputs one simulation round: narrative, groups and events.
func (p *Printer) PrintRound(round types.SimulationRound) {
	var sb strings.Builder
	sb.WriteString(round.Narrative)
	sb.WriteString("\n")

	if len(round.Groups) > 0 {
		sb.WriteString("\nGroups:\n")
		for _, g := range round.Groups {
			sb.WriteString(fmt.Sprintf("  • %s (%d members, cohesion %d): %s\n", g.ID, len(g.MemberIDs), g.Cohesion, g.Topic))
		}
	}
	if len(round.Events) > 0 {
		sb.WriteString("\nEvents:\n")
		for _, e := range round.Events {
			sb.WriteString(fmt.Sprintf("  [%s] %s\n", e.Type, e.Description))
		}
	}

	p.printBox(fmt.Sprintf("ROUND %d", round.RoundNumber), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSimulationSummary outputs the final groups and the aggregated output.
func (p *Printer) PrintSimulationSummary(result *types.SimulationResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Rounds: %d   Source: %s", result.TotalRounds, result.Source))
	if result.Seed != 0 {
		sb.WriteString(fmt.Sprintf("   Seed: %d", result.Seed))
	}
	sb.WriteString("\n\nFinal groups:\n")
	for _, g := range result.FinalGroups {
		sb.WriteString(fmt.Sprintf("  • %s: %s\n", g.ID, g.Output))
	}
	sb.WriteString("\n")
	sb.WriteString(result.AggregatedOutput)

	p.printBox("THE FLOOR", sb.String())
}
