package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/velvet-rope/internal/biometrics"
	"github.com/jonathan/velvet-rope/internal/ingestion"
	"github.com/jonathan/velvet-rope/internal/observability"
	"github.com/jonathan/velvet-rope/internal/pipeline"
	"github.com/jonathan/velvet-rope/internal/types"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the whole pipeline from a CSV roster to a replayed party",
	Long: `Runs every stage in order: upload -> profiles -> pitches -> bouncer ->
guest list -> venue -> party, then replays the party round by round.

The bouncer is driven by a synthetic expression source, so no camera is needed.
Without GEMINI_API_KEY (or with --offline) profiles, pitches and the party
use their local fallbacks.`,
	RunE: runPipelineCmd,
}

var (
	runInput            string
	runCapacity         int
	runWindowMs         int
	runReplayIntervalMs int
	runConcurrency      int
	runScatter          bool
	runOffline          bool
	runAPIKey           string

	runVenueName string
	runVenueType string
	runTheme     string
	runGoal      string
	runDynamics  string
	runRounds    int
)

func init() {
	flags := runCommand.Flags()
	flags.StringVarP(&runInput, "input", "i", "", "Path to the attendee CSV (required)")
	flags.IntVar(&runCapacity, "capacity", -1, "Guests to admit (default half the roster, rounded up)")
	flags.IntVar(&runWindowMs, "window-ms", 1000, "How long each pitch is sampled by the bouncer")
	flags.IntVar(&runReplayIntervalMs, "replay-interval-ms", 0, "Pause between replayed rounds (default from config)")
	flags.IntVar(&runConcurrency, "concurrency", 0, "Generative batches in flight at once")
	flags.BoolVar(&runScatter, "scatter", false, "Random starting positions in the fallback simulation")
	flags.BoolVar(&runOffline, "offline", false, "Never call the generative service")
	flags.StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	defaults := types.DefaultDjConfig()
	flags.StringVar(&runVenueName, "venue", "The Loft", "Venue name")
	flags.StringVar(&runVenueType, "venue-type", string(types.VenueHackathon), "conference, workshop, networking, hackathon or roundtable")
	flags.StringVar(&runTheme, "theme", defaults.Theme, "Event theme")
	flags.StringVar(&runGoal, "goal", defaults.Goal, "What the groups should produce")
	flags.StringVar(&runDynamics, "dynamics", string(defaults.Dynamics), "competitive, collaborative, speed-dating, open-floor or structured")
	flags.IntVar(&runRounds, "rounds", defaults.Rounds, "Simulation rounds (1-20)")

	_ = runCommand.MarkFlagRequired("input")
	rootCmd.AddCommand(runCommand)
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = runConcurrency
	}
	if flags.Changed("scatter") {
		cfg.Scatter = runScatter
	}
	if flags.Changed("replay-interval-ms") {
		cfg.ReplayIntervalMs = runReplayIntervalMs
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printer := observability.NewPrinter(out)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, cfg, appOptions{
		Offline:    runOffline,
		OnProgress: progressPrinter(out, cfg.Verbose),
	})
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck
	o := a.orchestrator

	upload, err := ingestion.IngestFromFile(runInput)
	if err != nil {
		return err
	}
	for _, issue := range upload.Metadata.Skipped {
		_, _ = fmt.Fprintf(out, "skipped %s\n", issue)
	}
	if _, err := o.Upload(ctx, upload.Attendees); err != nil {
		return err
	}

	state, err := o.GenerateProfiles(ctx)
	if err != nil {
		return err
	}
	printer.PrintProfiles(state.EnrichedProfiles)

	state, err = o.GeneratePitches(ctx)
	if err != nil {
		return err
	}
	printer.PrintPitches(state.Pitches)

	if _, err := o.StartBouncer(ctx); err != nil {
		return err
	}
	source := biometrics.NewSyntheticSource(cfg.Seed)
	if _, err := o.RunBouncer(ctx, source, pipeline.BouncerOptions{Window: time.Duration(runWindowMs) * time.Millisecond}); err != nil {
		return err
	}

	state, err = o.BuildGuestList(ctx, runCapacity)
	if err != nil {
		return err
	}
	printer.PrintGuestList(state.GuestList)

	venue := types.DefaultVenueConfig(state.AdmittedCount())
	venue.Name = runVenueName
	venue.Type = types.VenueType(runVenueType)
	dj := types.DefaultDjConfig()
	dj.Theme = runTheme
	dj.Goal = runGoal
	dj.Dynamics = types.Dynamics(runDynamics)
	dj.Rounds = runRounds
	if _, err := o.ConfigureVenue(ctx, venue, dj); err != nil {
		return err
	}

	state, err = o.RunParty(ctx)
	if err != nil {
		return err
	}

	interval := time.Duration(cfg.ReplayIntervalMs) * time.Millisecond
	err = o.Replay(ctx, interval, func(_ context.Context, round types.SimulationRound) error {
		printer.PrintRound(round)
		return nil
	})
	if err != nil {
		return err
	}
	printer.PrintSimulationSummary(state.SimulationResult)
	return nil
}

// progressPrinter prints stage progress when verbose.
func progressPrinter(out io.Writer, verbose bool) pipeline.ProgressCallback {
	if !verbose {
		return nil
	}
	return func(event pipeline.ProgressEvent) {
		_, _ = fmt.Fprintf(out, "[%s] %s: %s\n", event.Stage.Label(), event.Category, event.Message)
	}
}
