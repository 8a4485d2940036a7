package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonathan/velvet-rope/internal/batch"
	"github.com/jonathan/velvet-rope/internal/db"
	"github.com/jonathan/velvet-rope/internal/metrics"
	"github.com/jonathan/velvet-rope/internal/pipeline/steps"
	"github.com/jonathan/velvet-rope/internal/simulation"
	"github.com/jonathan/velvet-rope/internal/store"
	"github.com/jonathan/velvet-rope/internal/types"
)

const simulationArtifact = "simulation"

// ConfigureVenue validates and stores the venue and DJ setup. From the guest
// list it advances to venue; at venue (after a rerun) it only replaces the setup.
func (o *Orchestrator) ConfigureVenue(ctx context.Context, venue types.VenueConfig, dj types.DjConfig) (types.PipelineState, error) {
	release, err := o.acquire("configure venue")
	if err != nil {
		return o.store.State(), err
	}
	defer release()

	state := o.store.State()
	advancing := state.CurrentStage != types.StageVenue
	if advancing {
		if _, err := o.enter(types.StageVenue); err != nil {
			return state, err
		}
	}

	if err := venue.Validate(); err != nil {
		return state, &ConfigError{Field: "venue", Cause: err}
	}
	if err := dj.Validate(); err != nil {
		return state, &ConfigError{Field: "dj", Cause: err}
	}

	if _, err := o.store.Apply(ctx, store.SetVenueConfig{Config: venue}); err != nil {
		return o.store.State(), err
	}
	if _, err := o.store.Apply(ctx, store.SetDjConfig{Config: dj}); err != nil {
		return o.store.State(), err
	}
	if !advancing {
		return o.store.State(), nil
	}
	return o.advance(ctx, types.StageVenue, state.AdmittedCount())
}

// RunParty simulates the event for the admitted guests and advances to party.
// The generative simulation is tried once; any failure falls back to the
// local generator, so the only errors are stage and dependency errors.
func (o *Orchestrator) RunParty(ctx context.Context) (types.PipelineState, error) {
	release, err := o.acquire("run party")
	if err != nil {
		return o.store.State(), err
	}
	defer release()

	state, err := o.enter(types.StageParty)
	if err != nil {
		return state, err
	}
	roster := types.AdmittedProfiles(state.GuestList)
	venue, dj := *state.VenueConfig, *state.DjConfig
	o.emit(types.StageParty, CategoryStarted, fmt.Sprintf("simulating %d rounds at %s", dj.Rounds, venue.Name), len(roster))

	started := time.Now()
	result, err := simulation.Remote(ctx, o.opts.Client, roster, venue, dj, o.opts.Now)
	outcome := metrics.OutcomeGenerated
	if err != nil {
		outcome = metrics.OutcomeHardFailure
		if batch.IsSoft(err) {
			outcome = metrics.OutcomeSoftFailure
		}
	}
	o.opts.Metrics.ExternalCall(simulationArtifact, outcome, time.Since(started))

	if err != nil {
		o.opts.Logger.Warn("simulation fell back", slog.String("outcome", outcome), slog.Any("error", err))
		o.opts.Metrics.FallbackRecords(simulationArtifact, len(roster))
		gen := &simulation.Generator{Seed: o.opts.Seed, Now: o.opts.Now}
		result = gen.Generate(roster, dj.Rounds, simulation.Options{Scatter: o.opts.Scatter})
		o.emit(types.StageParty, CategoryFallback, "using the local simulation", result.Seed)
	}

	if _, err := o.store.Apply(ctx, store.SetSimulationResult{Result: result}); err != nil {
		return o.store.State(), err
	}
	o.archive(ctx, venue.Name, len(roster), result)
	return o.advance(ctx, types.StageParty, result.TotalRounds)
}

// Replay emits the stored simulation round by round.
func (o *Orchestrator) Replay(ctx context.Context, interval time.Duration, emit simulation.RoundFunc) error {
	state := o.store.State()
	if err := steps.Require(&state, types.StageParty, steps.ReplayRequirement); err != nil {
		return err
	}
	return simulation.Replay(ctx, state.SimulationResult, interval, func(ctx context.Context, round types.SimulationRound) error {
		o.opts.Metrics.RoundReplayed()
		return emit(ctx, round)
	})
}

func (o *Orchestrator) archive(ctx context.Context, venue string, admitted int, result *types.SimulationResult) {
	if o.opts.Recorder == nil {
		return
	}
	run := db.NewPartyRun(venue, admitted, result)
	if err := o.opts.Recorder.SaveRun(ctx, run, result); err != nil {
		o.opts.Logger.Warn("failed to archive party run", slog.String("run_id", run.ID.String()), slog.Any("error", err))
		return
	}
	o.opts.Logger.Info("party run archived", slog.String("run_id", run.ID.String()))
}
