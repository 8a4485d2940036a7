package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonathan/velvet-rope/internal/biometrics"
	"github.com/jonathan/velvet-rope/internal/store"
	"github.com/jonathan/velvet-rope/internal/types"
)

// DefaultDeliveryWindow is how long each pitch is sampled when RunBouncer is not told otherwise.
const DefaultDeliveryWindow = 3 * time.Second

// BouncerOptions control an automated bouncer pass.
type BouncerOptions struct {
	// Window is how long each attendee's pitch is sampled.
	Window time.Duration
	// Interval overrides the sampler cadence.
	Interval time.Duration
}

// StartBouncer advances to the bouncer stage.
func (o *Orchestrator) StartBouncer(ctx context.Context) (types.PipelineState, error) {
	release, err := o.acquire("start bouncer")
	if err != nil {
		return o.store.State(), err
	}
	defer release()

	state, err := o.enter(types.StageBouncer)
	if err != nil {
		return state, err
	}
	return o.advance(ctx, types.StageBouncer, len(state.Pitches))
}

// RecordBiometrics stores the result of one pitch delivery. Each attendee may
// be vetted once.
func (o *Orchestrator) RecordBiometrics(ctx context.Context, attendeeID string, snapshots []types.ExpressionSnapshot) (types.BiometricResult, error) {
	release, err := o.acquire("record biometrics")
	if err != nil {
		return types.BiometricResult{}, err
	}
	defer release()

	state, err := o.require("record biometrics", types.StageBouncer)
	if err != nil {
		return types.BiometricResult{}, err
	}
	if !onRoster(state.EnrichedProfiles, attendeeID) {
		return types.BiometricResult{}, &UnknownAttendeeError{AttendeeID: attendeeID}
	}

	result := biometrics.BuildResult(attendeeID, snapshots, biometrics.DefaultInterval)
	if err := o.record(ctx, result); err != nil {
		return types.BiometricResult{}, err
	}
	return result, nil
}

// RunBouncer samples source for every attendee not yet vetted, one at a time
// in roster order. Cancelling ctx abandons the attendee being sampled and
// returns the context error; results recorded so far are kept.
func (o *Orchestrator) RunBouncer(ctx context.Context, source biometrics.ExpressionSource, opts BouncerOptions) (types.PipelineState, error) {
	release, err := o.acquire("run bouncer")
	if err != nil {
		return o.store.State(), err
	}
	defer release()

	state, err := o.require("run bouncer", types.StageBouncer)
	if err != nil {
		return state, err
	}
	window := opts.Window
	if window <= 0 {
		window = DefaultDeliveryWindow
	}

	sampler := biometrics.NewSampler(source)
	sampler.Logger = o.opts.Logger
	sampler.Now = o.opts.Now
	if opts.Interval > 0 {
		sampler.Interval = opts.Interval
	}

	for i, profile := range state.EnrichedProfiles {
		if state.HasBiometricResult(profile.ID) {
			continue
		}

		done := make(chan struct{})
		timer := time.AfterFunc(window, func() { close(done) })
		result, err := sampler.Capture(ctx, profile.ID, done)
		timer.Stop()
		if err != nil {
			return o.store.State(), err
		}
		if ctx.Err() != nil {
			return o.store.State(), ctx.Err()
		}

		if err := o.record(ctx, result); err != nil {
			return o.store.State(), err
		}
		o.emit(types.StageBouncer, CategoryAttendee,
			fmt.Sprintf("%s scored %d (%d/%d)", profile.FullName(), result.YesnessScore, i+1, len(state.EnrichedProfiles)),
			result.YesnessScore)
	}
	return o.store.State(), nil
}

func (o *Orchestrator) record(ctx context.Context, result types.BiometricResult) error {
	if _, err := o.store.Apply(ctx, store.AddBiometricResult{Result: result}); err != nil {
		return err
	}
	o.opts.Metrics.YesnessScore(result.YesnessScore)
	o.opts.Logger.Info("attendee vetted",
		slog.String("attendee_id", result.AttendeeID),
		slog.Int("yesness", result.YesnessScore),
		slog.Int("snapshots", len(result.Snapshots)),
		slog.Bool("synthetic", result.Synthetic))
	return nil
}

func onRoster(roster []types.EnrichedProfile, id string) bool {
	for _, p := range roster {
		if p.ID == id {
			return true
		}
	}
	return false
}
