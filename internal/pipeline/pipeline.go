// Package pipeline provides the high-level orchestration of the velvet rope:
// it drives each stage's work and moves the store from stage to stage.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonathan/velvet-rope/internal/batch"
	"github.com/jonathan/velvet-rope/internal/db"
	"github.com/jonathan/velvet-rope/internal/ingestion"
	"github.com/jonathan/velvet-rope/internal/llm"
	"github.com/jonathan/velvet-rope/internal/metrics"
	"github.com/jonathan/velvet-rope/internal/pipeline/steps"
	"github.com/jonathan/velvet-rope/internal/pitches"
	"github.com/jonathan/velvet-rope/internal/profiles"
	"github.com/jonathan/velvet-rope/internal/store"
	"github.com/jonathan/velvet-rope/internal/types"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Stage    types.Stage `json:"stage"`
	Category string      `json:"category"`
	Message  string      `json:"message"`
	Content  any         `json:"content,omitempty"`
}

// Progress categories.
const (
	CategoryStarted   = "started"
	CategoryBatch     = "batch"
	CategoryAttendee  = "attendee"
	CategoryFallback  = "fallback"
	CategoryCompleted = "completed"
)

// ProgressCallback is called when pipeline progress occurs. With concurrent
// batches it may be called from several goroutines.
type ProgressCallback func(event ProgressEvent)

// RunRecorder archives finished simulations. *db.DB implements it.
type RunRecorder interface {
	SaveRun(ctx context.Context, run db.PartyRun, result *types.SimulationResult) error
}

// Options configure an Orchestrator.
type Options struct {
	// Client is the generative service. Nil means every artifact falls back.
	Client llm.Client
	// Concurrency above 1 sends that many batches at once.
	Concurrency int
	// Seed fixes the fallback simulation. Zero seeds from the clock.
	Seed uint64
	// Scatter samples fallback starting positions instead of using the index formula.
	Scatter bool
	// Recorder archives each party, best-effort.
	Recorder   RunRecorder
	Logger     *slog.Logger
	Metrics    *metrics.Manager
	OnProgress ProgressCallback
	Now        func() time.Time
}

// Orchestrator runs the pipeline operations against a store.
// Operations that change state never overlap; see acquire.
type Orchestrator struct {
	store *store.Store
	opts  Options
	busy  sync.Mutex
}

// New creates an orchestrator over st.
func New(st *store.Store, opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{store: st, opts: opts}
}

// State returns the current pipeline snapshot.
func (o *Orchestrator) State() types.PipelineState {
	return o.store.State()
}

// Upload starts a fresh run with the given roster. Attendees failing
// validation are dropped; at least one must remain. The stage stays at upload.
func (o *Orchestrator) Upload(ctx context.Context, attendees []types.Attendee) (types.PipelineState, error) {
	valid := make([]types.Attendee, 0, len(attendees))
	seen := make(map[string]bool, len(attendees))
	for _, a := range attendees {
		if seen[a.ID] {
			o.opts.Logger.Warn("dropping duplicate attendee", slog.String("attendee_id", a.ID))
			continue
		}
		if err := a.Validate(); err != nil {
			o.opts.Logger.Warn("dropping invalid attendee", slog.String("attendee_id", a.ID), slog.Any("error", err))
			continue
		}
		seen[a.ID] = true
		valid = append(valid, a)
	}
	if len(valid) == 0 {
		return o.store.State(), &ingestion.InputError{Message: ingestion.ErrNoAttendees}
	}

	release, err := o.acquire("upload")
	if err != nil {
		return o.store.State(), err
	}
	defer release()

	if _, err := o.store.Apply(ctx, store.Reset{}); err != nil {
		return o.store.State(), err
	}
	state, err := o.store.Apply(ctx, store.SetRawAttendees{Attendees: valid})
	if err != nil {
		return state, err
	}
	o.emit(types.StageUpload, CategoryCompleted, "roster uploaded", len(valid))
	return state, nil
}

// GenerateProfiles enriches the roster and advances to profiles.
func (o *Orchestrator) GenerateProfiles(ctx context.Context) (types.PipelineState, error) {
	release, err := o.acquire("generate profiles")
	if err != nil {
		return o.store.State(), err
	}
	defer release()

	state, err := o.enter(types.StageProfiles)
	if err != nil {
		return state, err
	}
	o.emit(types.StageProfiles, CategoryStarted, "generating profiles", len(state.RawAttendees))

	gen := &profiles.Generator{
		Client:      o.opts.Client,
		Concurrency: o.opts.Concurrency,
		Logger:      o.opts.Logger,
		Metrics:     o.opts.Metrics,
		Now:         o.opts.Now,
		OnBatch:     o.batchProgress(types.StageProfiles),
	}
	enriched := gen.Generate(ctx, state.RawAttendees)

	if _, err := o.store.Apply(ctx, store.SetEnrichedProfiles{Profiles: enriched}); err != nil {
		return o.store.State(), err
	}
	return o.advance(ctx, types.StageProfiles, len(enriched))
}

// GeneratePitches writes a pitch per profile and advances to pitches.
func (o *Orchestrator) GeneratePitches(ctx context.Context) (types.PipelineState, error) {
	release, err := o.acquire("generate pitches")
	if err != nil {
		return o.store.State(), err
	}
	defer release()

	state, err := o.enter(types.StagePitches)
	if err != nil {
		return state, err
	}
	o.emit(types.StagePitches, CategoryStarted, "generating pitches", len(state.EnrichedProfiles))

	gen := &pitches.Generator{
		Client:      o.opts.Client,
		Concurrency: o.opts.Concurrency,
		Logger:      o.opts.Logger,
		Metrics:     o.opts.Metrics,
		Now:         o.opts.Now,
		OnBatch:     o.batchProgress(types.StagePitches),
	}
	generated := gen.Generate(ctx, state.EnrichedProfiles)

	if _, err := o.store.Apply(ctx, store.SetPitches{Pitches: generated}); err != nil {
		return o.store.State(), err
	}
	return o.advance(ctx, types.StagePitches, len(generated))
}

// RerunFromVenue discards the simulation and returns to the venue stage.
func (o *Orchestrator) RerunFromVenue(ctx context.Context) (types.PipelineState, error) {
	release, err := o.acquire("rerun")
	if err != nil {
		return o.store.State(), err
	}
	defer release()

	state, err := o.store.Apply(ctx, store.Rewind{To: types.StageVenue})
	if err != nil {
		return state, err
	}
	o.emit(types.StageVenue, CategoryStarted, "ready to rerun the party", nil)
	return state, nil
}

// Reset discards everything and returns to upload.
func (o *Orchestrator) Reset(ctx context.Context) (types.PipelineState, error) {
	release, err := o.acquire("reset")
	if err != nil {
		return o.store.State(), err
	}
	defer release()

	return o.store.Apply(ctx, store.Reset{})
}

// acquire claims the orchestrator for one state-changing operation. A second
// operation arriving while one is still running is refused with a BusyError,
// so work started against one roster can never land on another.
func (o *Orchestrator) acquire(operation string) (func(), error) {
	if !o.busy.TryLock() {
		return nil, &BusyError{Operation: operation}
	}
	return o.busy.Unlock, nil
}

// enter checks that stage is the next stage and that its inputs exist,
// before any work for it is done.
func (o *Orchestrator) enter(stage types.Stage) (types.PipelineState, error) {
	state := o.store.State()
	if next, ok := state.CurrentStage.Next(); !ok || next != stage {
		return state, &store.TransitionError{From: state.CurrentStage, To: stage, Kind: "advance"}
	}
	if err := steps.ValidateDependencies(&state, stage); err != nil {
		return state, err
	}
	return state, nil
}

// require checks that the pipeline is currently at one of the given stages.
func (o *Orchestrator) require(operation string, want ...types.Stage) (types.PipelineState, error) {
	state := o.store.State()
	for _, s := range want {
		if state.CurrentStage == s {
			return state, nil
		}
	}
	return state, &StageError{Operation: operation, Want: want, Got: state.CurrentStage}
}

func (o *Orchestrator) advance(ctx context.Context, stage types.Stage, count int) (types.PipelineState, error) {
	state, err := o.store.Apply(ctx, store.Advance{To: stage})
	if err != nil {
		return state, err
	}
	o.emit(stage, CategoryCompleted, "entered "+stage.Label(), count)
	return state, nil
}

func (o *Orchestrator) batchProgress(stage types.Stage) func(batch.Report) {
	return func(r batch.Report) {
		category := CategoryBatch
		if r.Outcome != batch.OutcomeGenerated {
			category = CategoryFallback
		}
		o.emit(stage, category, string(r.Outcome), map[string]int{
			"batch": r.Index + 1,
			"total": r.Total,
			"size":  r.Size,
		})
	}
}

func (o *Orchestrator) emit(stage types.Stage, category, message string, content any) {
	if o.opts.OnProgress != nil {
		o.opts.OnProgress(ProgressEvent{
			Stage:    stage,
			Category: category,
			Message:  message,
			Content:  content,
		})
	}
}
