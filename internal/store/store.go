// Package store holds the pipeline's aggregate state, applies actions to it,
// and persists every accepted change.
package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jonathan/velvet-rope/internal/metrics"
	"github.com/jonathan/velvet-rope/internal/types"
)

// Store serializes actions against the pipeline state.
type Store struct {
	mu        sync.Mutex
	state     types.PipelineState
	persister Persister
	logger    *slog.Logger
	metrics   *metrics.Manager
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records persistence failures and stage transitions.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open loads the persisted state. Anything unusable (read error, corrupt JSON,
// unknown stage, or a different schema version) starts from the initial state.
// A nil persister keeps the state in memory only.
func Open(ctx context.Context, persister Persister, opts ...Option) *Store {
	s := &Store{
		persister: persister,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = s.load(ctx)
	return s
}

// State returns the current state.
func (s *Store) State() types.PipelineState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Apply reduces action into the current state and persists the result.
// Only reducer errors are returned; persistence failures are logged and counted.
func (s *Store) Apply(ctx context.Context, action Action) (types.PipelineState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Reduce(s.state, action)
	if err != nil {
		return s.state, err
	}
	next.UpdatedAt = s.now().UTC()

	if next.CurrentStage != s.state.CurrentStage {
		s.logger.Info("stage changed",
			slog.String("from", string(s.state.CurrentStage)),
			slog.String("to", string(next.CurrentStage)),
			slog.String("action", action.Name()))
		s.metrics.StageEntered(string(next.CurrentStage))
	}

	s.state = next
	s.save(ctx, action)
	return next, nil
}

// saveTimeout bounds one persist. The write is detached from the caller's
// cancellation so a dropped request cannot leave the stored copy behind memory.
const saveTimeout = 10 * time.Second

func (s *Store) save(ctx context.Context, action Action) {
	if s.persister == nil {
		return
	}

	data, err := json.Marshal(s.state)
	if err == nil {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
		err = s.persister.Save(saveCtx, data)
		cancel()
	}
	if err != nil {
		s.metrics.PersistFailed()
		s.logger.Warn("failed to persist pipeline state",
			slog.String("action", action.Name()),
			slog.Any("error", &PersistError{Op: "save", Cause: err}))
	}
}

func (s *Store) load(ctx context.Context) types.PipelineState {
	if s.persister == nil {
		return types.NewPipelineState()
	}

	data, err := s.persister.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to load pipeline state, starting fresh",
			slog.Any("error", &PersistError{Op: "load", Cause: err}))
		return types.NewPipelineState()
	}
	if data == nil {
		return types.NewPipelineState()
	}

	state, ok := Decode(data)
	if !ok {
		s.logger.Warn("discarding unreadable pipeline state", slog.Int("bytes", len(data)))
		return types.NewPipelineState()
	}
	return state
}

// Decode parses a persisted state blob, rejecting corrupt data, unknown
// stages, and other schema versions.
func Decode(data []byte) (types.PipelineState, bool) {
	var state types.PipelineState
	if err := json.Unmarshal(data, &state); err != nil {
		return types.PipelineState{}, false
	}
	if state.Version != types.StateVersion || !state.CurrentStage.Valid() {
		return types.PipelineState{}, false
	}

	// Older saves may carry nulls for empty collections.
	if state.RawAttendees == nil {
		state.RawAttendees = []types.Attendee{}
	}
	if state.EnrichedProfiles == nil {
		state.EnrichedProfiles = []types.EnrichedProfile{}
	}
	if state.Pitches == nil {
		state.Pitches = []types.Pitch{}
	}
	if state.BiometricResults == nil {
		state.BiometricResults = []types.BiometricResult{}
	}
	if state.GuestList == nil {
		state.GuestList = []types.GuestListEntry{}
	}
	return state, true
}
