package biometrics

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonathan/velvet-rope/internal/types"
)

// DefaultInterval is the sampling cadence while a pitch is being delivered.
const DefaultInterval = 250 * time.Millisecond

// ErrWindowActive is returned when a capture starts while another is still running.
var ErrWindowActive = errors.New("a sampling window is already active")

// ExpressionSource yields the current expression probabilities.
// ok is false when no face was detected for this frame.
type ExpressionSource interface {
	Read(ctx context.Context) (expressions types.Expressions, ok bool, err error)
	Synthetic() bool
}

// SnapshotFunc observes each snapshot together with the running score.
type SnapshotFunc func(snapshot types.ExpressionSnapshot, runningScore int)

// Sampler captures expression snapshots at a fixed cadence for one attendee at a time.
type Sampler struct {
	Interval   time.Duration
	Source     ExpressionSource
	OnSnapshot SnapshotFunc
	Logger     *slog.Logger
	Now        func() time.Time

	mu     sync.Mutex
	active bool
}

// NewSampler creates a sampler with the default cadence.
func NewSampler(source ExpressionSource) *Sampler {
	return &Sampler{
		Interval: DefaultInterval,
		Source:   source,
	}
}

// Capture samples until done is closed (delivery finished) or ctx is cancelled
// (delivery interrupted), then returns the attendee's result. Only one window
// may be open at a time.
func (s *Sampler) Capture(ctx context.Context, attendeeID string, done <-chan struct{}) (types.BiometricResult, error) {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return types.BiometricResult{}, ErrWindowActive
	}
	s.active = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.active = false
		s.mu.Unlock()
	}()

	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	now := s.Now
	if now == nil {
		now = time.Now
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	snapshots := make([]types.ExpressionSnapshot, 0, 64)
	for {
		select {
		case <-ctx.Done():
			return s.finish(attendeeID, snapshots, interval), nil
		case <-done:
			return s.finish(attendeeID, snapshots, interval), nil
		case <-ticker.C:
		}

		// The window may have closed while the tick was pending.
		select {
		case <-ctx.Done():
			return s.finish(attendeeID, snapshots, interval), nil
		case <-done:
			return s.finish(attendeeID, snapshots, interval), nil
		default:
		}

		expressions, ok, err := s.Source.Read(ctx)
		if err != nil {
			logger.Debug("expression read failed", "attendee_id", attendeeID, "error", err)
			continue
		}
		if !ok {
			continue
		}

		snap := NewSnapshot(now(), expressions)
		snapshots = append(snapshots, snap)
		if s.OnSnapshot != nil {
			s.OnSnapshot(snap, ScoreFromSnapshots(snapshots))
		}
	}
}

func (s *Sampler) finish(attendeeID string, snapshots []types.ExpressionSnapshot, interval time.Duration) types.BiometricResult {
	result := BuildResult(attendeeID, snapshots, interval)
	result.Synthetic = s.Source.Synthetic()
	return result
}
