package simulation

import (
	"context"
	"time"

	"github.com/jonathan/velvet-rope/internal/types"
)

// DefaultReplayInterval is the pause before each round is shown.
const DefaultReplayInterval = 1500 * time.Millisecond

// RoundFunc receives one round during replay.
type RoundFunc func(ctx context.Context, round types.SimulationRound) error

// Replay emits the rounds of a result in order, waiting interval before each.
// Cancellation is observed only between rounds; a round that has started
// emitting always completes. An error from emit stops the replay.
func Replay(ctx context.Context, result *types.SimulationResult, interval time.Duration, emit RoundFunc) error {
	if result == nil {
		return nil
	}

	for _, round := range result.Rounds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if interval > 0 {
			timer := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if err := emit(ctx, round); err != nil {
			return err
		}
	}
	return nil
}
