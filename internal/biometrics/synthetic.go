package biometrics

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonathan/velvet-rope/internal/types"
)

// SyntheticSource generates plausible expression vectors when no camera is available.
// It leans neutral with a modest happy component.
type SyntheticSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSyntheticSource creates a synthetic source. A zero seed uses the clock.
func NewSyntheticSource(seed uint64) *SyntheticSource {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &SyntheticSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Read implements ExpressionSource.
func (s *SyntheticSource) Read(_ context.Context) (types.Expressions, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return types.Expressions{
		types.ExpressionNeutral:   0.5 + s.rng.Float64()*0.3,
		types.ExpressionHappy:     s.rng.Float64() * 0.4,
		types.ExpressionSurprised: s.rng.Float64() * 0.2,
		types.ExpressionSad:       s.rng.Float64() * 0.1,
		types.ExpressionAngry:     s.rng.Float64() * 0.05,
		types.ExpressionDisgusted: s.rng.Float64() * 0.05,
		types.ExpressionFearful:   s.rng.Float64() * 0.05,
	}, true, nil
}

// Synthetic implements ExpressionSource.
func (s *SyntheticSource) Synthetic() bool { return true }
