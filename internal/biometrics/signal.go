// Package biometrics turns per-frame facial-expression probabilities into yesness signals
// and aggregates a delivery's signals into a bounded admission score.
package biometrics

import (
	"math"
	"time"

	"github.com/jonathan/velvet-rope/internal/types"
)

// NeutralScore is the score for a delivery with no readable expression.
const NeutralScore = 50

// NeutralEngagement is the engagement level reported when no snapshots exist.
const NeutralEngagement = 50

// expressionWeights are the per-category contributions to the yesness signal.
var expressionWeights = map[types.Expression]float64{
	types.ExpressionHappy:     1.0,
	types.ExpressionSurprised: 0.6,
	types.ExpressionNeutral:   0.1,
	types.ExpressionSad:       -0.3,
	types.ExpressionFearful:   -0.2,
	types.ExpressionAngry:     -0.7,
	types.ExpressionDisgusted: -1.0,
}

// SignalFromExpressions computes the weighted yesness signal, clamped to [-1,1].
// Unknown categories contribute nothing.
func SignalFromExpressions(expressions types.Expressions) float64 {
	signal := 0.0
	for _, expr := range types.ExpressionOrder {
		signal += expressionWeights[expr] * expressions[expr]
	}
	return clamp(signal, -1, 1)
}

// DominantExpression returns the category with the highest probability.
// Ties go to the category that appears first in types.ExpressionOrder.
func DominantExpression(expressions types.Expressions) types.Expression {
	dominant := types.ExpressionNeutral
	best := math.Inf(-1)
	for _, expr := range types.ExpressionOrder {
		p, ok := expressions[expr]
		if !ok {
			continue
		}
		if p > best {
			best = p
			dominant = expr
		}
	}
	return dominant
}

// ScoreFromSnapshots maps the mean signal from [-1,1] onto [0,100].
// An empty sequence scores NeutralScore.
func ScoreFromSnapshots(snapshots []types.ExpressionSnapshot) int {
	if len(snapshots) == 0 {
		return NeutralScore
	}
	sum := 0.0
	for _, s := range snapshots {
		sum += s.YesnessSignal
	}
	mean := sum / float64(len(snapshots))
	return int(math.Round(((mean + 1) / 2) * 100))
}

// NewSnapshot derives the signal and dominant category for one sample.
func NewSnapshot(at time.Time, expressions types.Expressions) types.ExpressionSnapshot {
	return types.ExpressionSnapshot{
		Timestamp:          at.UnixMilli(),
		Expressions:        expressions,
		DominantExpression: DominantExpression(expressions),
		YesnessSignal:      SignalFromExpressions(expressions),
	}
}

// BuildResult summarizes a finished delivery. interval is the sampling cadence
// used to derive the elapsed duration.
func BuildResult(attendeeID string, snapshots []types.ExpressionSnapshot, interval time.Duration) types.BiometricResult {
	copied := make([]types.ExpressionSnapshot, len(snapshots))
	copy(copied, snapshots)

	result := types.BiometricResult{
		AttendeeID:      attendeeID,
		Snapshots:       copied,
		YesnessScore:    ScoreFromSnapshots(copied),
		EngagementLevel: NeutralEngagement,
		DurationMs:      int64(len(copied)) * interval.Milliseconds(),
	}
	if len(copied) == 0 {
		return result
	}

	absSum := 0.0
	for _, s := range copied {
		result.PeakPositive = math.Max(result.PeakPositive, s.YesnessSignal)
		result.PeakNegative = math.Min(result.PeakNegative, s.YesnessSignal)
		absSum += math.Abs(s.YesnessSignal)
	}
	result.EngagementLevel = int(math.Round(absSum / float64(len(copied)) * 100))
	return result
}

// NeutralResult is the stand-in for an attendee who was never vetted.
func NeutralResult(attendeeID string) types.BiometricResult {
	return types.BiometricResult{
		AttendeeID:      attendeeID,
		Snapshots:       []types.ExpressionSnapshot{},
		YesnessScore:    NeutralScore,
		EngagementLevel: NeutralEngagement,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
