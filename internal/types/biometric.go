package types

// Expression is one of the seven facial-expression categories.
type Expression string

// Expression categories. The order of ExpressionOrder decides argmax ties.
const (
	ExpressionNeutral   Expression = "neutral"
	ExpressionHappy     Expression = "happy"
	ExpressionSad       Expression = "sad"
	ExpressionAngry     Expression = "angry"
	ExpressionFearful   Expression = "fearful"
	ExpressionDisgusted Expression = "disgusted"
	ExpressionSurprised Expression = "surprised"
)

// ExpressionOrder is the fixed enumeration order of expression categories.
var ExpressionOrder = []Expression{
	ExpressionNeutral,
	ExpressionHappy,
	ExpressionSad,
	ExpressionAngry,
	ExpressionFearful,
	ExpressionDisgusted,
	ExpressionSurprised,
}

// Expressions maps each category to an independent probability in [0,1].
type Expressions map[Expression]float64

// ExpressionSnapshot is one sample taken while a pitch is delivered.
type ExpressionSnapshot struct {
	Timestamp          int64       `json:"timestamp"` // unix millis
	Expressions        Expressions `json:"expressions"`
	DominantExpression Expression  `json:"dominant_expression"`
	YesnessSignal      float64     `json:"yesness_signal"`
}

// BiometricResult summarizes one attendee's delivery.
type BiometricResult struct {
	AttendeeID      string               `json:"attendee_id"`
	Snapshots       []ExpressionSnapshot `json:"snapshots"`
	YesnessScore    int                  `json:"yesness_score"`
	PeakPositive    float64              `json:"peak_positive"`
	PeakNegative    float64              `json:"peak_negative"`
	EngagementLevel int                  `json:"engagement_level"`
	DurationMs      int64                `json:"duration_ms"`
	Synthetic       bool                 `json:"synthetic,omitempty"`
}
