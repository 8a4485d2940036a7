package types

import "time"

// Tone is the categorical delivery style of a pitch.
type Tone string

// Pitch tones in round-robin order.
const (
	ToneConfident  Tone = "confident"
	ToneHumble     Tone = "humble"
	ToneHumorous   Tone = "humorous"
	TonePassionate Tone = "passionate"
	ToneAnalytical Tone = "analytical"
)

// Tones lists every tone in assignment order.
var Tones = []Tone{ToneConfident, ToneHumble, ToneHumorous, TonePassionate, ToneAnalytical}

// ToneForIndex assigns tones round-robin by roster position.
func ToneForIndex(i int) Tone {
	if i < 0 {
		i = -i
	}
	return Tones[i%len(Tones)]
}

// Valid reports whether t is one of the known tones.
func (t Tone) Valid() bool {
	for _, known := range Tones {
		if known == t {
			return true
		}
	}
	return false
}

// Pitch is the generated plea an attendee delivers to the bouncer.
type Pitch struct {
	AttendeeID   string    `json:"attendee_id"`
	PitchText    string    `json:"pitch_text"`
	PitchTone    Tone      `json:"pitch_tone"`
	KeyArguments []string  `json:"key_arguments"`
	Source       Source    `json:"source"`
	GeneratedAt  time.Time `json:"generated_at"`
}
