package types

import "time"

// Position is a point in the normalized [0,1]x[0,1] floor plane.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AgentState is one attendee's state during one round.
type AgentState struct {
	AttendeeID     string   `json:"attendee_id"`
	Position       Position `json:"position"`
	CurrentGroupID *string  `json:"current_group_id"`
	Mood           string   `json:"mood"`
	EnergyLevel    int      `json:"energy_level"`
	Satisfaction   int      `json:"satisfaction"`
}

// Group is a cluster of attendees working on a shared topic.
type Group struct {
	ID        string   `json:"id"`
	MemberIDs []string `json:"member_ids"`
	Topic     string   `json:"topic"`
	Output    string   `json:"output"`
	Cohesion  int      `json:"cohesion"`
}

// EventType classifies a discrete simulation event.
type EventType string

// Simulation event types.
const (
	EventGroupFormed    EventType = "group_formed"
	EventGroupDissolved EventType = "group_dissolved"
	EventAgentMoved     EventType = "agent_moved"
	EventOutputProduced EventType = "output_produced"
	EventConflict       EventType = "conflict"
	EventBreakthrough   EventType = "breakthrough"
)

// SimulationEvent is something notable that happened during a round.
type SimulationEvent struct {
	Type             EventType `json:"type"`
	Description      string    `json:"description"`
	InvolvedAgentIDs []string  `json:"involved_agent_ids"`
}

// SimulationRound is one immutable step of the simulation.
type SimulationRound struct {
	RoundNumber int               `json:"round_number"`
	AgentStates []AgentState      `json:"agent_states"`
	Groups      []Group           `json:"groups"`
	Narrative   string            `json:"narrative"`
	Events      []SimulationEvent `json:"events"`
}

// SimulationResult is a complete simulation run.
type SimulationResult struct {
	Rounds           []SimulationRound `json:"rounds"`
	FinalGroups      []Group           `json:"final_groups"`
	AggregatedOutput string            `json:"aggregated_output"`
	TotalRounds      int               `json:"total_rounds"`
	Source           Source            `json:"source"`
	Seed             uint64            `json:"seed,omitempty"`
	GeneratedAt      time.Time         `json:"generated_at"`
}
