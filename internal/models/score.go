package models

import "github.com/google/uuid"

// TurnScore is the judge's verdict on a single utterance. Produced per turn,
// consumed immediately by the aggregator; not persisted by the engine.
type TurnScore struct {
	SpeakerID       uuid.UUID `json:"speaker_id"`
	TurnNumber      int       `json:"turn_number"`
	Score           int       `json:"score"` // 0..10
	Reasoning       string    `json:"reasoning"`
	PolicyViolation bool      `json:"policy_violation,omitempty"`
}
