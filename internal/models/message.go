package models

import (
	"time"

	"github.com/google/uuid"
)

// Utterance is a single turn message. Append-only and immutable once written;
// ordering is by TurnNumber, never by wall-clock arrival.
type Utterance struct {
	ID          uuid.UUID `json:"id"`
	SessionID   uuid.UUID `json:"session_id"`
	TurnNumber  int       `json:"turn_number"`
	SpeakerID   uuid.UUID `json:"speaker_id"`
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submitted_at"`
}
