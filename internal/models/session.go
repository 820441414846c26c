package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus defines the lifecycle status of a debate session.
type SessionStatus string

const (
	SessionStatusPrep       SessionStatus = "PREP"
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusJudging    SessionStatus = "JUDGING"
	SessionStatusFinished   SessionStatus = "FINISHED"
	SessionStatusAbandoned  SessionStatus = "ABANDONED"
)

// Terminal reports whether no further transition can leave this status.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusFinished || s == SessionStatusAbandoned
}

// Side defines which side of the topic a participant argues.
type Side string

const (
	SideFor     Side = "FOR"
	SideAgainst Side = "AGAINST"
)

// Opposite returns the other side of the topic.
func (s Side) Opposite() Side {
	if s == SideFor {
		return SideAgainst
	}
	return SideFor
}

// Topic is the subject under debate.
type Topic struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Participant is one of the two debaters in a session.
type Participant struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Side        Side      `json:"side"`
}

// Session represents one complete timed debate between two participants.
// The store record is the authoritative copy; clients hold converging views.
type Session struct {
	ID            uuid.UUID      `json:"id"`
	Topic         Topic          `json:"topic"`
	Participants  [2]Participant `json:"participants"`
	Status        SessionStatus  `json:"status"`
	CurrentTurnID uuid.UUID      `json:"current_turn_id"`
	TurnNumber    int            `json:"turn_number"`
	RemainingSec  int            `json:"remaining_sec"`
	PrepSec       int            `json:"prep_sec"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Participant returns the participant record for the given id, if present.
func (s *Session) Participant(id uuid.UUID) (Participant, bool) {
	for _, p := range s.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}

// Opponent returns the participant record opposing the given id.
func (s *Session) Opponent(id uuid.UUID) (Participant, bool) {
	for _, p := range s.Participants {
		if p.ID != id {
			return p, true
		}
	}
	return Participant{}, false
}

// Remaining returns the persisted debate time as a duration.
func (s *Session) Remaining() time.Duration {
	return time.Duration(s.RemainingSec) * time.Second
}
