package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionEvent is the wire envelope for all spectator events.
type SessionEvent struct {
	ID        string          `json:"id"`         // Event UUID
	SessionID string          `json:"session_id"` // Session UUID
	Type      EventType       `json:"type"`       // Event type
	Timestamp time.Time       `json:"timestamp"`  // Event creation time
	Data      json.RawMessage `json:"data"`       // Event-specific payload
}

// EventType represents the type of session event
type EventType string

const (
	EventTypeSessionStarted   EventType = "SessionStarted"
	EventTypeTurnTaken        EventType = "TurnTaken"
	EventTypeTurnScored       EventType = "TurnScored"
	EventTypeTimerTick        EventType = "TimerTick"
	EventTypeSessionFinished  EventType = "SessionFinished"
	EventTypeSessionAbandoned EventType = "SessionAbandoned"
)

// SessionStartedPayload announces the debate going live.
type SessionStartedPayload struct {
	TopicTitle   string    `json:"topic_title"`
	Participants []string  `json:"participants"`
	RemainingSec int       `json:"remaining_sec"`
	StartedAt    time.Time `json:"started_at"`
}

// TurnTakenPayload carries one accepted utterance.
type TurnTakenPayload struct {
	TurnNumber  int       `json:"turn_number"`
	SpeakerID   string    `json:"speaker_id"`
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// TurnScoredPayload carries one judged turn.
type TurnScoredPayload struct {
	TurnNumber      int    `json:"turn_number"`
	SpeakerID       string `json:"speaker_id"`
	Score           int    `json:"score"`
	Reasoning       string `json:"reasoning"`
	PolicyViolation bool   `json:"policy_violation"`
}

// TimerTickPayload contains periodic countdown updates
type TimerTickPayload struct {
	RemainingSec int       `json:"remaining_sec"`
	TickedAt     time.Time `json:"ticked_at"`
}

// VerdictPayload carries the terminal outcome, used by both the finished
// and the abandoned event.
type VerdictPayload struct {
	WinnerID string         `json:"winner_id,omitempty"`
	Draw     bool           `json:"draw"`
	Forfeit  bool           `json:"forfeit"`
	Totals   map[string]int `json:"totals"`
}

// NewEvent wraps a payload in the event envelope.
func NewEvent(sessionID uuid.UUID, eventType EventType, payload interface{}) (*SessionEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return &SessionEvent{
		ID:        uuid.New().String(),
		SessionID: sessionID.String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}, nil
}

// ParseEventPayload parses event data into the appropriate payload struct
func ParseEventPayload(event *SessionEvent) (interface{}, error) {
	switch event.Type {
	case EventTypeSessionStarted:
		var payload SessionStartedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeTurnTaken:
		var payload TurnTakenPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeTurnScored:
		var payload TurnScoredPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeTimerTick:
		var payload TimerTickPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeSessionFinished, EventTypeSessionAbandoned:
		var payload VerdictPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	default:
		return nil, fmt.Errorf("unknown event type: %s", event.Type)
	}
}
