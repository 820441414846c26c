package gateway

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/models"
	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/scoring"
)

// Broadcaster translates engine notifications into spectator events for one
// session. It satisfies the debate engine's Events interface.
type Broadcaster struct {
	cm        *ConnectionManager
	sessionID uuid.UUID
}

// NewBroadcaster creates a broadcaster bound to one session.
func NewBroadcaster(cm *ConnectionManager, sessionID uuid.UUID) *Broadcaster {
	return &Broadcaster{cm: cm, sessionID: sessionID}
}

func (b *Broadcaster) SessionStarted(session *models.Session) {
	b.publish(EventTypeSessionStarted, SessionStartedPayload{
		TopicTitle: session.Topic.Title,
		Participants: []string{
			session.Participants[0].ID.String(),
			session.Participants[1].ID.String(),
		},
		RemainingSec: session.RemainingSec,
		StartedAt:    time.Now(),
	})
}

func (b *Broadcaster) TurnTaken(msg models.Utterance) {
	b.publish(EventTypeTurnTaken, TurnTakenPayload{
		TurnNumber:  msg.TurnNumber,
		SpeakerID:   msg.SpeakerID.String(),
		Text:        msg.Text,
		SubmittedAt: msg.SubmittedAt,
	})
}

func (b *Broadcaster) TurnScored(score models.TurnScore) {
	b.publish(EventTypeTurnScored, TurnScoredPayload{
		TurnNumber:      score.TurnNumber,
		SpeakerID:       score.SpeakerID.String(),
		Score:           score.Score,
		Reasoning:       score.Reasoning,
		PolicyViolation: score.PolicyViolation,
	})
}

func (b *Broadcaster) TimerTick(remaining time.Duration) {
	b.publish(EventTypeTimerTick, TimerTickPayload{
		RemainingSec: int(remaining / time.Second),
		TickedAt:     time.Now(),
	})
}

func (b *Broadcaster) SessionFinished(outcome scoring.Outcome) {
	b.publish(EventTypeSessionFinished, verdictPayload(outcome))
}

func (b *Broadcaster) SessionAbandoned(outcome scoring.Outcome) {
	b.publish(EventTypeSessionAbandoned, verdictPayload(outcome))
}

func (b *Broadcaster) publish(eventType EventType, payload interface{}) {
	event, err := NewEvent(b.sessionID, eventType, payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to build spectator event")
		return
	}
	b.cm.Broadcast(b.sessionID, event)
}

func verdictPayload(outcome scoring.Outcome) VerdictPayload {
	p := VerdictPayload{
		Draw:    outcome.Draw,
		Forfeit: outcome.Forfeit,
		Totals:  make(map[string]int, len(outcome.Totals)),
	}
	if outcome.WinnerID != uuid.Nil {
		p.WinnerID = outcome.WinnerID.String()
	}
	for id, t := range outcome.Totals {
		p.Totals[id.String()] = t.Total
	}
	return p
}
