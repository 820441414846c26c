package debate

import (
	"time"

	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/models"
	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/scoring"
)

// Events receives engine notifications for UI feedback and the spectator
// gateway. Implementations must not block; the coordinator calls these from
// its poll and scoring goroutines.
type Events interface {
	SessionStarted(session *models.Session)
	TurnTaken(msg models.Utterance)
	TurnScored(score models.TurnScore)
	TimerTick(remaining time.Duration)
	SessionFinished(outcome scoring.Outcome)
	SessionAbandoned(outcome scoring.Outcome)
}

// NopEvents discards all notifications.
type NopEvents struct{}

func (NopEvents) SessionStarted(*models.Session)   {}
func (NopEvents) TurnTaken(models.Utterance)       {}
func (NopEvents) TurnScored(models.TurnScore)      {}
func (NopEvents) TimerTick(time.Duration)          {}
func (NopEvents) SessionFinished(scoring.Outcome)  {}
func (NopEvents) SessionAbandoned(scoring.Outcome) {}
