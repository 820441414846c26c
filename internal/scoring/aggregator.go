// Package scoring accumulates per-turn scores and derives the final verdict.
// Everything here is pure bookkeeping: no I/O, synchronous, mutex guarded.
package scoring

import (
	"sync"

	"github.com/google/uuid"

	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/models"
)

// Totals is one participant's running score.
type Totals struct {
	Total int `json:"total"`
	Count int `json:"count"`
}

// Average returns the mean per-turn score.
func (t Totals) Average() float64 {
	if t.Count == 0 {
		return 0
	}
	return float64(t.Total) / float64(t.Count)
}

type turnKey struct {
	speaker uuid.UUID
	turn    int
}

// Aggregator accumulates TurnScores into per-participant totals. Totals are
// monotonically non-decreasing while the session is active and frozen at a
// terminal status; duplicate (speaker, turn) pairs are ignored so re-polled
// messages never double-count.
type Aggregator struct {
	mu     sync.Mutex
	totals map[uuid.UUID]Totals
	seen   map[turnKey]bool
	frozen bool
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		totals: make(map[uuid.UUID]Totals),
		seen:   make(map[turnKey]bool),
	}
}

// Record folds one TurnScore into the totals. Returns false when the score
// was dropped (frozen aggregator or duplicate turn).
func (a *Aggregator) Record(score models.TurnScore) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.frozen {
		return false
	}
	key := turnKey{speaker: score.SpeakerID, turn: score.TurnNumber}
	if a.seen[key] {
		return false
	}
	a.seen[key] = true

	t := a.totals[score.SpeakerID]
	t.Total += score.Score
	t.Count++
	a.totals[score.SpeakerID] = t
	return true
}

// Totals returns the running totals for one participant.
func (a *Aggregator) Totals(id uuid.UUID) Totals {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totals[id]
}

// Freeze stops all further accumulation. Called on entering a terminal
// status; late judge results recorded after this are dropped.
func (a *Aggregator) Freeze() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frozen = true
}

// Frozen reports whether the aggregator has been frozen.
func (a *Aggregator) Frozen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frozen
}

// SetRout overwrites both totals with the deterministic forfeit outcome and
// freezes the aggregator: the present side gets the configured rout score,
// the absent side gets zero.
func (a *Aggregator) SetRout(present, absent uuid.UUID, routScore int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totals[present] = Totals{Total: routScore, Count: 1}
	a.totals[absent] = Totals{Total: 0, Count: 0}
	a.frozen = true
}
