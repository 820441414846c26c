// Package debate contains the session state machine, the turn coordinator,
// the local countdown clock, and the forfeit detector: the engine that keeps
// two independently polling clients convergent on whose turn it is, how much
// time is left, and whether the match is over.
package debate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/models"
	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/store"
)

// statusRank orders statuses so that observed store values can only move the
// local view forward. Terminal states share the highest rank.
var statusRank = map[models.SessionStatus]int{
	models.SessionStatusPrep:       0,
	models.SessionStatusInProgress: 1,
	models.SessionStatusJudging:    2,
	models.SessionStatusFinished:   3,
	models.SessionStatusAbandoned:  3,
}

// validTransitions is the authoritative lifecycle: PREP -> IN_PROGRESS ->
// JUDGING -> FINISHED, with IN_PROGRESS -> ABANDONED as the forfeit exit.
var validTransitions = map[models.SessionStatus][]models.SessionStatus{
	models.SessionStatusPrep:       {models.SessionStatusInProgress},
	models.SessionStatusInProgress: {models.SessionStatusJudging, models.SessionStatusAbandoned},
	models.SessionStatusJudging:    {models.SessionStatusFinished},
}

// StateMachine owns the local view of the session lifecycle and issues the
// guarded status writes. Both the store record and each client's local state
// converge to the same transition sequence because writes are conditional
// and observations are forward-only.
type StateMachine struct {
	st        store.Store
	sessionID uuid.UUID

	mu          sync.Mutex
	status      models.SessionStatus
	leaveActive []func()
	leftActive  bool
}

// NewStateMachine creates a state machine seeded with the status read at
// session load.
func NewStateMachine(st store.Store, sessionID uuid.UUID, initial models.SessionStatus) *StateMachine {
	return &StateMachine{st: st, sessionID: sessionID, status: initial}
}

// Status returns the current local status.
func (m *StateMachine) Status() models.SessionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// OnLeaveActive registers a hook fired exactly once when the session leaves
// IN_PROGRESS, before the status write reaches the store. This is the
// broadcast cancellation point for poll loops, the clock, and judge calls.
func (m *StateMachine) OnLeaveActive(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveActive = append(m.leaveActive, fn)
}

// Observe folds a status read from the store into the local view. Backward
// or equal observations are ignored; terminal states are sticky. Returns
// true when the local status changed.
func (m *StateMachine) Observe(remote models.SessionStatus) bool {
	m.mu.Lock()
	if statusRank[remote] <= statusRank[m.status] || m.status.Terminal() {
		m.mu.Unlock()
		return false
	}
	wasActive := m.status == models.SessionStatusInProgress
	m.status = remote
	hooks := m.takeLeaveHooksLocked(wasActive)
	m.mu.Unlock()

	runHooks(hooks)
	return true
}

// Transition performs from -> to: it validates the edge, fires the
// leave-active hooks when departing IN_PROGRESS, then issues the conditional
// store write. A store.ErrConflict means another client won the same race;
// the local view still advances and the next poll confirms convergence.
func (m *StateMachine) Transition(ctx context.Context, from, to models.SessionStatus) error {
	if !edgeAllowed(from, to) {
		return fmt.Errorf("invalid transition %s -> %s", from, to)
	}

	m.mu.Lock()
	if m.status != from {
		m.mu.Unlock()
		return fmt.Errorf("local status is %s, not %s: %w", m.status, from, store.ErrConflict)
	}
	m.status = to
	hooks := m.takeLeaveHooksLocked(from == models.SessionStatusInProgress)
	m.mu.Unlock()

	// Cancellation must land before the write: nothing may keep scoring a
	// match that is conceptually over.
	runHooks(hooks)

	err := m.st.UpdateStatus(ctx, m.sessionID, from, to)
	if errors.Is(err, store.ErrConflict) {
		log.Debug().
			Str("session_id", m.sessionID.String()).
			Str("from", string(from)).
			Str("to", string(to)).
			Msg("status write lost the race; converging via poll")
		return nil
	}
	if err != nil {
		return fmt.Errorf("status write %s -> %s: %w", from, to, err)
	}

	log.Info().
		Str("session_id", m.sessionID.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("session status advanced")
	return nil
}

func (m *StateMachine) takeLeaveHooksLocked(leaving bool) []func() {
	if !leaving || m.leftActive {
		return nil
	}
	m.leftActive = true
	hooks := m.leaveActive
	m.leaveActive = nil
	return hooks
}

func runHooks(hooks []func()) {
	for _, fn := range hooks {
		fn()
	}
}

func edgeAllowed(from, to models.SessionStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
