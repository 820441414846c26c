package debate

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/models"
	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/store"
)

func seedSession(t *testing.T, st store.Store, status models.SessionStatus) *models.Session {
	t.Helper()
	alice := models.Participant{ID: uuid.New(), DisplayName: "alice", Side: models.SideFor}
	bob := models.Participant{ID: uuid.New(), DisplayName: "bob", Side: models.SideAgainst}
	sess := &models.Session{
		ID:            uuid.New(),
		Topic:         models.Topic{Title: "remote work beats the office"},
		Participants:  [2]models.Participant{alice, bob},
		Status:        status,
		CurrentTurnID: alice.ID,
		RemainingSec:  300,
		PrepSec:       30,
	}
	require.NoError(t, st.CreateSession(context.Background(), sess))
	return sess
}

func TestStateMachineValidTransitions(t *testing.T) {
	st := store.NewMemoryStore()
	sess := seedSession(t, st, models.SessionStatusPrep)
	sm := NewStateMachine(st, sess.ID, sess.Status)
	ctx := context.Background()

	require.NoError(t, sm.Transition(ctx, models.SessionStatusPrep, models.SessionStatusInProgress))
	require.NoError(t, sm.Transition(ctx, models.SessionStatusInProgress, models.SessionStatusJudging))
	require.NoError(t, sm.Transition(ctx, models.SessionStatusJudging, models.SessionStatusFinished))

	stored, err := st.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusFinished, stored.Status)
	assert.Equal(t, models.SessionStatusFinished, sm.Status())
}

func TestStateMachineRejectsInvalidEdges(t *testing.T) {
	st := store.NewMemoryStore()
	sess := seedSession(t, st, models.SessionStatusPrep)
	sm := NewStateMachine(st, sess.ID, sess.Status)
	ctx := context.Background()

	assert.Error(t, sm.Transition(ctx, models.SessionStatusPrep, models.SessionStatusFinished))
	assert.Error(t, sm.Transition(ctx, models.SessionStatusPrep, models.SessionStatusJudging))
	assert.Error(t, sm.Transition(ctx, models.SessionStatusPrep, models.SessionStatusAbandoned))

	// Nothing reached the store.
	stored, err := st.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusPrep, stored.Status)
}

func TestStateMachineLostRaceConverges(t *testing.T) {
	st := store.NewMemoryStore()
	sess := seedSession(t, st, models.SessionStatusPrep)

	// The other client already started the debate.
	require.NoError(t, st.UpdateStatus(context.Background(), sess.ID, models.SessionStatusPrep, models.SessionStatusInProgress))

	sm := NewStateMachine(st, sess.ID, models.SessionStatusPrep)
	err := sm.Transition(context.Background(), models.SessionStatusPrep, models.SessionStatusInProgress)

	// Losing the conditional write is convergence, not failure.
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusInProgress, sm.Status())
}

func TestStateMachineObserveIsForwardOnly(t *testing.T) {
	st := store.NewMemoryStore()
	sess := seedSession(t, st, models.SessionStatusInProgress)
	sm := NewStateMachine(st, sess.ID, models.SessionStatusInProgress)

	assert.False(t, sm.Observe(models.SessionStatusPrep), "stale read must not rewind")
	assert.False(t, sm.Observe(models.SessionStatusInProgress), "equal read is a no-op")
	assert.True(t, sm.Observe(models.SessionStatusJudging))
	assert.Equal(t, models.SessionStatusJudging, sm.Status())
}

func TestStateMachineTerminalIsSticky(t *testing.T) {
	st := store.NewMemoryStore()
	sess := seedSession(t, st, models.SessionStatusInProgress)
	sm := NewStateMachine(st, sess.ID, models.SessionStatusInProgress)

	require.True(t, sm.Observe(models.SessionStatusAbandoned))
	assert.False(t, sm.Observe(models.SessionStatusFinished))
	assert.Equal(t, models.SessionStatusAbandoned, sm.Status())
}

func TestStateMachineLeaveActiveHooksFireOnce(t *testing.T) {
	st := store.NewMemoryStore()
	sess := seedSession(t, st, models.SessionStatusInProgress)
	sm := NewStateMachine(st, sess.ID, models.SessionStatusInProgress)

	fired := 0
	sm.OnLeaveActive(func() { fired++ })

	require.NoError(t, sm.Transition(context.Background(), models.SessionStatusInProgress, models.SessionStatusJudging))
	assert.Equal(t, 1, fired)

	// A later observation of a terminal state must not re-fire the hooks.
	sm.Observe(models.SessionStatusFinished)
	assert.Equal(t, 1, fired)
}

func TestStateMachineLeaveActiveHooksFireOnObserve(t *testing.T) {
	st := store.NewMemoryStore()
	sess := seedSession(t, st, models.SessionStatusInProgress)
	sm := NewStateMachine(st, sess.ID, models.SessionStatusInProgress)

	fired := 0
	sm.OnLeaveActive(func() { fired++ })

	// The other client wrote the transition; this client only observes it.
	require.True(t, sm.Observe(models.SessionStatusAbandoned))
	assert.Equal(t, 1, fired)
}
