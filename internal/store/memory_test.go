package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/models"
)

func newSession(alice, bob models.Participant) *models.Session {
	return &models.Session{
		ID:            uuid.New(),
		Topic:         models.Topic{Title: "cities should ban cars"},
		Participants:  [2]models.Participant{alice, bob},
		Status:        models.SessionStatusPrep,
		CurrentTurnID: alice.ID,
		RemainingSec:  300,
		PrepSec:       30,
	}
}

func debaters() (models.Participant, models.Participant) {
	return models.Participant{ID: uuid.New(), DisplayName: "alice", Side: models.SideFor},
		models.Participant{ID: uuid.New(), DisplayName: "bob", Side: models.SideAgainst}
}

func TestMemoryStoreSessionRoundTrip(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	alice, bob := debaters()
	sess := newSession(alice, bob)

	require.NoError(t, m.CreateSession(ctx, sess))
	assert.ErrorIs(t, m.CreateSession(ctx, sess), ErrDuplicate)

	got, err := m.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, models.SessionStatusPrep, got.Status)
	assert.Equal(t, alice.ID, got.CurrentTurnID)
	assert.Equal(t, 0, got.TurnNumber)
	assert.Equal(t, 300, got.RemainingSec)
	assert.Equal(t, [2]models.Participant{alice, bob}, got.Participants)

	_, err = m.GetSession(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreConditionalStatusWrite(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	alice, bob := debaters()
	sess := newSession(alice, bob)
	require.NoError(t, m.CreateSession(ctx, sess))

	require.NoError(t, m.UpdateStatus(ctx, sess.ID, models.SessionStatusPrep, models.SessionStatusInProgress))

	// The losing client's identical guarded write fails cleanly.
	assert.ErrorIs(t, m.UpdateStatus(ctx, sess.ID, models.SessionStatusPrep, models.SessionStatusInProgress), ErrConflict)

	got, err := m.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusInProgress, got.Status)
}

func TestMemoryStoreTurnWriteGuard(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	alice, bob := debaters()
	sess := newSession(alice, bob)
	require.NoError(t, m.CreateSession(ctx, sess))

	require.NoError(t, m.UpdateTurn(ctx, sess.ID, bob.ID, 1))

	// Equal or lower turn numbers are stale writes.
	assert.ErrorIs(t, m.UpdateTurn(ctx, sess.ID, alice.ID, 1), ErrConflict)
	assert.ErrorIs(t, m.UpdateTurn(ctx, sess.ID, alice.ID, 0), ErrConflict)

	got, err := m.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TurnNumber)
	assert.Equal(t, bob.ID, got.CurrentTurnID)
}

func TestMemoryStoreMessagesOrderedAndDeduplicated(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	alice, bob := debaters()
	sess := newSession(alice, bob)
	require.NoError(t, m.CreateSession(ctx, sess))

	second := models.Utterance{ID: uuid.New(), SessionID: sess.ID, TurnNumber: 2, SpeakerID: bob.ID, Text: "b"}
	first := models.Utterance{ID: uuid.New(), SessionID: sess.ID, TurnNumber: 1, SpeakerID: alice.ID, Text: "a"}
	require.NoError(t, m.InsertMessage(ctx, &second))
	require.NoError(t, m.InsertMessage(ctx, &first))

	assert.ErrorIs(t, m.InsertMessage(ctx, &first), ErrDuplicate)

	msgs, err := m.MessagesSince(ctx, sess.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, 1, msgs[0].TurnNumber)
	assert.Equal(t, 2, msgs[1].TurnNumber)

	tail, err := m.MessagesSince(ctx, sess.ID, 1)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, 2, tail[0].TurnNumber)
}

func TestMemoryStoreRemainingTime(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	alice, bob := debaters()
	sess := newSession(alice, bob)
	require.NoError(t, m.CreateSession(ctx, sess))

	require.NoError(t, m.UpdateRemainingTime(ctx, sess.ID, 142*time.Second))

	got, err := m.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 142, got.RemainingSec)
	assert.Equal(t, 142*time.Second, got.Remaining())
}

func TestMemoryStoreWatchDeliversHints(t *testing.T) {
	m := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	alice, bob := debaters()
	sess := newSession(alice, bob)
	require.NoError(t, m.CreateSession(ctx, sess))

	hints, err := m.Watch(ctx, sess.ID)
	require.NoError(t, err)

	require.NoError(t, m.UpdateStatus(ctx, sess.ID, models.SessionStatusPrep, models.SessionStatusInProgress))

	select {
	case <-hints:
	case <-time.After(time.Second):
		t.Fatal("expected a wake hint after a session write")
	}
}
