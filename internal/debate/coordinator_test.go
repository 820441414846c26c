package debate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/config"
	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/judge"
	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/models"
	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/store"
)

// stubGen always returns the same judge output.
type stubGen struct{ out string }

func (stubGen) Reset(context.Context) error { return nil }
func (s stubGen) Generate(context.Context, string) (string, error) {
	return s.out, nil
}
func (s stubGen) GenerateStream(_ context.Context, _ string, fn func(string)) error {
	fn(s.out)
	return nil
}

type fixture struct {
	coord *Coordinator
	st    *store.MemoryStore
	sess  *models.Session
	fc    *clockwork.FakeClock
	self  models.Participant
	opp   models.Participant
}

// newFixture builds an initialized coordinator for alice against bob without
// starting the poll loops, so each test drives the polling by hand.
func newFixture(t *testing.T, status models.SessionStatus) *fixture {
	t.Helper()

	st := store.NewMemoryStore()
	sess := seedSession(t, st, status)
	fc := clockwork.NewFakeClockAt(sess.CreatedAt)

	cfg := config.Default()
	turnJudge := judge.NewTurnJudge(
		stubGen{out: "SCORE: 7\nREASON: well argued"},
		judge.Config{MaxAttempts: 1},
		clockwork.NewRealClock(),
	)

	coord := NewCoordinator(CoordinatorConfig{
		Store:        st,
		Judge:        turnJudge,
		Config:       cfg,
		Clock:        fc,
		OpponentType: "human",
	})

	loaded, err := coord.init(context.Background(), sess.ID, sess.Participants[0].ID)
	require.NoError(t, err)
	t.Cleanup(coord.runCancel)

	if status == models.SessionStatusInProgress {
		coord.enterActive(loaded)
	}

	return &fixture{
		coord: coord,
		st:    st,
		sess:  sess,
		fc:    fc,
		self:  sess.Participants[0],
		opp:   sess.Participants[1],
	}
}

func (f *fixture) waitScored(t *testing.T, id uuid.UUID, count int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return f.coord.Totals(id).Count == count
	}, time.Second, 5*time.Millisecond, "expected %d scored turns for %s", count, id)
}

func TestSubmitUtteranceAdvancesTurn(t *testing.T) {
	f := newFixture(t, models.SessionStatusInProgress)
	ctx := context.Background()

	require.True(t, f.coord.IsMyTurn())
	require.NoError(t, f.coord.SubmitUtterance(ctx, "remote work removes commutes"))

	stored, err := f.st.GetSession(ctx, f.sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TurnNumber)
	assert.Equal(t, f.opp.ID, stored.CurrentTurnID)
	assert.False(t, f.coord.IsMyTurn())

	msgs, err := f.st.MessagesSince(ctx, f.sess.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, f.self.ID, msgs[0].SpeakerID)

	// The own utterance is judged at submit time.
	f.waitScored(t, f.self.ID, 1)
	assert.Equal(t, 7, f.coord.Totals(f.self.ID).Total)
}

func TestSubmitUtteranceRejectedOffTurn(t *testing.T) {
	f := newFixture(t, models.SessionStatusInProgress)
	ctx := context.Background()

	require.NoError(t, f.coord.SubmitUtterance(ctx, "first"))
	assert.ErrorIs(t, f.coord.SubmitUtterance(ctx, "second"), ErrNotYourTurn)
}

func TestSubmitUtteranceRejectedOutsideActive(t *testing.T) {
	f := newFixture(t, models.SessionStatusPrep)
	assert.ErrorIs(t, f.coord.SubmitUtterance(context.Background(), "too early"), ErrNotActive)
}

func TestPollMergesOpponentMessagesOnce(t *testing.T) {
	f := newFixture(t, models.SessionStatusInProgress)
	ctx := context.Background()

	msg := models.Utterance{
		ID:         uuid.New(),
		SessionID:  f.sess.ID,
		TurnNumber: 1,
		SpeakerID:  f.opp.ID,
		Text:       "offices build culture",
	}
	require.NoError(t, f.st.InsertMessage(ctx, &msg))

	f.coord.pollMessages(ctx)
	// Re-polling the same window must not double anything.
	f.coord.pollMessages(ctx)

	assert.Len(t, f.coord.History(), 1)
	f.waitScored(t, f.opp.ID, 1)
	assert.Equal(t, 7, f.coord.Totals(f.opp.ID).Total)
}

func TestTurnCacheIsMonotonic(t *testing.T) {
	f := newFixture(t, models.SessionStatusInProgress)

	f.coord.ingestTurn(&models.Session{TurnNumber: 3, CurrentTurnID: f.self.ID})
	assert.Equal(t, 3, f.coord.TurnNumber())

	// A lagging replica reports an older turn; the cache must not rewind.
	f.coord.ingestTurn(&models.Session{TurnNumber: 1, CurrentTurnID: f.opp.ID})
	assert.Equal(t, 3, f.coord.TurnNumber())
	assert.True(t, f.coord.IsMyTurn())
}

func TestPrepElapseStartsDebate(t *testing.T) {
	f := newFixture(t, models.SessionStatusPrep)
	ctx := context.Background()

	// Prep has not elapsed yet.
	f.coord.pollStatus(ctx)
	assert.Equal(t, models.SessionStatusPrep, f.coord.Status())

	f.fc.Advance(f.coord.cfg.PrepTime() + time.Second)
	f.coord.pollStatus(ctx)

	assert.Equal(t, models.SessionStatusInProgress, f.coord.Status())
	stored, err := f.st.GetSession(ctx, f.sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusInProgress, stored.Status)
}

func TestEndDebateProducesVerdict(t *testing.T) {
	f := newFixture(t, models.SessionStatusInProgress)
	ctx := context.Background()

	require.NoError(t, f.coord.SubmitUtterance(ctx, "my closing argument"))
	f.waitScored(t, f.self.ID, 1)

	require.NoError(t, f.coord.EndDebate(ctx))

	out, ok := f.coord.Outcome()
	require.True(t, ok)
	assert.Equal(t, f.self.ID, out.WinnerID)
	assert.False(t, out.Forfeit)
	assert.Equal(t, 7, out.Totals[f.self.ID].Total)

	stored, err := f.st.GetSession(ctx, f.sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusFinished, stored.Status)

	select {
	case <-f.coord.Done():
	default:
		t.Fatal("Done must be closed after the verdict")
	}
}

func TestNoScoringAfterLeavingActive(t *testing.T) {
	f := newFixture(t, models.SessionStatusInProgress)
	ctx := context.Background()

	require.NoError(t, f.coord.EndDebate(ctx))
	require.True(t, f.coord.agg.Frozen())

	// A straggler message observed after the end contributes nothing.
	msg := models.Utterance{
		ID:         uuid.New(),
		SessionID:  f.sess.ID,
		TurnNumber: 1,
		SpeakerID:  f.opp.ID,
		Text:       "too late",
	}
	require.NoError(t, f.st.InsertMessage(ctx, &msg))
	f.coord.pollMessages(ctx)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, f.coord.Totals(f.opp.ID).Count)
}

func TestExplicitForfeitAwardsOpponent(t *testing.T) {
	f := newFixture(t, models.SessionStatusInProgress)
	ctx := context.Background()

	require.NoError(t, f.coord.Forfeit(ctx))

	out, ok := f.coord.Outcome()
	require.True(t, ok)
	assert.True(t, out.Forfeit)
	assert.Equal(t, f.opp.ID, out.WinnerID)
	assert.Equal(t, f.coord.cfg.Debate.RoutScore, out.Totals[f.opp.ID].Total)
	assert.Equal(t, 0, out.Totals[f.self.ID].Total)

	stored, err := f.st.GetSession(ctx, f.sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusAbandoned, stored.Status)

	// Forfeit is reported exactly once even if something retries it.
	f.coord.declareForfeit(ctx, f.self, f.opp)
	out2, _ := f.coord.Outcome()
	assert.Equal(t, out.WinnerID, out2.WinnerID)
}

func TestSilenceDeclaresForfeitAgainstOpponent(t *testing.T) {
	f := newFixture(t, models.SessionStatusInProgress)
	ctx := context.Background()

	f.fc.Advance(f.coord.cfg.ForfeitWindow() + time.Second)
	f.coord.pollStatus(ctx)

	out, ok := f.coord.Outcome()
	require.True(t, ok)
	assert.True(t, out.Forfeit)
	assert.Equal(t, f.self.ID, out.WinnerID)
	assert.Equal(t, f.coord.cfg.Debate.RoutScore, out.Totals[f.self.ID].Total)

	stored, err := f.st.GetSession(ctx, f.sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusAbandoned, stored.Status)
}

func TestHandoffRetryAfterFailedWrite(t *testing.T) {
	f := newFixture(t, models.SessionStatusInProgress)
	ctx := context.Background()

	// Simulate an utterance made durable whose handoff write was lost.
	f.coord.mu.Lock()
	f.coord.pending = &pendingHandoff{next: f.opp.ID, turn: 1}
	f.coord.turnNumber = 1
	f.coord.currentTurnID = f.opp.ID
	f.coord.mu.Unlock()

	f.coord.pollTurn(ctx)

	stored, err := f.st.GetSession(ctx, f.sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TurnNumber)
	assert.Equal(t, f.opp.ID, stored.CurrentTurnID)

	f.coord.mu.Lock()
	assert.Nil(t, f.coord.pending)
	f.coord.mu.Unlock()
}

// hintWatcher is a push surface whose hints must come from the writers,
// like the NATS watcher.
type hintWatcher struct {
	mu     sync.Mutex
	nudges []uuid.UUID
}

func (h *hintWatcher) Watch(context.Context, uuid.UUID) (<-chan struct{}, error) {
	return make(chan struct{}), nil
}

func (h *hintWatcher) Nudge(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nudges = append(h.nudges, id)
}

func TestWritesNudgeTheWatcher(t *testing.T) {
	st := store.NewMemoryStore()
	sess := seedSession(t, st, models.SessionStatusInProgress)
	hw := &hintWatcher{}
	ctx := context.Background()

	coord := NewCoordinator(CoordinatorConfig{
		Store:   st,
		Watcher: hw,
		Judge: judge.NewTurnJudge(
			stubGen{out: "SCORE: 7\nREASON: well argued"},
			judge.Config{MaxAttempts: 1},
			clockwork.NewRealClock(),
		),
		Config:       config.Default(),
		Clock:        clockwork.NewFakeClockAt(sess.CreatedAt),
		OpponentType: "human",
	})
	loaded, err := coord.init(ctx, sess.ID, sess.Participants[0].ID)
	require.NoError(t, err)
	t.Cleanup(coord.runCancel)
	coord.enterActive(loaded)

	require.NoError(t, coord.SubmitUtterance(ctx, "opening argument"))
	require.NoError(t, coord.EndDebate(ctx))

	hw.mu.Lock()
	defer hw.mu.Unlock()
	// The submit, the judging transition, and the finish transition each
	// publish a hint for the opponent.
	require.GreaterOrEqual(t, len(hw.nudges), 3)
	for _, id := range hw.nudges {
		assert.Equal(t, sess.ID, id)
	}
}

func TestJoinAtJudgingCompletesVerdict(t *testing.T) {
	// The client that wrote JUDGING died before writing FINISHED. A client
	// loading the session in that state must still reach the verdict.
	f := newFixture(t, models.SessionStatusJudging)
	ctx := context.Background()

	f.coord.pollStatus(ctx)

	out, ok := f.coord.Outcome()
	require.True(t, ok)
	assert.False(t, out.Forfeit)

	stored, err := f.st.GetSession(ctx, f.sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusFinished, stored.Status)

	select {
	case <-f.coord.Done():
	default:
		t.Fatal("Done must be closed after joining at JUDGING")
	}
}

func TestObservedAbandonmentConverges(t *testing.T) {
	f := newFixture(t, models.SessionStatusInProgress)
	ctx := context.Background()

	// The opponent's client detected our silence and abandoned the session.
	require.NoError(t, f.st.UpdateStatus(ctx, f.sess.ID, models.SessionStatusInProgress, models.SessionStatusAbandoned))

	f.coord.pollStatus(ctx)

	out, ok := f.coord.Outcome()
	require.True(t, ok)
	assert.True(t, out.Forfeit)
	// No local evidence of opponent silence, so the abandonment was ours.
	assert.Equal(t, f.opp.ID, out.WinnerID)
}
