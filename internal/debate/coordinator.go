package debate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/config"
	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/judge"
	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/models"
	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/profile"
	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/scoring"
	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/store"
)

var (
	// ErrNotYourTurn rejects a submission while the opponent holds the turn.
	ErrNotYourTurn = errors.New("debate: not your turn")
	// ErrNotActive rejects writes outside IN_PROGRESS.
	ErrNotActive = errors.New("debate: session is not in progress")
)

// CoordinatorConfig wires a Coordinator's collaborators.
type CoordinatorConfig struct {
	Store        store.Store
	Watcher      store.Watcher // optional push surface; nil means pure polling
	Judge        *judge.TurnJudge
	Config       *config.Config
	Clock        clockwork.Clock
	Events       Events
	Profile      profile.Sink
	SelfID       uuid.UUID
	OpponentType string // "human" or "ai", recorded in the final result
}

type pendingHandoff struct {
	next uuid.UUID
	turn int
}

// Coordinator reconciles the local participant's view with the session store
// and issues the writes that advance turn state. It runs three independent
// poll loops (messages, turn, status), the local countdown, and one scoring
// task per accepted utterance; all of it hangs off a session-scoped context
// that is cancelled the moment the session leaves IN_PROGRESS.
type Coordinator struct {
	st      store.Store
	watcher store.Watcher
	nudger  store.Nudger // non-nil when the watcher needs client-side hints
	judge   *judge.TurnJudge
	tracker *judge.Tracker
	agg     *scoring.Aggregator
	cfg     *config.Config
	clock   clockwork.Clock
	events  Events
	sink    profile.Sink

	sessionID    uuid.UUID
	self         models.Participant
	opponent     models.Participant
	first        models.Participant // tie-rule ordering comes from the session record
	second       models.Participant
	topic        models.Topic
	createdAt    time.Time
	opponentType string

	sm    *StateMachine
	local *LocalClock
	ffd   *ForfeitDetector

	mu            sync.Mutex
	turnNumber    int // monotonic local turn cache; never rewinds
	currentTurnID uuid.UUID
	lastMsgTurn   int
	history       []models.Utterance
	seen          map[uuid.UUID]bool
	pending       *pendingHandoff
	lastPersist   time.Time

	runCtx       context.Context
	runCancel    context.CancelFunc
	activeCtx    context.Context
	activeCancel context.CancelFunc
	activeOnce   sync.Once

	finishOnce sync.Once
	outcome    *scoring.Outcome
	done       chan struct{}
}

// NewCoordinator creates a Coordinator for one local participant. Call Run
// to start it.
func NewCoordinator(cc CoordinatorConfig) *Coordinator {
	events := cc.Events
	if events == nil {
		events = NopEvents{}
	}
	sink := cc.Profile
	if sink == nil {
		sink = profile.NopSink{}
	}
	nudger, _ := cc.Watcher.(store.Nudger)
	return &Coordinator{
		st:           cc.Store,
		watcher:      cc.Watcher,
		nudger:       nudger,
		judge:        cc.Judge,
		tracker:      judge.NewTracker(),
		agg:          scoring.NewAggregator(),
		cfg:          cc.Config,
		clock:        cc.Clock,
		events:       events,
		sink:         sink,
		sessionID:    uuid.Nil,
		opponentType: cc.OpponentType,
		seen:         make(map[uuid.UUID]bool),
		done:         make(chan struct{}),
	}
}

// init loads the session and seeds the local state: state machine, local
// countdown, forfeit detector, and the broadcast cancellation hook.
func (c *Coordinator) init(ctx context.Context, sessionID uuid.UUID, selfID uuid.UUID) (*models.Session, error) {
	sess, err := c.st.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if err := c.bind(sess, selfID); err != nil {
		return nil, err
	}

	c.runCtx, c.runCancel = context.WithCancel(ctx)

	c.sm = NewStateMachine(c.st, c.sessionID, sess.Status)
	c.local = NewLocalClock(c.clock, c.cfg.DebateTime())
	c.local.Reconcile(sess.Remaining()) // checkpoint: session load
	c.local.OnTick(c.events.TimerTick)
	c.ffd = NewForfeitDetector(c.clock, c.cfg.ForfeitWindow())

	// Broadcast cancellation: leaving IN_PROGRESS stops judge calls, the
	// clock, and freezes the totals, in that order, before the status write.
	c.sm.OnLeaveActive(func() {
		c.tracker.CancelAll()
		c.mu.Lock()
		cancel := c.activeCancel
		c.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		c.agg.Freeze()
	})
	return sess, nil
}

// Run loads the session and drives the poll loops until the session reaches
// a terminal status or ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context, sessionID uuid.UUID, selfID uuid.UUID) error {
	sess, err := c.init(ctx, sessionID, selfID)
	if err != nil {
		return err
	}
	defer c.runCancel()

	switch {
	case sess.Status == models.SessionStatusInProgress:
		c.enterActive(sess)
	case sess.Status == models.SessionStatusJudging:
		// The client that wrote JUDGING may have died before finishing.
		// Whoever loads the session in this state completes the verdict.
		c.finish(ctx)
		return nil
	case sess.Status.Terminal():
		c.finishFromStatus(sess.Status)
		return nil
	}

	var wg sync.WaitGroup
	loops := []struct {
		name     string
		interval time.Duration
		poll     func(context.Context)
		hinted   bool
	}{
		{"messages", c.cfg.MessagePoll(), c.pollMessages, true},
		{"turn", c.cfg.TurnPoll(), c.pollTurn, true},
		{"status", c.cfg.StatusPoll(), c.pollStatus, false},
	}
	for _, l := range loops {
		wg.Add(1)
		go c.runLoop(&wg, l.name, l.interval, l.poll, l.hinted)
	}

	wg.Add(1)
	go c.watchExpiry(&wg)

	select {
	case <-c.done:
	case <-c.runCtx.Done():
	}
	c.runCancel()
	wg.Wait()
	return nil
}

func (c *Coordinator) bind(sess *models.Session, selfID uuid.UUID) error {
	self, ok := sess.Participant(selfID)
	if !ok {
		return fmt.Errorf("participant %s is not part of session %s", selfID, sess.ID)
	}
	opp, _ := sess.Opponent(selfID)

	c.sessionID = sess.ID
	c.self = self
	c.opponent = opp
	c.first = sess.Participants[0]
	c.second = sess.Participants[1]
	c.topic = sess.Topic
	c.createdAt = sess.CreatedAt
	c.turnNumber = sess.TurnNumber
	c.currentTurnID = sess.CurrentTurnID
	c.lastMsgTurn = 0
	return nil
}

// runLoop is one periodic poll loop; wake hints from the store's push
// surface short-circuit the delay when available.
func (c *Coordinator) runLoop(wg *sync.WaitGroup, name string, interval time.Duration, poll func(context.Context), hinted bool) {
	defer wg.Done()

	var hints <-chan struct{}
	if hinted && c.watcher != nil {
		ch, err := c.watcher.Watch(c.runCtx, c.sessionID)
		if err != nil {
			log.Warn().Err(err).Str("loop", name).Msg("watch unavailable, falling back to polling")
		} else {
			hints = ch
		}
	}

	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.runCtx.Done():
			return
		case <-ticker.Chan():
		case <-hints:
		}
		poll(c.runCtx)
	}
}

// pollMessages merges new utterances into local history, ordered by turn
// number and deduplicated by message id.
func (c *Coordinator) pollMessages(ctx context.Context) {
	c.mu.Lock()
	since := c.lastMsgTurn
	c.mu.Unlock()

	msgs, err := c.st.MessagesSince(ctx, c.sessionID, since)
	if err != nil {
		log.Debug().Err(err).Str("session_id", c.sessionID.String()).Msg("message poll failed; retrying next tick")
		return
	}
	for i := range msgs {
		c.mergeMessage(msgs[i])
	}
}

// mergeMessage folds one utterance into local history. New opponent
// messages count as opponent activity and every newly merged utterance is
// dispatched for scoring.
func (c *Coordinator) mergeMessage(msg models.Utterance) {
	c.mu.Lock()
	if c.seen[msg.ID] {
		c.mu.Unlock()
		return
	}
	c.seen[msg.ID] = true
	c.history = append(c.history, msg)
	if msg.TurnNumber > c.lastMsgTurn {
		c.lastMsgTurn = msg.TurnNumber
	}
	prior := c.priorUtteranceLocked(msg)
	c.mu.Unlock()

	if msg.SpeakerID == c.opponent.ID {
		c.ffd.MarkActivity()
	}
	c.events.TurnTaken(msg)
	c.dispatchJudge(msg, prior)
}

// priorUtteranceLocked finds the other speaker's latest utterance before msg.
func (c *Coordinator) priorUtteranceLocked(msg models.Utterance) string {
	var prior string
	priorTurn := -1
	for i := range c.history {
		h := &c.history[i]
		if h.SpeakerID != msg.SpeakerID && h.TurnNumber < msg.TurnNumber && h.TurnNumber > priorTurn {
			prior = h.Text
			priorTurn = h.TurnNumber
		}
	}
	return prior
}

// dispatchJudge runs the scoring pipeline for one utterance as a tracked,
// cancellable background task. Results land in the aggregator only while
// the session is still IN_PROGRESS.
func (c *Coordinator) dispatchJudge(msg models.Utterance, opponentPrior string) {
	base := c.activeContext()
	if base == nil {
		return
	}
	callCtx, done, err := c.tracker.Begin(base)
	if err != nil {
		// Judging already closed for this session.
		return
	}

	speaker := c.self
	if msg.SpeakerID == c.opponent.ID {
		speaker = c.opponent
	}

	go func() {
		defer done()
		ts, err := c.judge.Judge(callCtx, c.topic, speaker, msg.Text, opponentPrior, msg.TurnNumber)
		if err != nil {
			log.Debug().Err(err).
				Int("turn", msg.TurnNumber).
				Str("session_id", c.sessionID.String()).
				Msg("judge call cancelled")
			return
		}
		if callCtx.Err() != nil || c.sm.Status() != models.SessionStatusInProgress {
			// The match ended while the model was thinking; drop the result.
			return
		}
		if c.agg.Record(ts) {
			c.events.TurnScored(ts)
		}
	}()
}

// pollTurn detects turn handoff and retries a failed handoff write.
func (c *Coordinator) pollTurn(ctx context.Context) {
	sess, err := c.st.GetSession(ctx, c.sessionID)
	if err != nil {
		log.Debug().Err(err).Str("session_id", c.sessionID.String()).Msg("turn poll failed; retrying next tick")
		return
	}
	c.ingestTurn(sess)
	c.ingestStatus(ctx, sess)
	c.retryHandoff(ctx, sess)
}

// ingestTurn advances the local turn cache from a store read. Reads below
// the local turn number are replica lag and are ignored: local turn state
// only advances, never rewinds.
func (c *Coordinator) ingestTurn(sess *models.Session) {
	c.mu.Lock()
	if sess.TurnNumber <= c.turnNumber {
		c.mu.Unlock()
		return
	}
	c.turnNumber = sess.TurnNumber
	c.currentTurnID = sess.CurrentTurnID
	c.pending = nil
	myTurn := sess.CurrentTurnID == c.self.ID
	c.mu.Unlock()

	if myTurn {
		// The opponent handed the turn over; that is opponent activity.
		c.ffd.MarkActivity()
	}
	log.Debug().
		Str("session_id", c.sessionID.String()).
		Int("turn", sess.TurnNumber).
		Bool("my_turn", myTurn).
		Msg("turn handoff observed")
}

// retryHandoff re-issues a handoff write that failed after its utterance was
// already durable. The utterance itself is never retried.
func (c *Coordinator) retryHandoff(ctx context.Context, sess *models.Session) {
	c.mu.Lock()
	p := c.pending
	if p == nil || sess.TurnNumber >= p.turn {
		c.pending = nil
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	err := c.st.UpdateTurn(ctx, c.sessionID, p.next, p.turn)
	if err != nil && !errors.Is(err, store.ErrConflict) {
		log.Debug().Err(err).Int("turn", p.turn).Msg("handoff retry failed; will retry next poll")
		return
	}
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
	c.nudge()
}

// nudge publishes a wake hint for the opponent when the watcher cannot see
// store writes by itself. Best effort; polling covers a lost hint.
func (c *Coordinator) nudge() {
	if c.nudger != nil {
		c.nudger.Nudge(c.sessionID)
	}
}

// pollStatus reconciles lifecycle state and performs the timed duties:
// prep elapse, forfeit detection, and the remaining-time heartbeat.
func (c *Coordinator) pollStatus(ctx context.Context) {
	sess, err := c.st.GetSession(ctx, c.sessionID)
	if err != nil {
		log.Debug().Err(err).Str("session_id", c.sessionID.String()).Msg("status poll failed; retrying next tick")
		return
	}
	c.ingestStatus(ctx, sess)

	switch c.sm.Status() {
	case models.SessionStatusPrep:
		if c.clock.Now().Sub(c.createdAt) >= c.cfg.PrepTime() {
			c.startDebate(ctx, sess)
		}
	case models.SessionStatusInProgress:
		if c.ffd.SilenceExceeded() {
			c.declareForfeit(ctx, c.opponent, c.self)
			return
		}
		c.persistRemaining(ctx)
	case models.SessionStatusJudging:
		// Observe is forward-only, so a session loaded at JUDGING never
		// re-enters ingestStatus. Drive the verdict from here instead.
		c.finish(ctx)
	}
}

// ingestStatus folds an observed status into the state machine and reacts
// to changes another client wrote.
func (c *Coordinator) ingestStatus(ctx context.Context, sess *models.Session) {
	if !c.sm.Observe(sess.Status) {
		return
	}
	switch sess.Status {
	case models.SessionStatusInProgress:
		c.enterActive(sess)
	case models.SessionStatusJudging:
		c.finish(ctx)
	case models.SessionStatusFinished, models.SessionStatusAbandoned:
		c.finishFromStatus(sess.Status)
	}
}

// startDebate performs the PREP -> IN_PROGRESS transition. Whichever client
// polls first wins the conditional write; the loser's write is a no-op and
// both converge to IN_PROGRESS.
func (c *Coordinator) startDebate(ctx context.Context, sess *models.Session) {
	if err := c.sm.Transition(ctx, models.SessionStatusPrep, models.SessionStatusInProgress); err != nil {
		log.Debug().Err(err).Str("session_id", c.sessionID.String()).Msg("start transition failed; retrying next tick")
		return
	}
	c.nudge()
	c.enterActive(sess)
}

// enterActive starts the active phase exactly once: checkpoint-reconciles
// the clock, resets the forfeit window, and starts the countdown.
func (c *Coordinator) enterActive(sess *models.Session) {
	c.activeOnce.Do(func() {
		ctx, cancel := context.WithCancel(c.runCtx)
		c.mu.Lock()
		c.activeCtx, c.activeCancel = ctx, cancel
		c.mu.Unlock()
		c.local.Reconcile(sess.Remaining()) // checkpoint: entering IN_PROGRESS
		c.ffd.Reset()
		go c.local.Run(ctx)
		c.events.SessionStarted(sess)
		log.Info().
			Str("session_id", c.sessionID.String()).
			Dur("remaining", c.local.Remaining()).
			Msg("debate in progress")
	})
}

func (c *Coordinator) activeContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeCtx
}

// watchExpiry ends the debate when the local countdown reaches zero.
func (c *Coordinator) watchExpiry(wg *sync.WaitGroup) {
	defer wg.Done()
	select {
	case <-c.runCtx.Done():
	case <-c.local.Expired():
		log.Info().Str("session_id", c.sessionID.String()).Msg("debate time expired")
		c.endDebate(c.runCtx)
	}
}

// persistRemaining writes the authoritative remaining time while the local
// participant holds the turn. Coarse and best-effort: the turn holder owns
// the countdown so the two clients never fight over the persisted value.
func (c *Coordinator) persistRemaining(ctx context.Context) {
	if !c.IsMyTurn() {
		return
	}
	now := c.clock.Now()
	c.mu.Lock()
	if now.Sub(c.lastPersist) < c.cfg.PersistEvery() {
		c.mu.Unlock()
		return
	}
	c.lastPersist = now
	c.mu.Unlock()

	if err := c.st.UpdateRemainingTime(ctx, c.sessionID, c.local.Remaining()); err != nil {
		log.Debug().Err(err).Str("session_id", c.sessionID.String()).Msg("remaining-time write failed")
	}
}

// SubmitUtterance submits the local participant's argument for the current
// turn: the utterance write makes the turn durable, then the handoff write
// passes the turn to the opponent. If the handoff fails the turn poll
// retries it; the utterance is never written twice.
func (c *Coordinator) SubmitUtterance(ctx context.Context, text string) error {
	if c.sm.Status() != models.SessionStatusInProgress {
		return ErrNotActive
	}
	if !c.IsMyTurn() {
		return ErrNotYourTurn
	}

	c.mu.Lock()
	next := c.turnNumber + 1
	c.mu.Unlock()

	msg := models.Utterance{
		ID:          uuid.New(),
		SessionID:   c.sessionID,
		TurnNumber:  next,
		SpeakerID:   c.self.ID,
		Text:        text,
		SubmittedAt: c.clock.Now(),
	}
	if err := c.st.InsertMessage(ctx, &msg); err != nil && !errors.Is(err, store.ErrDuplicate) {
		return fmt.Errorf("failed to submit utterance: %w", err)
	}

	// The utterance is durable; advance the local cache and hand off.
	c.mu.Lock()
	c.turnNumber = next
	c.currentTurnID = c.opponent.ID
	c.mu.Unlock()
	c.mergeMessage(msg)

	err := c.st.UpdateTurn(ctx, c.sessionID, c.opponent.ID, next)
	if err != nil && !errors.Is(err, store.ErrConflict) {
		log.Warn().Err(err).
			Int("turn", next).
			Str("session_id", c.sessionID.String()).
			Msg("handoff write failed; turn poll will retry")
		c.mu.Lock()
		c.pending = &pendingHandoff{next: c.opponent.ID, turn: next}
		c.mu.Unlock()
	}
	c.nudge()
	return nil
}

// EndDebate explicitly ends the active phase and moves to judging.
func (c *Coordinator) EndDebate(ctx context.Context) error {
	if c.sm.Status() != models.SessionStatusInProgress {
		return ErrNotActive
	}
	c.endDebate(ctx)
	return nil
}

func (c *Coordinator) endDebate(ctx context.Context) {
	if err := c.sm.Transition(ctx, models.SessionStatusInProgress, models.SessionStatusJudging); err != nil {
		log.Warn().Err(err).Str("session_id", c.sessionID.String()).Msg("judging transition failed")
	}
	c.nudge()
	c.finish(ctx)
}

// Forfeit is the local participant's explicit exit; the opponent wins.
func (c *Coordinator) Forfeit(ctx context.Context) error {
	if c.sm.Status() != models.SessionStatusInProgress {
		return ErrNotActive
	}
	c.declareForfeit(ctx, c.self, c.opponent)
	return nil
}

// declareForfeit drives IN_PROGRESS -> ABANDONED with the deterministic rout
// outcome. Idempotent across clients: only one status write succeeds, the
// other is a guarded no-op.
func (c *Coordinator) declareForfeit(ctx context.Context, absent, present models.Participant) {
	log.Info().
		Str("session_id", c.sessionID.String()).
		Str("absent_id", absent.ID.String()).
		Dur("silence", c.ffd.Silence()).
		Msg("declaring forfeit")

	if err := c.sm.Transition(ctx, models.SessionStatusInProgress, models.SessionStatusAbandoned); err != nil {
		log.Warn().Err(err).Str("session_id", c.sessionID.String()).Msg("abandon transition failed")
	}
	c.nudge()
	c.finishOnce.Do(func() {
		c.agg.SetRout(present.ID, absent.ID, c.cfg.Debate.RoutScore)
		out := scoring.ForfeitOutcome(c.agg, present, absent)
		c.outcome = &out
		c.events.SessionAbandoned(out)
		c.saveResult(out)
		close(c.done)
	})
}

// finish computes the final verdict and drives JUDGING -> FINISHED. Any
// judge failure earlier has already degraded into the accumulated totals,
// so this path is pure and never blocks.
func (c *Coordinator) finish(ctx context.Context) {
	c.finishOnce.Do(func() {
		out := scoring.Verdict(c.agg, c.first, c.second, c.cfg.Debate.TieRule)
		c.outcome = &out

		if c.sm.Status() == models.SessionStatusJudging {
			if err := c.sm.Transition(ctx, models.SessionStatusJudging, models.SessionStatusFinished); err != nil {
				log.Warn().Err(err).Str("session_id", c.sessionID.String()).Msg("finish transition failed")
			}
			c.nudge()
		}
		c.events.SessionFinished(out)
		c.saveResult(out)
		close(c.done)
	})
}

// finishFromStatus handles a terminal status observed from the store when
// this client did not perform the final transition itself.
func (c *Coordinator) finishFromStatus(status models.SessionStatus) {
	if status == models.SessionStatusAbandoned {
		// The other client declared the forfeit. Decide locally who was
		// absent: if we observed opponent silence we won; otherwise the
		// abandonment was ours.
		absent, present := c.self, c.opponent
		if c.ffd != nil && c.ffd.SilenceExceeded() {
			absent, present = c.opponent, c.self
		}
		c.finishOnce.Do(func() {
			c.agg.SetRout(present.ID, absent.ID, c.cfg.Debate.RoutScore)
			out := scoring.ForfeitOutcome(c.agg, present, absent)
			c.outcome = &out
			c.events.SessionAbandoned(out)
			c.saveResult(out)
			close(c.done)
		})
		return
	}
	c.finishOnce.Do(func() {
		out := scoring.Verdict(c.agg, c.first, c.second, c.cfg.Debate.TieRule)
		c.outcome = &out
		c.events.SessionFinished(out)
		c.saveResult(out)
		close(c.done)
	})
}

// saveResult pushes the final result to the profile store, fire-and-forget.
func (c *Coordinator) saveResult(out scoring.Outcome) {
	r := profile.Result{
		ParticipantID: c.self.ID.String(),
		TopicTitle:    c.topic.Title,
		Side:          c.self.Side,
		OpponentType:  c.opponentType,
		MyScore:       out.Totals[c.self.ID].Total,
		OpponentScore: out.Totals[c.opponent.ID].Total,
		Won:           out.WinnerID == c.self.ID,
		Feedback:      out.Feedback[c.self.ID],
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		c.sink.SaveResult(ctx, r)
	}()
}

// IsMyTurn reports whether the local participant holds the turn.
func (c *Coordinator) IsMyTurn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTurnID == c.self.ID
}

// TurnNumber returns the local monotonic turn cache.
func (c *Coordinator) TurnNumber() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.turnNumber
}

// History returns a copy of the merged utterance history.
func (c *Coordinator) History() []models.Utterance {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Utterance, len(c.history))
	copy(out, c.history)
	return out
}

// Totals exposes the running score for one participant.
func (c *Coordinator) Totals(id uuid.UUID) scoring.Totals {
	return c.agg.Totals(id)
}

// Outcome returns the final verdict once the session has finished.
func (c *Coordinator) Outcome() (scoring.Outcome, bool) {
	select {
	case <-c.done:
		return *c.outcome, true
	default:
		return scoring.Outcome{}, false
	}
}

// Done is closed when the session reaches its terminal outcome.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Status exposes the local lifecycle status.
func (c *Coordinator) Status() models.SessionStatus {
	return c.sm.Status()
}
