package judge

import (
	"context"
	"errors"
	"sync"
)

// ErrJudgingClosed indicates the session has left its active phase and no
// further judge calls are accepted.
var ErrJudgingClosed = errors.New("judge: judging closed for session")

// Tracker registers every in-flight judge invocation for one session so they
// can be cancelled as a unit the moment the session leaves IN_PROGRESS.
// After CancelAll, new registrations are rejected rather than silently
// leaking work past the end of the match.
type Tracker struct {
	mu      sync.Mutex
	cancels map[int]context.CancelFunc
	nextID  int
	closed  bool
}

// NewTracker creates an open tracker.
func NewTracker() *Tracker {
	return &Tracker{cancels: make(map[int]context.CancelFunc)}
}

// Begin derives a cancellable context for one judge call. The returned done
// func must be called when the call finishes. Returns ErrJudgingClosed once
// CancelAll has fired.
func (t *Tracker) Begin(ctx context.Context) (context.Context, context.CancelFunc, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, nil, ErrJudgingClosed
	}

	callCtx, cancel := context.WithCancel(ctx)
	id := t.nextID
	t.nextID++
	t.cancels[id] = cancel

	done := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if c, ok := t.cancels[id]; ok {
			delete(t.cancels, id)
			c()
		}
	}
	return callCtx, done, nil
}

// CancelAll cancels every outstanding call and closes the tracker.
// Idempotent: both clients' detectors may fire it for the same session.
func (t *Tracker) CancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	for id, cancel := range t.cancels {
		cancel()
		delete(t.cancels, id)
	}
}

// Closed reports whether judging has been shut down.
func (t *Tracker) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
