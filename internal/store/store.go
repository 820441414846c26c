// Package store defines the session store surface the engine converges
// against, plus the concrete drivers. None of the drivers offer multi-row
// transactions; the turn protocol is designed to be correct without them,
// using conditional single-row writes and polling convergence.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/models"
)

var (
	// ErrNotFound indicates the session (or message) does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict indicates a conditional write found the row in a different
	// state than the guard expected. Callers converge via the next poll.
	ErrConflict = errors.New("store: conditional write conflict")
	// ErrDuplicate indicates an insert hit an already-existing id.
	ErrDuplicate = errors.New("store: duplicate id")
)

// Store is the remote session table plus the append-only utterance log.
type Store interface {
	// CreateSession inserts a new session row. ErrDuplicate if the id exists.
	CreateSession(ctx context.Context, s *models.Session) error

	// GetSession reads the session row by id.
	GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error)

	// UpdateStatus moves the session status from -> to. The write only
	// applies while the stored status equals from; otherwise ErrConflict.
	// This is the guard that keeps terminal states sticky and makes racing
	// clients converge on a single effective transition.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.SessionStatus) error

	// UpdateTurn hands the turn to nextSpeaker at turnNumber. The write only
	// applies while the stored turn number is below turnNumber, so replayed
	// or raced handoffs never rewind the turn counter.
	UpdateTurn(ctx context.Context, id uuid.UUID, nextSpeaker uuid.UUID, turnNumber int) error

	// InsertMessage appends an utterance. ErrDuplicate if the message id
	// already exists; the caller treats that as already-durable.
	InsertMessage(ctx context.Context, msg *models.Utterance) error

	// MessagesSince returns all utterances with turn number > sinceTurn,
	// sorted ascending by turn number.
	MessagesSince(ctx context.Context, id uuid.UUID, sinceTurn int) ([]models.Utterance, error)

	// UpdateRemainingTime persists the authoritative remaining debate time.
	UpdateRemainingTime(ctx context.Context, id uuid.UUID, remaining time.Duration) error

	Close() error
}

// Watcher is the optional push surface of a store. Watch delivers wake hints
// whenever the session row (or its message log) may have changed; the
// coordinator treats a hint as "poll now" and plain polling remains the
// degenerate case when the driver has no push channel.
type Watcher interface {
	Watch(ctx context.Context, sessionID uuid.UUID) (<-chan struct{}, error)
}

// Nudger is the write side of a Watcher whose hints come from the clients
// themselves rather than from the store (NATS, as opposed to LISTEN/NOTIFY
// or the in-memory store, which hint on every write on their own). Writers
// call Nudge after a store write so the opponent polls immediately.
type Nudger interface {
	Nudge(sessionID uuid.UUID)
}
