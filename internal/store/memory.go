package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/models"
)

// MemoryStore is an in-process Store for tests and local hot-seat play.
// All conditional-write semantics match the remote drivers exactly.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*models.Session
	messages map[uuid.UUID][]models.Utterance
	msgIDs   map[uuid.UUID]bool

	watchMu  sync.Mutex
	watchers map[uuid.UUID][]chan struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[uuid.UUID]*models.Session),
		messages: make(map[uuid.UUID][]models.Utterance),
		msgIDs:   make(map[uuid.UUID]bool),
		watchers: make(map[uuid.UUID][]chan struct{}),
	}
}

var (
	_ Store   = (*MemoryStore)(nil)
	_ Watcher = (*MemoryStore)(nil)
)

func (m *MemoryStore) CreateSession(ctx context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[s.ID]; exists {
		return ErrDuplicate
	}
	now := time.Now()
	cp := *s
	cp.CreatedAt = now
	cp.UpdatedAt = now
	m.sessions[s.ID] = &cp
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

func (m *MemoryStore) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.SessionStatus) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	if s.Status != from {
		m.mu.Unlock()
		return ErrConflict
	}
	s.Status = to
	s.UpdatedAt = time.Now()
	m.mu.Unlock()

	m.notify(id)
	return nil
}

func (m *MemoryStore) UpdateTurn(ctx context.Context, id uuid.UUID, nextSpeaker uuid.UUID, turnNumber int) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	if s.TurnNumber >= turnNumber {
		m.mu.Unlock()
		return ErrConflict
	}
	s.CurrentTurnID = nextSpeaker
	s.TurnNumber = turnNumber
	s.UpdatedAt = time.Now()
	m.mu.Unlock()

	m.notify(id)
	return nil
}

func (m *MemoryStore) InsertMessage(ctx context.Context, msg *models.Utterance) error {
	m.mu.Lock()
	if m.msgIDs[msg.ID] {
		m.mu.Unlock()
		return ErrDuplicate
	}
	m.msgIDs[msg.ID] = true
	cp := *msg
	if cp.SubmittedAt.IsZero() {
		cp.SubmittedAt = time.Now()
	}
	m.messages[msg.SessionID] = append(m.messages[msg.SessionID], cp)
	m.mu.Unlock()

	m.notify(msg.SessionID)
	return nil
}

func (m *MemoryStore) MessagesSince(ctx context.Context, id uuid.UUID, sinceTurn int) ([]models.Utterance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Utterance
	for _, msg := range m.messages[id] {
		if msg.TurnNumber > sinceTurn {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TurnNumber < out[j].TurnNumber })
	return out, nil
}

func (m *MemoryStore) UpdateRemainingTime(ctx context.Context, id uuid.UUID, remaining time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.RemainingSec = int(remaining / time.Second)
	s.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = nil
	m.messages = nil
	m.msgIDs = nil
	return nil
}

// Watch implements Watcher with an in-process hint channel.
func (m *MemoryStore) Watch(ctx context.Context, sessionID uuid.UUID) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	m.watchMu.Lock()
	m.watchers[sessionID] = append(m.watchers[sessionID], ch)
	m.watchMu.Unlock()

	go func() {
		<-ctx.Done()
		m.watchMu.Lock()
		defer m.watchMu.Unlock()
		chans := m.watchers[sessionID]
		for i, c := range chans {
			if c == ch {
				m.watchers[sessionID] = append(chans[:i], chans[i+1:]...)
				break
			}
		}
	}()

	return ch, nil
}

func (m *MemoryStore) notify(sessionID uuid.UUID) {
	m.watchMu.Lock()
	defer m.watchMu.Unlock()
	for _, ch := range m.watchers[sessionID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
