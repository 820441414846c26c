// Package gateway is the spectator surface: a WebSocket fan-out of session
// events for read-only viewers. Spectators never write session state.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ConnectionConfig holds configuration for spectator connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	ReplayLimit     int // events replayed to a late-joining spectator
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default spectator connection settings.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		ReplayLimit:     64,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// spectator is one read-only viewer of a session. Events flow out through
// send; the socket's inbound side is drained and discarded.
type spectator struct {
	id        string
	sessionID uuid.UUID
	sock      *websocket.Conn
	send      chan []byte
}

// sessionFeed is the fan-out state for one session: the connected spectators
// plus a bounded backlog so a viewer joining mid-debate sees how the session
// got to its current state.
type sessionFeed struct {
	spectators map[*spectator]bool
	backlog    [][]byte
}

type outbound struct {
	sessionID uuid.UUID
	data      []byte
}

// ConnectionManager fans session events out to spectators, one feed per
// session. Events are serialized once per broadcast, not per viewer.
type ConnectionManager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*sessionFeed

	upgrader  websocket.Upgrader
	config    ConnectionConfig
	outbounds chan outbound
}

// NewConnectionManager creates a spectator connection manager.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		sessions: make(map[uuid.UUID]*sessionFeed),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:    config,
		outbounds: make(chan outbound, 1000),
	}
}

// Start drains the broadcast queue until ctx is cancelled.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("spectator fan-out started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("spectator fan-out shutting down")
			return
		case out := <-cm.outbounds:
			cm.fanOut(out.sessionID, out.data)
		}
	}
}

// Broadcast queues an event for every spectator of the session. A full
// queue drops the event; spectators are advisory observers and the debate
// never waits for them.
func (cm *ConnectionManager) Broadcast(sessionID uuid.UUID, event *SessionEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(event.Type)).Msg("failed to marshal event")
		return
	}
	select {
	case cm.outbounds <- outbound{sessionID: sessionID, data: data}:
	default:
		log.Warn().Str("session_id", sessionID.String()).Msg("broadcast queue full, dropping event")
	}
}

// fanOut records the event in the session backlog and pushes it to every
// attached spectator. A spectator whose buffer is full is dropped; it can
// reconnect and replay.
func (cm *ConnectionManager) fanOut(sessionID uuid.UUID, data []byte) {
	cm.mu.Lock()
	feed := cm.sessions[sessionID]
	if feed == nil {
		feed = &sessionFeed{spectators: make(map[*spectator]bool)}
		cm.sessions[sessionID] = feed
	}
	feed.backlog = append(feed.backlog, data)
	if over := len(feed.backlog) - cm.config.ReplayLimit; over > 0 {
		feed.backlog = feed.backlog[over:]
	}
	targets := make([]*spectator, 0, len(feed.spectators))
	for s := range feed.spectators {
		targets = append(targets, s)
	}
	cm.mu.Unlock()

	for _, s := range targets {
		select {
		case s.send <- data:
		default:
			log.Warn().Str("spectator_id", s.id).Msg("spectator too slow, dropping")
			cm.detach(s)
			if s.sock != nil {
				s.sock.Close()
			}
		}
	}
}

// attach registers a spectator and queues the session backlog so a late
// joiner catches up before live events arrive.
func (cm *ConnectionManager) attach(s *spectator) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	feed := cm.sessions[s.sessionID]
	if feed == nil {
		feed = &sessionFeed{spectators: make(map[*spectator]bool)}
		cm.sessions[s.sessionID] = feed
	}
	feed.spectators[s] = true

	for _, data := range feed.backlog {
		select {
		case s.send <- data:
		default:
			// Replay overflow; the spectator starts from the live stream.
			return
		}
	}
}

// detach removes a spectator and closes its send channel. The backlog stays
// as long as the session has viewers; the last detach drops the feed.
func (cm *ConnectionManager) detach(s *spectator) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	feed := cm.sessions[s.sessionID]
	if feed == nil || !feed.spectators[s] {
		return
	}
	delete(feed.spectators, s)
	close(s.send)
	if len(feed.spectators) == 0 {
		delete(cm.sessions, s.sessionID)
	}
	log.Info().
		Str("spectator_id", s.id).
		Str("session_id", s.sessionID.String()).
		Msg("spectator disconnected")
}

// GetConnectionStats returns the spectator count and the number of sessions
// with at least one viewer.
func (cm *ConnectionManager) GetConnectionStats() (totalConnections, activeSessions int) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	for _, feed := range cm.sessions {
		totalConnections += len(feed.spectators)
	}
	return totalConnections, len(cm.sessions)
}

// UpgradeConnection upgrades an HTTP request to a spectator WebSocket and
// starts its pumps.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) error {
	sock, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	s := &spectator{
		id:        uuid.New().String(),
		sessionID: sessionID,
		sock:      sock,
		send:      make(chan []byte, 256),
	}
	cm.attach(s)

	go cm.writePump(s)
	go cm.readPump(s)

	log.Info().
		Str("spectator_id", s.id).
		Str("session_id", sessionID.String()).
		Msg("spectator connected")
	return nil
}

// writePump delivers queued events and keepalive pings to the socket. It
// owns all writes; exiting closes the socket.
func (cm *ConnectionManager) writePump(s *spectator) {
	ticker := time.NewTicker(cm.config.PingInterval)
	defer func() {
		ticker.Stop()
		s.sock.Close()
		cm.detach(s)
	}()

	for {
		var (
			kind    int
			payload []byte
		)
		select {
		case data, ok := <-s.send:
			if !ok {
				s.sock.SetWriteDeadline(time.Now().Add(cm.config.WriteTimeout))
				s.sock.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			kind, payload = websocket.TextMessage, data
		case <-ticker.C:
			kind, payload = websocket.PingMessage, nil
		}

		s.sock.SetWriteDeadline(time.Now().Add(cm.config.WriteTimeout))
		if err := s.sock.WriteMessage(kind, payload); err != nil {
			log.Debug().Err(err).Str("spectator_id", s.id).Msg("spectator write failed")
			return
		}
	}
}

// readPump drains the spectator side of the socket. Spectators are
// read-only; inbound frames are discarded, only pongs matter.
func (cm *ConnectionManager) readPump(s *spectator) {
	defer func() {
		cm.detach(s)
		s.sock.Close()
	}()

	s.sock.SetReadLimit(cm.config.MaxMessageSize)
	s.sock.SetReadDeadline(time.Now().Add(cm.config.ReadTimeout))
	s.sock.SetPongHandler(func(string) error {
		return s.sock.SetReadDeadline(time.Now().Add(cm.config.ReadTimeout))
	})

	for {
		if _, _, err := s.sock.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("spectator_id", s.id).Msg("spectator read failed")
			}
			return
		}
		s.sock.SetReadDeadline(time.Now().Add(cm.config.ReadTimeout))
	}
}
