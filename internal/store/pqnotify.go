package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// NotifyConfig configures the Postgres LISTEN/NOTIFY watcher.
type NotifyConfig struct {
	DatabaseURL   string        // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel string        // Channel name to LISTEN on
	PingInterval  time.Duration // Keepalive ping cadence
}

// DefaultNotifyConfig returns the watcher defaults. A trigger on the session
// and utterance tables is expected to NOTIFY the channel with the session id
// as payload.
func DefaultNotifyConfig(dsn string) NotifyConfig {
	return NotifyConfig{
		DatabaseURL:   dsn,
		NotifyChannel: "debate_session_events",
		PingInterval:  90 * time.Second,
	}
}

// NotifyWatcher turns Postgres NOTIFY payloads into per-session wake hints,
// making the Postgres driver a push-capable store. Hints are advisory: a
// dropped notification only costs one poll interval of latency.
type NotifyWatcher struct {
	listener *pq.Listener
	cfg      NotifyConfig

	mu       sync.Mutex
	watchers map[uuid.UUID][]chan struct{}
}

// NewNotifyWatcher opens the LISTEN connection and starts dispatching.
func NewNotifyWatcher(cfg NotifyConfig) (*NotifyWatcher, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("listening for session notifications")

	return &NotifyWatcher{
		listener: l,
		cfg:      cfg,
		watchers: make(map[uuid.UUID][]chan struct{}),
	}, nil
}

var _ Watcher = (*NotifyWatcher)(nil)

// Start pumps notifications until ctx is cancelled.
func (w *NotifyWatcher) Start(ctx context.Context) error {
	pingTicker := time.NewTicker(w.cfg.PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("session watcher shutting down")
			return w.listener.Close()
		case note := <-w.listener.Notify:
			if note == nil {
				// nil notification means the connection was lost; pq
				// reconnects on its own and re-issues LISTEN.
				continue
			}
			w.dispatch(note.Extra)
		case <-pingTicker.C:
			if err := w.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

// Watch implements Watcher.
func (w *NotifyWatcher) Watch(ctx context.Context, sessionID uuid.UUID) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	w.mu.Lock()
	w.watchers[sessionID] = append(w.watchers[sessionID], ch)
	w.mu.Unlock()

	go func() {
		<-ctx.Done()
		w.mu.Lock()
		defer w.mu.Unlock()
		chans := w.watchers[sessionID]
		for i, c := range chans {
			if c == ch {
				w.watchers[sessionID] = append(chans[:i], chans[i+1:]...)
				break
			}
		}
	}()

	return ch, nil
}

func (w *NotifyWatcher) dispatch(payload string) {
	id, err := uuid.Parse(payload)
	if err != nil {
		log.Error().Err(err).Str("payload", payload).Msg("invalid session ID in notification")
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.watchers[id] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Close tears down the LISTEN connection. Safe to call after Start has
// already closed it on context cancellation.
func (w *NotifyWatcher) Close() {
	if err := w.listener.Close(); err != nil {
		log.Debug().Err(err).Msg("listener close")
	}
}
