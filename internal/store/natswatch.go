package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

const natsSubjectPrefix = "debate.sessions."

// NATSWatcher delivers wake hints over NATS. Deployments that relay store
// changes onto the bus get near-instant turn handoff detection; everything
// still works when the bus is down because hints are advisory and the
// coordinator keeps polling.
type NATSWatcher struct {
	nc *nats.Conn
}

// NewNATSWatcher connects to the NATS server with reconnect handling.
func NewNATSWatcher(natsURL string) (*NATSWatcher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSWatcher{nc: nc}, nil
}

var _ Watcher = (*NATSWatcher)(nil)

// Watch implements Watcher by subscribing to the session's subject.
func (w *NATSWatcher) Watch(ctx context.Context, sessionID uuid.UUID) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	sub, err := w.nc.Subscribe(natsSubjectPrefix+sessionID.String(), func(msg *nats.Msg) {
		select {
		case ch <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to session subject: %w", err)
	}

	go func() {
		<-ctx.Done()
		if err := sub.Unsubscribe(); err != nil {
			log.Error().Err(err).Str("session_id", sessionID.String()).Msg("failed to unsubscribe")
		}
	}()

	return ch, nil
}

// Nudge publishes a wake hint for the session. Writers call this after store
// writes so the opponent's coordinator polls immediately.
func (w *NATSWatcher) Nudge(sessionID uuid.UUID) {
	if err := w.nc.Publish(natsSubjectPrefix+sessionID.String(), nil); err != nil {
		log.Error().Err(err).Str("session_id", sessionID.String()).Msg("failed to publish nudge")
	}
}

// Close drains the connection.
func (w *NATSWatcher) Close() {
	w.nc.Close()
}
