package debate

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// LocalClock is the locally ticking countdown of remaining debate time. It
// advances once per second independent of store latency and is reconciled
// against the persisted value only at defined checkpoints, never on every
// tick, so the two timer sources cannot fight.
type LocalClock struct {
	clock clockwork.Clock

	mu        sync.Mutex
	remaining time.Duration
	running   bool

	expired  chan struct{}
	expireMu sync.Once

	onTick func(remaining time.Duration)
}

// NewLocalClock creates a stopped clock holding the given remaining time.
func NewLocalClock(clock clockwork.Clock, remaining time.Duration) *LocalClock {
	return &LocalClock{
		clock:     clock,
		remaining: remaining,
		expired:   make(chan struct{}),
	}
}

// OnTick registers a per-second callback; used for spectator timer events.
// Must be set before Run.
func (c *LocalClock) OnTick(fn func(remaining time.Duration)) {
	c.onTick = fn
}

// Reconcile merges the authoritative store value into the local countdown.
// The smaller value wins so neither client can gain time from replica lag.
// Called only at checkpoints: session load and entry into IN_PROGRESS.
func (c *LocalClock) Reconcile(remote time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remaining = reconcile(c.remaining, remote)
}

// reconcile implements the checkpoint merge of the two timer sources.
func reconcile(local, remote time.Duration) time.Duration {
	if remote < 0 {
		remote = 0
	}
	if local <= 0 {
		return remote
	}
	if remote < local {
		return remote
	}
	return local
}

// Remaining returns the current countdown value.
func (c *LocalClock) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Expired is closed once the countdown reaches zero.
func (c *LocalClock) Expired() <-chan struct{} {
	return c.expired
}

// Run ticks the countdown every second until it expires or ctx is cancelled.
// The ctx is the session's active-phase context: cancelling it is how the
// broadcast "left IN_PROGRESS" signal stops the clock.
func (c *LocalClock) Run(ctx context.Context) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	ticker := c.clock.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.mu.Lock()
			c.running = false
			c.mu.Unlock()
			return
		case <-ticker.Chan():
			c.mu.Lock()
			c.remaining -= time.Second
			if c.remaining < 0 {
				c.remaining = 0
			}
			rem := c.remaining
			done := rem == 0
			c.mu.Unlock()

			if c.onTick != nil {
				c.onTick(rem)
			}
			if done {
				c.expireMu.Do(func() { close(c.expired) })
				c.mu.Lock()
				c.running = false
				c.mu.Unlock()
				return
			}
		}
	}
}
