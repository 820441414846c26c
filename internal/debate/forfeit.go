package debate

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ForfeitDetector tracks the last observed opponent activity and decides
// when sustained silence becomes a forfeit. The window applies regardless of
// whose turn it nominally is, so a stalled opponent client is caught even
// while the local participant holds the turn.
type ForfeitDetector struct {
	clock  clockwork.Clock
	window time.Duration

	mu           sync.Mutex
	lastActivity time.Time
}

// NewForfeitDetector creates a detector with the activity clock starting now.
func NewForfeitDetector(clock clockwork.Clock, window time.Duration) *ForfeitDetector {
	return &ForfeitDetector{
		clock:        clock,
		window:       window,
		lastActivity: clock.Now(),
	}
}

// MarkActivity records opponent activity: a new message or a turn change
// attributable to the opponent observed by a poll.
func (d *ForfeitDetector) MarkActivity() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastActivity = d.clock.Now()
}

// Reset restarts the window, used when entering IN_PROGRESS so prep time
// does not count against the opponent.
func (d *ForfeitDetector) Reset() {
	d.MarkActivity()
}

// SilenceExceeded reports whether the opponent has been silent past the
// configured window.
func (d *ForfeitDetector) SilenceExceeded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clock.Now().Sub(d.lastActivity) > d.window
}

// Silence returns how long the opponent has been silent.
func (d *ForfeitDetector) Silence() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clock.Now().Sub(d.lastActivity)
}
