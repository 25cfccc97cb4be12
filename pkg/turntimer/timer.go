// Package turntimer runs the countdown of the turn that is being played.
//
// A Timer has a single slot: arming cancels whatever was armed before, so an
// old countdown can never expire on behalf of a newer turn.
package turntimer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"pypoker-client/pkg/protocol"
)

// DefaultTimeout is used when a player-action does not carry a timeout
const DefaultTimeout = 15 * time.Second

// Dispatcher runs fn, typically by handing it to a run loop
// It may block until fn is accepted but must return once cancelled is closed,
// which happens when the countdown is cancelled or replaced.
type Dispatcher func(fn func(), cancelled <-chan struct{})

// Option configures a Timer
type Option func(t *Timer)

// WithExpiryLead expires the local countdown lead before the server deadline
func WithExpiryLead(lead time.Duration) Option {
	return func(t *Timer) {
		if lead > 0 {
			t.lead = lead
		}
	}
}

// WithDispatcher sets where expiry callbacks run, the default runs them on the timer goroutine
func WithDispatcher(d Dispatcher) Option {
	return func(t *Timer) {
		if d != nil {
			t.dispatch = d
		}
	}
}

// Timer is a single slot countdown
type Timer struct {
	clock    clockwork.Clock
	lead     time.Duration
	dispatch Dispatcher

	mu         sync.Mutex
	slot       *slot
	generation uint64
}

type slot struct {
	generation uint64
	player     protocol.ID
	deadline   time.Time
	timer      clockwork.Timer
	stop       chan struct{}
}

// New returns a disarmed timer
func New(clock clockwork.Clock, opts ...Option) *Timer {
	t := &Timer{
		clock: clock,
		dispatch: func(fn func(), _ <-chan struct{}) {
			fn()
		},
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Arm starts the countdown of player's turn, cancelling any live countdown first
// onExpire runs at most once, and only if the countdown is neither cancelled nor
// replaced before the dispatched callback runs.
func (t *Timer) Arm(player protocol.ID, timeout time.Duration, onExpire func()) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	fireIn := timeout - t.lead
	if fireIn < 0 {
		fireIn = 0
	}

	t.mu.Lock()
	t.cancelLocked()

	t.generation++
	s := &slot{
		generation: t.generation,
		player:     player,
		deadline:   t.clock.Now().Add(timeout),
		timer:      t.clock.NewTimer(fireIn),
		stop:       make(chan struct{}),
	}
	t.slot = s
	t.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"player":  player,
		"timeout": timeout,
	}).Trace("turn timer armed")

	go t.wait(s, onExpire)
}

func (t *Timer) wait(s *slot, onExpire func()) {
	select {
	case <-s.timer.Chan():
		t.dispatch(func() {
			if t.claim(s.generation) {
				logrus.WithField("player", s.player).Debug("turn timer expired")
				onExpire()
			}
		}, s.stop)
	case <-s.stop:
	}
}

// claim empties the slot if it still holds generation
func (t *Timer) claim(generation uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.slot == nil || t.slot.generation != generation {
		return false
	}

	t.slot = nil
	return true
}

// Cancel disarms the timer, it is safe to call when nothing is armed
// Returns true if a countdown was cancelled
func (t *Timer) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.cancelLocked()
}

func (t *Timer) cancelLocked() bool {
	if t.slot == nil {
		return false
	}

	stopAndDrainTimer(t.slot.timer)
	close(t.slot.stop)
	t.slot = nil
	return true
}

// Active returns the player whose turn is being counted down
func (t *Timer) Active() (protocol.ID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.slot == nil {
		return "", false
	}

	return t.slot.player, true
}

// Remaining returns the time left until the server deadline, zero when disarmed
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.slot == nil {
		return 0
	}

	if left := t.slot.deadline.Sub(t.clock.Now()); left > 0 {
		return left
	}

	return 0
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
