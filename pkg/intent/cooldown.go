package intent

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultCooldown is the window during which a repeated interaction is dropped
const DefaultCooldown = 5 * time.Second

// interaction kinds
const (
	InteractionInspect   = "yanpai"
	InteractionNoProblem = "meiwenti"
	InteractionReveal    = "kaipai"
	InteractionShoeShine = "capixie"
)

// Interactions lists the interaction kinds the server understands
var Interactions = []string{InteractionInspect, InteractionNoProblem, InteractionReveal, InteractionShoeShine}

// Cooldown rate limits interaction triggers per kind
type Cooldown struct {
	clock  clockwork.Clock
	window time.Duration
	kinds  map[string]bool

	lock sync.Mutex
	last map[string]time.Time
}

// NewCooldown returns a cooldown accepting kinds, or any kind if none are given
func NewCooldown(clock clockwork.Clock, window time.Duration, kinds ...string) *Cooldown {
	if window <= 0 {
		window = DefaultCooldown
	}

	c := &Cooldown{
		clock:  clock,
		window: window,
		kinds:  make(map[string]bool, len(kinds)),
		last:   make(map[string]time.Time),
	}

	for _, kind := range kinds {
		c.kinds[kind] = true
	}

	return c
}

// Allow returns true and starts the window if kind is outside its cooldown
func (c *Cooldown) Allow(kind string) bool {
	if len(c.kinds) > 0 && !c.kinds[kind] {
		return false
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	now := c.clock.Now()
	if last, ok := c.last[kind]; ok && now.Sub(last) < c.window {
		return false
	}

	c.last[kind] = now
	return true
}

// Remaining returns how long kind stays throttled
func (c *Cooldown) Remaining(kind string) time.Duration {
	c.lock.Lock()
	defer c.lock.Unlock()

	last, ok := c.last[kind]
	if !ok {
		return 0
	}

	if left := c.window - c.clock.Now().Sub(last); left > 0 {
		return left
	}

	return 0
}
