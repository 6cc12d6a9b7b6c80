package editor

import (
	"sort"
	"sync"
	"time"
)

// Scheduler defers work. The production implementation rides on wall-clock
// timers; tests advance a virtual clock deterministically instead.
type Scheduler interface {
	// Schedule runs fn after d. The returned cancel stops the callback if it
	// has not fired yet.
	Schedule(d time.Duration, fn func()) (cancel func())
	// Now returns the scheduler's current time.
	Now() time.Time
}

// WallClock is the production Scheduler backed by time.AfterFunc.
type WallClock struct{}

// Schedule runs fn after d on a wall-clock timer.
func (WallClock) Schedule(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Now returns the wall-clock time.
func (WallClock) Now() time.Time {
	return time.Now()
}

// VirtualClock is a deterministic Scheduler for tests: callbacks fire only
// when Advance moves the clock past their deadline, on the caller's
// goroutine, in deadline order.
type VirtualClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []*virtualTimer
	nextID  int
}

type virtualTimer struct {
	id       int
	deadline time.Time
	fn       func()
}

// NewVirtualClock creates a virtual clock starting at an arbitrary epoch.
func NewVirtualClock() *VirtualClock {
	return &VirtualClock{now: time.Unix(0, 0)}
}

// Schedule registers fn to fire when the clock advances past d from now.
func (c *VirtualClock) Schedule(d time.Duration, fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	t := &virtualTimer{id: c.nextID, deadline: c.now.Add(d), fn: fn}
	c.pending = append(c.pending, t)
	id := t.id
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, p := range c.pending {
			if p.id == id {
				c.pending = append(c.pending[:i], c.pending[i+1:]...)
				return
			}
		}
	}
}

// Now returns the virtual time.
func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward and fires every timer whose deadline has
// passed, in deadline order. Callbacks may schedule new timers; those fire
// too if they land inside the advanced window.
func (c *VirtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		sort.Slice(c.pending, func(i, j int) bool {
			return c.pending[i].deadline.Before(c.pending[j].deadline)
		})
		var next *virtualTimer
		for _, t := range c.pending {
			if !t.deadline.After(target) {
				next = t
				break
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		// Remove it and move time to its deadline before firing.
		for i, t := range c.pending {
			if t.id == next.id {
				c.pending = append(c.pending[:i], c.pending[i+1:]...)
				break
			}
		}
		if next.deadline.After(c.now) {
			c.now = next.deadline
		}
		c.mu.Unlock()

		next.fn()
	}
}
