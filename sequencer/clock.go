package sequencer

import (
	"sort"
	"sync"
	"time"
)

// Clock schedules delayed actions on a single logical timeline. Offsets are
// relative to the clock's current time. Actions never run concurrently with
// each other.
type Clock interface {
	Schedule(offset time.Duration, action func())
}

// RealClock runs actions on wall-clock timers, one at a time
type RealClock struct {
	mu sync.Mutex
}

// NewRealClock creates a wall-clock scheduler
func NewRealClock() *RealClock {
	return &RealClock{}
}

// Schedule runs action after offset. Timer goroutines are serialised so an
// action always runs to completion before the next one starts.
func (c *RealClock) Schedule(offset time.Duration, action func()) {
	if offset < 0 {
		offset = 0
	}
	time.AfterFunc(offset, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		action()
	})
}

// ManualClock is a virtual clock for tests and offline rendering. Nothing
// fires until Advance is called.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Duration
	seq     uint64
	pending []scheduledAction
}

type scheduledAction struct {
	at     time.Duration
	seq    uint64 // insertion order, breaks ties
	action func()
}

// NewManualClock creates a virtual clock at t=0
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

// Schedule queues action at now+offset
func (c *ManualClock) Schedule(offset time.Duration, action func()) {
	if offset < 0 {
		offset = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.pending = append(c.pending, scheduledAction{at: c.now + offset, seq: c.seq, action: action})
}

// Now returns the virtual time elapsed since creation
func (c *ManualClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Pending returns the number of actions not yet fired
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Advance moves virtual time forward by d, firing due actions in time order.
// Actions scheduled by a firing action are honoured if they fall inside the
// window.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d

	for {
		next := c.popDue(target)
		if next == nil {
			break
		}
		c.now = next.at
		c.mu.Unlock()
		next.action()
		c.mu.Lock()
	}

	c.now = target
	c.mu.Unlock()
}

// popDue removes and returns the earliest action at or before target
func (c *ManualClock) popDue(target time.Duration) *scheduledAction {
	if len(c.pending) == 0 {
		return nil
	}
	sort.SliceStable(c.pending, func(i, j int) bool {
		if c.pending[i].at != c.pending[j].at {
			return c.pending[i].at < c.pending[j].at
		}
		return c.pending[i].seq < c.pending[j].seq
	})
	first := c.pending[0]
	if first.at > target {
		return nil
	}
	c.pending = c.pending[1:]
	return &first
}
