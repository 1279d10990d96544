// Package sched provides the cooperative delayed-callback facility the
// engine schedules all waiting through. Callbacks fire on the game loop
// goroutine when Fire observes their due time has passed; nothing blocks.
package sched

import (
	"sort"
	"sync"
	"time"
)

type entry struct {
	at  time.Time
	seq uint64
	fn  func()
}

// Timers queues delayed callbacks. After may be called from any goroutine;
// Fire is called once per tick by the game loop and runs every due callback
// in due-time order.
type Timers struct {
	mu      sync.Mutex
	entries []entry
	seq     uint64
	now     func() time.Time
}

func New() *Timers {
	return NewWithClock(time.Now)
}

// NewWithClock injects the time source. Tests drive a manual clock and call
// Fire directly instead of waiting on real time.
func NewWithClock(now func() time.Time) *Timers {
	return &Timers{now: now}
}

// After schedules fn to run once the delay has elapsed. There is no
// cancellation: stale continuations are expected to re-check state and
// treat "nothing to do" as success.
func (t *Timers) After(d time.Duration, fn func()) {
	t.mu.Lock()
	t.seq++
	t.entries = append(t.entries, entry{at: t.now().Add(d), seq: t.seq, fn: fn})
	t.mu.Unlock()
}

// Fire runs all callbacks whose delay has elapsed, oldest due time first.
// Callbacks run outside the lock, so they may schedule further callbacks;
// those run on a later Fire even when due immediately.
func (t *Timers) Fire() {
	t.mu.Lock()
	now := t.now()
	var due []entry
	rest := t.entries[:0]
	for _, e := range t.entries {
		if !e.at.After(now) {
			due = append(due, e)
		} else {
			rest = append(rest, e)
		}
	}
	t.entries = rest
	t.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].seq < due[j].seq
		}
		return due[i].at.Before(due[j].at)
	})
	for _, e := range due {
		e.fn()
	}
}

// Pending returns the number of queued callbacks.
func (t *Timers) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
