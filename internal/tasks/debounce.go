package tasks

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period before a preview is regenerated.
const DefaultDebounce = 500 * time.Millisecond

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d. Tests substitute a manual clock.
type Scheduler func(d time.Duration, f func()) Timer

// AfterFunc schedules with [time.AfterFunc].
func AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer delays calls to fn until triggers stop arriving for the wait period.
// Only the value from the last trigger in a burst is delivered. Calls already
// running are not interrupted.
type Debouncer[T any] struct {
	wait     time.Duration
	fn       func(T)
	schedule Scheduler

	mu      sync.Mutex
	timer   Timer
	pending T
	armed   bool
	seq     uint64
}

// NewDebouncer returns a debouncer calling fn. A nil schedule uses [AfterFunc].
func NewDebouncer[T any](wait time.Duration, fn func(T), schedule Scheduler) *Debouncer[T] {
	if wait <= 0 {
		wait = DefaultDebounce
	}
	if schedule == nil {
		schedule = AfterFunc
	}
	return &Debouncer[T]{wait: wait, fn: fn, schedule: schedule}
}

// Trigger replaces any pending call with one for v, restarting the quiet period.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending = v
	d.armed = true
	d.timer = d.schedule(d.wait, func() { d.fire(seq) })
}

// Cancel drops the pending call, if any.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disarmLocked()
}

// Flush runs the pending call immediately and reports whether there was one.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.armed {
		d.mu.Unlock()
		return false
	}
	v := d.pending
	d.disarmLocked()
	d.mu.Unlock()

	d.fn(v)
	return true
}

// Pending reports whether a call is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

func (d *Debouncer[T]) fire(seq uint64) {
	d.mu.Lock()
	// A timer that could not be stopped in time must not deliver a stale value.
	if seq != d.seq || !d.armed {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.armed = false
	d.timer = nil
	d.mu.Unlock()

	d.fn(v)
}

func (d *Debouncer[T]) disarmLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	var zero T
	d.pending = zero
	d.armed = false
	d.seq++
}
