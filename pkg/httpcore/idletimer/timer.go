// Package idletimer implements the per-connection idle timer: a two-step
// expiry dance that avoids a timer-thread callback tearing down connection
// state directly.
package idletimer

import (
	"sync"
	"time"
)

// Timer wraps a time.Timer with a pending-flag protocol: the timer-wheel
// callback only flips a flag and invalidates the handle; a deferred
// callback on the connection's own worker checks the flag and performs
// the actual teardown. This split avoids the cross-thread cancellation
// race a direct Stop-then-free would have.
type Timer struct {
	mu        sync.Mutex
	timer     *time.Timer
	timeout   time.Duration
	pending   bool
	valid     bool
	fired     chan struct{}
	closeOnce sync.Once

	// onExpire is invoked on the dispatch goroutine as the deferred
	// callback: notify the app the connection is closing, disconnect
	// downstream. Never called directly from the timer-wheel goroutine.
	onExpire func()
}

// New starts a timer for timeout that calls onExpire once the connection
// has been idle for timeout without a Refresh. onExpire runs on a
// dedicated per-timer dispatch goroutine, never on the time.AfterFunc
// goroutine that detects expiry, implementing the two-step dance: fire
// only flips pending/valid and signals; dispatch performs the callback.
func New(timeout time.Duration, onExpire func()) *Timer {
	t := &Timer{timeout: timeout, onExpire: onExpire, valid: true, fired: make(chan struct{})}
	t.timer = time.AfterFunc(timeout, t.fire)
	go t.dispatch()
	return t
}

// fire runs on the timer-wheel's own goroutine. It must not invoke
// onExpire directly — it only marks pending, invalidates the handle so
// Stop (called from cleanup) knows not to cancel an already-fired timer,
// and signals the dispatch goroutine to run the deferred callback.
func (t *Timer) fire() {
	t.mu.Lock()
	t.pending = true
	t.valid = false
	t.mu.Unlock()
	t.closeOnce.Do(func() { close(t.fired) })
}

// dispatch is the connection-private goroutine that performs the actual
// deferred teardown callback, decoupled from the timer-wheel goroutine
// that detected expiry. It also wakes on Stop, in which case pending is
// still false and it exits without invoking onExpire.
func (t *Timer) dispatch() {
	<-t.fired
	t.mu.Lock()
	pending := t.pending
	cb := t.onExpire
	t.mu.Unlock()
	if pending && cb != nil {
		cb()
	}
}

// Refresh resets the timer to the full timeout, called after every
// successful dispatcher pass. A no-op if the timer has already fired
// (Pending or invalidated).
func (t *Timer) Refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.valid || t.pending {
		return
	}
	t.timer.Reset(t.timeout)
}

// Pending reports whether the timer has fired and is awaiting the
// deferred teardown callback.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Stop cancels the timer. Callers should check Pending first and skip
// Stop if the timer already fired, since cleanup in that case is driven
// by the expiry callback instead.
func (t *Timer) Stop() {
	t.mu.Lock()
	if !t.valid {
		t.mu.Unlock()
		return
	}
	t.timer.Stop()
	t.valid = false
	t.mu.Unlock()
	// Wake dispatch so it exits rather than leaking; pending is still
	// false here, so it will not invoke onExpire.
	t.closeOnce.Do(func() { close(t.fired) })
}
