// Package timer implements named one-shot countdown timers with the
// init / set-duration / start / stop semantics the device control plane
// expects from the board timer peripheral.
package timer

import (
	"sync"
	"time"
)

// Timer is a named one-shot timer. Starting a running timer re-arms it,
// the expiry callback fires at most once per Start.
type Timer struct {
	name string
	fn   func()

	mu sync.Mutex
	d  time.Duration
	t  *time.Timer
}

// New creates a new timer with the given name and expiry callback.
func New(name string, fn func()) *Timer {
	return &Timer{
		name: name,
		fn:   fn,
	}
}

// Name returns the timer name.
func (t *Timer) Name() string {
	return t.name
}

// SetDuration sets the countdown duration used by the next Start.
func (t *Timer) SetDuration(d time.Duration) {
	t.mu.Lock()
	t.d = d
	t.mu.Unlock()
}

// Duration returns the configured countdown duration.
func (t *Timer) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.d
}

// Start arms the timer. A running timer is stopped and re-armed.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.t != nil {
		t.t.Stop()
	}
	t.t = time.AfterFunc(t.d, t.fn)
}

// Stop disarms the timer. Stopping a stopped timer is a no-op.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
}
