// Package debounce provides a trailing-edge debouncer: rapid triggers are
// coalesced so only the last one fires, after a quiet period.
package debounce

import (
	"sync"
	"time"
)

// Debouncer delays running a function until no trigger has arrived for the
// configured wait duration. Each Trigger cancels and restarts the timer, so
// of any burst of triggers only the final pending call fires.
//
// The zero value is not usable; construct with New.
type Debouncer struct {
	wait time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// New returns a Debouncer with the given quiet period.
func New(wait time.Duration) *Debouncer {
	return &Debouncer{wait: wait}
}

// Trigger schedules fn to run after the quiet period, replacing any
// previously scheduled function. fn runs on a timer goroutine.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, fn)
}

// Stop cancels any pending call. It does not wait for a call that has
// already started.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
