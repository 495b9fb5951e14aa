package orchestrator

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into a single deferred call: each
// Trigger cancels the outstanding timer and arms a fresh one, so fn runs once
// the triggers have quieted down for the full delay. Safe for concurrent use.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	fn    func()
	timer *time.Timer
}

func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger arms (or re-arms) the timer. Only one timer exists at a time.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

// Stop cancels any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
