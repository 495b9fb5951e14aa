// Package connectivity answers "is the record server reachable right now"
// with an active probe, and watches for transitions in the background.
package connectivity

import (
	"context"
	"sync"
	"time"
)

// Pinger is the probe target; the remote client satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor probes the remote service and remembers the last observed state.
// CheckReachable never returns an error: timeouts and network failures both
// mean "unreachable".
type Monitor struct {
	pinger       Pinger
	probeTimeout time.Duration

	mu       sync.Mutex
	online   bool
	onChange func(online bool)
}

func NewMonitor(p Pinger) *Monitor {
	return &Monitor{pinger: p, probeTimeout: 3 * time.Second}
}

// OnChange registers a callback invoked on every online/offline transition.
// At most one callback is supported; the orchestrator owns it.
func (m *Monitor) OnChange(fn func(online bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Online returns the last observed state without probing.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// CheckReachable runs the active probe under a short timeout and records the
// result. Side-effect-free beyond the network call and state bookkeeping.
func (m *Monitor) CheckReachable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	reachable := m.pinger.Ping(ctx) == nil
	m.record(reachable)
	return reachable
}

func (m *Monitor) record(online bool) {
	m.mu.Lock()
	changed := m.online != online
	m.online = online
	fn := m.onChange
	m.mu.Unlock()

	if changed && fn != nil {
		fn(online)
	}
}

// Watch reprobes on a fixed interval until ctx is done. It is the coarse
// background signal; a probe can still be forced at any time with
// CheckReachable.
func (m *Monitor) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CheckReachable(ctx)
		case <-ctx.Done():
			return
		}
	}
}
