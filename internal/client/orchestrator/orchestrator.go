// Package orchestrator decides when synchronization runs and publishes
// UI-facing sync status. It owns the only concurrency guard the sync path
// needs: a single-flight flag serializing synchronize attempts.
package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avolkovs/pennywise/internal/client/services"
	"github.com/avolkovs/pennywise/internal/logging"
)

// Syncer is the slice of the expense service the orchestrator drives.
type Syncer interface {
	Sync(ctx context.Context) *services.SyncResult
	PendingCount(ctx context.Context) (int, error)
	OnMutation(fn func())
}

// Reachability is the slice of the connectivity monitor the orchestrator
// observes.
type Reachability interface {
	CheckReachable(ctx context.Context) bool
	Online() bool
	OnChange(fn func(online bool))
}

// Result is the condensed outcome of the last sync, for display.
type Result struct {
	Success bool
	Message string
}

// Status is the snapshot published to observers on every change.
type Status struct {
	Online         bool
	Syncing        bool
	PendingCount   int
	LastSyncTime   *time.Time
	LastResult     *Result
	StorageBlocked bool
}

// Options tune the scheduling intervals.
type Options struct {
	// StartupDelay postpones the initial sync so the UI can render first.
	StartupDelay time.Duration
	// DebounceDelay is how long after the last local mutation the automatic
	// sync fires.
	DebounceDelay time.Duration
	// RefreshInterval drives the periodic connectivity/pending-count status
	// refresh, independent of syncing.
	RefreshInterval time.Duration
}

func DefaultOptions() Options {
	return Options{
		StartupDelay:    2 * time.Second,
		DebounceDelay:   2 * time.Second,
		RefreshInterval: 30 * time.Second,
	}
}

type Orchestrator struct {
	syncer  Syncer
	monitor Reachability
	logger  logging.Logger
	opts    Options

	mu        sync.Mutex
	status    Status
	observers []func(Status)

	syncing   atomic.Bool
	debouncer *Debouncer
}

func New(syncer Syncer, monitor Reachability, logger logging.Logger, opts Options) *Orchestrator {
	o := &Orchestrator{
		syncer:  syncer,
		monitor: monitor,
		logger:  logger,
		opts:    opts,
	}
	return o
}

// SetStorageBlocked marks the local store unusable; syncing is suppressed
// until the process restarts with working storage.
func (o *Orchestrator) SetStorageBlocked(blocked bool) {
	o.update(func(s *Status) { s.StorageBlocked = blocked })
}

// Status returns the current snapshot.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Subscribe registers an observer called with a snapshot after every status
// change. Observers must not block.
func (o *Orchestrator) Subscribe(fn func(Status)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, fn)
}

func (o *Orchestrator) update(mutate func(*Status)) {
	o.mu.Lock()
	mutate(&o.status)
	snapshot := o.status
	observers := o.observers
	o.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
}

// Start wires the triggers and launches the background loops. It returns
// immediately; loops stop when ctx is done.
func (o *Orchestrator) Start(ctx context.Context) {
	o.debouncer = NewDebouncer(o.opts.DebounceDelay, func() {
		o.runSync(ctx)
	})

	// Every committed local write re-arms the debounced sync, so a burst of
	// edits coalesces into one attempt.
	o.syncer.OnMutation(func() {
		o.refreshPendingCount(ctx)
		o.debouncer.Trigger()
	})

	// Reconnecting refreshes status; the next mutation's debounce (or the
	// startup/periodic trigger) picks up remaining pending work.
	o.monitor.OnChange(func(online bool) {
		o.update(func(s *Status) { s.Online = online })
		o.logger.Info(ctx, "connectivity changed", "online", online)
	})

	go o.startupSync(ctx)
	go o.refreshLoop(ctx)
}

// startupSync runs the one-time initial sync, gated on usable storage and a
// successful reachability probe.
func (o *Orchestrator) startupSync(ctx context.Context) {
	select {
	case <-time.After(o.opts.StartupDelay):
	case <-ctx.Done():
		return
	}

	if o.Status().StorageBlocked {
		return
	}
	if !o.monitor.CheckReachable(ctx) {
		o.update(func(s *Status) { s.Online = false })
		return
	}
	o.runSync(ctx)
}

func (o *Orchestrator) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(o.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			online := o.monitor.CheckReachable(ctx)
			o.update(func(s *Status) { s.Online = online })
			o.refreshPendingCount(ctx)
		case <-ctx.Done():
			if o.debouncer != nil {
				o.debouncer.Stop()
			}
			return
		}
	}
}

func (o *Orchestrator) refreshPendingCount(ctx context.Context) {
	count, err := o.syncer.PendingCount(ctx)
	if err != nil {
		o.logger.Error(ctx, "failed to count pending changes", "error", err)
		return
	}
	o.update(func(s *Status) { s.PendingCount = count })
}

// SyncNow is the explicit user trigger.
func (o *Orchestrator) SyncNow(ctx context.Context) {
	o.runSync(ctx)
}

// runSync executes one serialized sync attempt. A trigger firing while a
// sync is in flight is a no-op; the next trigger catches remaining work.
func (o *Orchestrator) runSync(ctx context.Context) {
	if o.Status().StorageBlocked {
		return
	}
	if !o.syncing.CompareAndSwap(false, true) {
		return
	}
	defer o.syncing.Store(false)

	o.update(func(s *Status) { s.Syncing = true })

	res := o.syncer.Sync(ctx)

	message := "ok"
	if len(res.Errors) > 0 {
		message = res.Errors[0]
	}
	now := time.Now()

	o.update(func(s *Status) {
		s.Syncing = false
		s.Online = o.monitor.Online()
		s.LastResult = &Result{Success: res.Success, Message: message}
		if res.Success {
			s.LastSyncTime = &now
		}
	})
	o.refreshPendingCount(ctx)
}
