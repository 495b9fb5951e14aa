package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avolkovs/pennywise/internal/client/services"
	"github.com/avolkovs/pennywise/internal/logging"
)

type fakeSyncer struct {
	mu         sync.Mutex
	syncCalls  int
	inFlight   atomic.Int32
	maxFlight  atomic.Int32
	blockSync  chan struct{}
	result     *services.SyncResult
	pending    int
	onMutation func()
}

func newFakeSyncer() *fakeSyncer {
	return &fakeSyncer{result: &services.SyncResult{Success: true}}
}

func (f *fakeSyncer) Sync(ctx context.Context) *services.SyncResult {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxFlight.Load()
		if cur <= seen || f.maxFlight.CompareAndSwap(seen, cur) {
			break
		}
	}

	if f.blockSync != nil {
		<-f.blockSync
	}

	f.mu.Lock()
	f.syncCalls++
	f.mu.Unlock()
	return f.result
}

func (f *fakeSyncer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.syncCalls
}

func (f *fakeSyncer) PendingCount(ctx context.Context) (int, error) {
	return f.pending, nil
}

func (f *fakeSyncer) OnMutation(fn func()) { f.onMutation = fn }

type fakeMonitor struct {
	online   atomic.Bool
	onChange func(bool)
}

func (f *fakeMonitor) CheckReachable(ctx context.Context) bool { return f.online.Load() }
func (f *fakeMonitor) Online() bool                            { return f.online.Load() }
func (f *fakeMonitor) OnChange(fn func(online bool))           { f.onChange = fn }

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testOptions() Options {
	return Options{
		StartupDelay:    10 * time.Millisecond,
		DebounceDelay:   10 * time.Millisecond,
		RefreshInterval: time.Hour,
	}
}

func TestOrchestrator_StartupSyncRunsWhenOnline(t *testing.T) {
	syncer := newFakeSyncer()
	monitor := &fakeMonitor{}
	monitor.online.Store(true)

	o := New(syncer, monitor, testLogger(), testOptions())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)

	require.Eventually(t, func() bool { return syncer.calls() == 1 },
		time.Second, 10*time.Millisecond)

	st := o.Status()
	require.True(t, st.Online)
	require.NotNil(t, st.LastResult)
	require.True(t, st.LastResult.Success)
	require.NotNil(t, st.LastSyncTime)
}

func TestOrchestrator_StartupSkippedWhenOffline(t *testing.T) {
	syncer := newFakeSyncer()
	monitor := &fakeMonitor{}

	o := New(syncer, monitor, testLogger(), testOptions())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)

	time.Sleep(50 * time.Millisecond)
	require.Zero(t, syncer.calls())
	require.False(t, o.Status().Online)
}

func TestOrchestrator_MutationDebouncesIntoSingleSync(t *testing.T) {
	syncer := newFakeSyncer()
	monitor := &fakeMonitor{}
	monitor.online.Store(true)

	opts := testOptions()
	opts.StartupDelay = time.Hour // keep the startup sync out of the picture
	o := New(syncer, monitor, testLogger(), opts)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)

	require.NotNil(t, syncer.onMutation)
	for i := 0; i < 5; i++ {
		syncer.onMutation()
	}

	require.Eventually(t, func() bool { return syncer.calls() == 1 },
		time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, syncer.calls())
}

func TestOrchestrator_ConcurrentTriggersSingleFlight(t *testing.T) {
	syncer := newFakeSyncer()
	syncer.blockSync = make(chan struct{})
	monitor := &fakeMonitor{}
	monitor.online.Store(true)

	opts := testOptions()
	opts.StartupDelay = time.Hour
	o := New(syncer, monitor, testLogger(), opts)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.SyncNow(ctx)
		}()
	}

	time.Sleep(30 * time.Millisecond)
	close(syncer.blockSync)
	wg.Wait()

	require.Equal(t, int32(1), syncer.maxFlight.Load())
	require.Equal(t, 1, syncer.calls())
}

func TestOrchestrator_StorageBlockedSuppressesSync(t *testing.T) {
	syncer := newFakeSyncer()
	monitor := &fakeMonitor{}
	monitor.online.Store(true)

	o := New(syncer, monitor, testLogger(), testOptions())
	o.SetStorageBlocked(true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)

	o.SyncNow(ctx)
	time.Sleep(50 * time.Millisecond)
	require.Zero(t, syncer.calls())
	require.True(t, o.Status().StorageBlocked)
}

func TestOrchestrator_ConnectivityChangeUpdatesStatus(t *testing.T) {
	syncer := newFakeSyncer()
	monitor := &fakeMonitor{}

	opts := testOptions()
	opts.StartupDelay = time.Hour
	o := New(syncer, monitor, testLogger(), opts)

	var snapshots []Status
	var mu sync.Mutex
	o.Subscribe(func(s Status) {
		mu.Lock()
		snapshots = append(snapshots, s)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)

	require.NotNil(t, monitor.onChange)
	monitor.onChange(true)

	require.True(t, o.Status().Online)
	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, snapshots)
	require.True(t, snapshots[len(snapshots)-1].Online)
}

func TestOrchestrator_FailedSyncKeepsLastSyncTimeUnset(t *testing.T) {
	syncer := newFakeSyncer()
	syncer.result = &services.SyncResult{Success: false, Errors: []string{"server unreachable"}}
	monitor := &fakeMonitor{}
	monitor.online.Store(true)

	opts := testOptions()
	opts.StartupDelay = time.Hour
	o := New(syncer, monitor, testLogger(), opts)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	o.Start(ctx)

	o.SyncNow(ctx)

	st := o.Status()
	require.NotNil(t, st.LastResult)
	require.False(t, st.LastResult.Success)
	require.Equal(t, "server unreachable", st.LastResult.Message)
	require.Nil(t, st.LastSyncTime)
}
