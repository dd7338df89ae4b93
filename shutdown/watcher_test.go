package shutdown

import (
	"context"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus-crane/lure/playback"
)

// fakeSignals stands in for os/signal so tests can deliver signals directly
type fakeSignals struct {
	mu      sync.Mutex
	c       chan<- os.Signal
	ready   chan struct{}
	stopped bool
}

func newFakeSignals() *fakeSignals {
	return &fakeSignals{ready: make(chan struct{})}
}

func (f *fakeSignals) install(w *Watcher) {
	w.notify = func(c chan<- os.Signal, _ ...os.Signal) {
		f.mu.Lock()
		f.c = c
		f.mu.Unlock()
		close(f.ready)
	}
	w.stop = func(chan<- os.Signal) {
		f.mu.Lock()
		f.stopped = true
		f.mu.Unlock()
	}
}

func (f *fakeSignals) send(t *testing.T, sig os.Signal) {
	t.Helper()
	select {
	case <-f.ready:
	case <-time.After(time.Second):
		t.Fatal("watcher never subscribed to signals")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.c <- sig
}

func (f *fakeSignals) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func TestWatcherSendsGracefulShutdown(t *testing.T) {
	t.Parallel()
	fake := newFakeSignals()
	w := NewWatcher(nil, nil)
	fake.install(w)

	out := make(chan playback.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(context.Background(), out)
	}()

	fake.send(t, syscall.SIGTERM)
	require.NoError(t, <-done)
	assert.Equal(t, playback.Message(playback.Shutdown{Graceful: true}), <-out)
	assert.True(t, fake.isStopped())
}

func TestWatcherWaitsForRoom(t *testing.T) {
	t.Parallel()
	fake := newFakeSignals()
	w := NewWatcher(nil, nil)
	fake.install(w)

	out := make(chan playback.Message, 1)
	out <- playback.Idle{}
	done := make(chan error, 1)
	go func() {
		done <- w.Run(context.Background(), out)
	}()

	fake.send(t, os.Interrupt)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, playback.Message(playback.Idle{}), <-out)

	require.NoError(t, <-done)
	assert.Equal(t, playback.Message(playback.Shutdown{Graceful: true}), <-out)
}

func TestWatcherSecondSignalForcesExit(t *testing.T) {
	t.Parallel()
	fake := newFakeSignals()
	forced := make(chan struct{})
	w := NewWatcher(nil, func() { close(forced) })
	fake.install(w)

	out := make(chan playback.Message)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(context.Background(), out)
	}()

	fake.send(t, os.Interrupt)
	fake.send(t, os.Interrupt)

	select {
	case <-forced:
	case <-time.After(time.Second):
		t.Fatal("second signal did not force an exit")
	}
	require.NoError(t, <-done)
}

func TestWatcherStopsWithContext(t *testing.T) {
	t.Parallel()
	fake := newFakeSignals()
	w := NewWatcher(nil, nil)
	fake.install(w)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan playback.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, out)
	}()
	cancel()

	require.NoError(t, <-done)
	assert.Len(t, out, 0)
}
