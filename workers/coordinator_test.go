package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSync is a Synchronizer whose first call can be held open.
type scriptedSync struct {
	name    string
	calls   atomic.Int64
	err     error
	panics  bool
	started chan struct{}
	release chan struct{}
}

func (s *scriptedSync) Name() string { return s.name }

func (s *scriptedSync) Sync(ctx context.Context) (SyncStats, error) {
	n := s.calls.Add(1)
	if n == 1 && s.started != nil {
		close(s.started)
		<-s.release
	}
	if s.panics {
		panic("boom")
	}
	return SyncStats{Unchanged: 1}, s.err
}

func startCoordinator(t *testing.T, c *Coordinator) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestCoordinatorCoalescesTriggersDuringPass(t *testing.T) {
	s := &scriptedSync{name: "blocking", started: make(chan struct{}), release: make(chan struct{})}
	c := NewCoordinator(5*time.Millisecond, s)
	startCoordinator(t, c)

	c.Trigger()
	<-s.started
	for i := 0; i < 10; i++ {
		c.Trigger()
	}
	assert.True(t, c.Status().Running)
	close(s.release)

	require.Eventually(t, func() bool { return c.Passes() == 2 && !c.Status().Running }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(2), c.Passes(), "burst must fold into exactly one follow-up pass")
	assert.Equal(t, int64(2), s.calls.Load())
}

func TestCoordinatorIdleWithoutTriggers(t *testing.T) {
	s := &scriptedSync{name: "idle"}
	c := NewCoordinator(0, s)
	startCoordinator(t, c)

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, c.Passes())

	c.Trigger()
	require.Eventually(t, func() bool { return s.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestCoordinatorContinuesPastFailingSynchronizers(t *testing.T) {
	failing := &scriptedSync{name: "failing", err: errors.New("node unreachable")}
	panicking := &scriptedSync{name: "panicking", panics: true}
	healthy := &scriptedSync{name: "healthy"}
	c := NewCoordinator(0, failing, panicking, healthy)
	startCoordinator(t, c)

	c.Trigger()
	require.Eventually(t, func() bool {
		return healthy.calls.Load() == 1 && len(c.Status().LastResults) == 3
	}, time.Second, 5*time.Millisecond)

	results := c.Status().LastResults
	assert.Equal(t, "failing", results[0].Name)
	assert.Contains(t, results[0].Error, "node unreachable")
	assert.Contains(t, results[1].Error, "panic")
	assert.Empty(t, results[2].Error)
	assert.Equal(t, 1, results[2].Stats.Unchanged)
}

func TestCoordinatorRejectsConcurrentPass(t *testing.T) {
	c := NewCoordinator(0)
	c.running.Store(true)
	assert.Panics(t, func() { c.runPass(context.Background()) })
}

func TestCoordinatorTriggerNeverBlocks(t *testing.T) {
	c := NewCoordinator(0)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			c.Trigger()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Trigger blocked without a running coordinator")
	}
}
