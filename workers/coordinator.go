// workers/coordinator.go
package workers

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"creator-indexer/utils"
)

// Triggerer requests a sync pass without blocking.
type Triggerer interface {
	Trigger()
}

// SynchronizerResult is the outcome of one synchronizer in the last pass.
type SynchronizerResult struct {
	Name  string    `json:"name"`
	Stats SyncStats `json:"stats"`
	Error string    `json:"error,omitempty"`
}

// CoordinatorStatus is a snapshot for the ops surface.
type CoordinatorStatus struct {
	Running        bool                 `json:"running"`
	Passes         int64                `json:"passes"`
	LastPassStart  time.Time            `json:"last_pass_start,omitempty"`
	LastPassFinish time.Time            `json:"last_pass_finish,omitempty"`
	LastResults    []SynchronizerResult `json:"last_results,omitempty"`
}

// Coordinator runs full sync passes one at a time. Trigger requests that
// arrive while a pass runs coalesce into exactly one follow-up pass.
type Coordinator struct {
	synchronizers []Synchronizer
	settleDelay   time.Duration

	requests chan struct{} // capacity 1: a buffered token means "pass pending"
	running  atomic.Bool
	passes   atomic.Int64

	mu     sync.Mutex
	status CoordinatorStatus
}

// NewCoordinator runs synchronizers in the given order on every pass.
func NewCoordinator(settleDelay time.Duration, synchronizers ...Synchronizer) *Coordinator {
	return &Coordinator{
		synchronizers: synchronizers,
		settleDelay:   settleDelay,
		requests:      make(chan struct{}, 1),
	}
}

// Trigger asks for a pass. It never blocks: if a request is already pending
// this one is folded into it.
func (c *Coordinator) Trigger() {
	select {
	case c.requests <- struct{}{}:
	default:
	}
}

// Run serves trigger requests until ctx is cancelled. A pass in flight is
// allowed to finish before Run returns.
func (c *Coordinator) Run(ctx context.Context) {
	log.Println("🔁 Starting sync coordinator…")
	defer log.Println("⏹️ Sync coordinator stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.requests:
		}

		c.runPass(ctx)
		for c.takePending() {
			if !c.settle(ctx) {
				return
			}
			// Requests made while settling are served by the pass about to start.
			c.takePending()
			c.runPass(ctx)
		}
	}
}

func (c *Coordinator) takePending() bool {
	select {
	case <-c.requests:
		return true
	default:
		return false
	}
}

func (c *Coordinator) settle(ctx context.Context) bool {
	if c.settleDelay <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(c.settleDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// runPass executes every synchronizer in order. One failing synchronizer
// never stops the others.
func (c *Coordinator) runPass(ctx context.Context) {
	if !c.running.CompareAndSwap(false, true) {
		panic("sync coordinator: concurrent pass detected")
	}
	defer c.running.Store(false)

	n := c.passes.Add(1)
	start := time.Now()
	c.mu.Lock()
	c.status.LastPassStart = start
	c.mu.Unlock()
	log.Printf("[COORDINATOR] ▶️ Pass #%d started", n)

	results := make([]SynchronizerResult, 0, len(c.synchronizers))
	failed := 0
	for _, s := range c.synchronizers {
		stats, err := runSynchronizer(ctx, s)
		res := SynchronizerResult{Name: s.Name(), Stats: stats}
		if err != nil {
			failed++
			res.Error = err.Error()
			log.Printf("[COORDINATOR] ❌ %s failed: %v", s.Name(), err)
		} else {
			log.Printf("[COORDINATOR] ✅ %s: %s", s.Name(), stats)
		}
		results = append(results, res)
	}

	elapsed := time.Since(start)
	status := "ok"
	if failed > 0 {
		status = "partial"
	}
	utils.SyncPasses.WithLabelValues(status).Inc()
	utils.SyncPassDuration.Observe(elapsed.Seconds())

	c.mu.Lock()
	c.status.LastPassFinish = time.Now()
	c.status.LastResults = results
	c.mu.Unlock()
	log.Printf("[COORDINATOR] ⏹️ Pass #%d finished in %s (%d/%d synchronizers failed)", n, elapsed.Round(time.Millisecond), failed, len(c.synchronizers))
}

func runSynchronizer(ctx context.Context, s Synchronizer) (stats SyncStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Sync(ctx)
}

// Passes returns how many passes have started.
func (c *Coordinator) Passes() int64 { return c.passes.Load() }

// Status returns a snapshot of the coordinator state.
func (c *Coordinator) Status() CoordinatorStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.status
	st.Running = c.running.Load()
	st.Passes = c.passes.Load()
	st.LastResults = append([]SynchronizerResult(nil), c.status.LastResults...)
	return st
}
