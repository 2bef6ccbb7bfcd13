// Package batch implements BatchCounter, an async-semaphore-like primitive
// that divides a shared per-resource request budget (max_batch) among
// however many collectors are concurrently active against that resource.
// There is no Python original to ground this against directly — the source
// only imports BatchCounter under TYPE_CHECKING without defining it — so
// this is built from the acquire/release/recalc semantics described for the
// scheduled data-collection engine directly.
package batch

import (
	"context"
	"sync"
)

// Counter coordinates batch sizing across N concurrently active collectors
// that share one max_batch budget. Invariant: barrier + sum(outstanding) ==
// maxBatch at all times.
type Counter struct {
	mu          sync.Mutex
	cond        *sync.Cond
	maxBatch    int
	barrier     int         // budget not currently checked out to any collector
	active      int         // number of collectors currently registered
	outstanding map[int]int // acquisition id -> checked-out size
	nextID      int
}

// NewCounter creates a Counter with the given shared budget.
func NewCounter(maxBatch int) *Counter {
	c := &Counter{
		maxBatch:    maxBatch,
		barrier:     maxBatch,
		outstanding: make(map[int]int),
	}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Register adds one more active collector to the pool, shrinking each
// collector's fair share.
func (c *Counter) Register() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active++
}

// Unregister removes a collector from the pool.
func (c *Counter) Unregister() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active > 0 {
		c.active--
	}
	c.cond.Broadcast()
}

// minBatch returns (quotient, remainder) of maxBatch split across active
// collectors, matching the split described for batch sizing: each active
// collector gets maxBatch/active, with the remainder assignable to any one
// collector that currently needs it.
func (c *Counter) minBatch() (quotient, remainder int) {
	active := c.active
	if active <= 0 {
		active = 1
	}
	return c.maxBatch / active, c.maxBatch % active
}

// AcquireBatch blocks until the barrier holds at least one fair share of the
// shared budget, then checks that share out and returns its size along with
// an acquisition handle to pass to ReleaseBatch/RecalcLimit.
func (c *Counter) AcquireBatch(ctx context.Context) (id int, size int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}
		quotient, remainder := c.minBatch()
		want := quotient
		if remainder > 0 {
			want++
		}
		if want <= 0 {
			want = 1
		}
		if c.barrier >= want {
			c.barrier -= want
			c.nextID++
			id = c.nextID
			c.outstanding[id] = want
			return id, want, nil
		}
		waitOnCond(ctx, c.cond)
	}
}

// ReleaseBatch returns a checked-out share to the barrier.
func (c *Counter) ReleaseBatch(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	size, ok := c.outstanding[id]
	if !ok {
		return
	}
	delete(c.outstanding, id)
	c.barrier += size
	c.cond.Broadcast()
}

// RecalcLimit re-evaluates id's checked-out share against the current
// number of active collectors, growing or shrinking it in place and
// returning the new size. Called before awaiting a round of responses so a
// collector that joined or left mid-run redistributes budget fairly without
// violating barrier + sum(outstanding) == maxBatch.
func (c *Counter) RecalcLimit(id int) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.outstanding[id]
	if !ok {
		return 0
	}
	quotient, remainder := c.minBatch()
	want := quotient
	if remainder > 0 {
		want++
	}
	if want <= 0 {
		want = 1
	}

	switch {
	case want > current:
		grow := want - current
		if grow > c.barrier {
			grow = c.barrier
		}
		c.barrier -= grow
		c.outstanding[id] = current + grow
	case want < current:
		shrink := current - want
		c.barrier += shrink
		c.outstanding[id] = current - shrink
		c.cond.Broadcast()
	}
	return c.outstanding[id]
}

// waitOnCond blocks on cond.Wait but also wakes up if ctx is done, by
// spawning a one-shot goroutine that broadcasts on cancellation.
func waitOnCond(ctx context.Context, cond *sync.Cond) {
	done := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		cond.L.Lock()
		cond.Broadcast()
		cond.L.Unlock()
		close(done)
	})
	defer stop()
	cond.Wait()
	select {
	case <-done:
	default:
	}
}
