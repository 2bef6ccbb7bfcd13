package batch

import (
	"context"
	"testing"
	"time"
)

func TestAcquireReleaseInvariant(t *testing.T) {
	c := NewCounter(10)
	c.Register()

	ctx := context.Background()
	id, size, err := c.AcquireBatch(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if size != 10 {
		t.Fatalf("expected sole collector to get the full budget, got %d", size)
	}
	if c.barrier+size != c.maxBatch {
		t.Fatalf("invariant violated: barrier=%d size=%d maxBatch=%d", c.barrier, size, c.maxBatch)
	}

	c.ReleaseBatch(id)
	if c.barrier != c.maxBatch {
		t.Fatalf("expected barrier to be fully restored, got %d", c.barrier)
	}
}

func TestTwoCollectorsSplitBudget(t *testing.T) {
	c := NewCounter(10)
	c.Register()
	c.Register()

	ctx := context.Background()
	id1, size1, err := c.AcquireBatch(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id2, size2, err := c.AcquireBatch(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if size1+size2 > c.maxBatch {
		t.Fatalf("collectors over-checked-out budget: %d + %d > %d", size1, size2, c.maxBatch)
	}
	if c.barrier+size1+size2 != c.maxBatch {
		t.Fatalf("invariant violated: barrier=%d outstanding=%d maxBatch=%d", c.barrier, size1+size2, c.maxBatch)
	}

	c.ReleaseBatch(id1)
	c.ReleaseBatch(id2)
}

func TestAcquireBlocksUntilBudgetAvailable(t *testing.T) {
	c := NewCounter(1)
	c.Register()

	ctx := context.Background()
	id, _, err := c.AcquireBatch(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	released := make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		c.ReleaseBatch(id)
		close(released)
	}()

	ctx2, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, _, err := c.AcquireBatch(ctx2); err != nil {
		t.Fatalf("expected second acquire to succeed after release, got %v", err)
	}
	<-released
}

func TestAcquireRespectsContextCancellation(t *testing.T) {
	c := NewCounter(1)
	c.Register()

	ctx := context.Background()
	if _, _, err := c.AcquireBatch(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, _, err := c.AcquireBatch(ctx2); err == nil {
		t.Fatal("expected context deadline to abort the blocked acquire")
	}
}
