package buffer

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeEngine struct {
	writes map[string][]byte
	failOn string
}

func (f *fakeEngine) Put(ctx context.Context, path string, data []byte) error {
	if path == f.failOn {
		return errors.New("simulated write failure")
	}
	if f.writes == nil {
		f.writes = make(map[string][]byte)
	}
	f.writes[path] = data
	return nil
}

func TestCountLimitOverflow(t *testing.T) {
	l := &CountLimit{Capacity: 2}
	if l.IsOverflowed(Stats{TotalObjects: 2}) {
		t.Fatal("expected no overflow at exactly capacity")
	}
	if !l.IsOverflowed(Stats{TotalObjects: 3}) {
		t.Fatal("expected overflow above capacity")
	}
}

func TestUnableBufferizeAlwaysOverflows(t *testing.T) {
	if !(UnableBufferize{}).IsOverflowed(Stats{}) {
		t.Fatal("UnableBufferize must always report overflow")
	}
}

func TestBuildLimitFromRegistry(t *testing.T) {
	l, err := BuildLimit("count", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.IsOverflowed(Stats{TotalObjects: 3}) {
		t.Fatal("expected no overflow under capacity")
	}
}

func TestMergeToBackendDrainsOnSuccess(t *testing.T) {
	engine := &fakeEngine{}
	bs := NewBufferableStorage[string](engine, func(s string) ([]byte, error) { return []byte(s), nil })
	bs.Put("a.json", "hello")
	bs.Put("b.json", "world")

	if err := bs.MergeToBackend(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bs.queue.Len() != 0 {
		t.Fatalf("expected queue to be drained, still has %d entries", bs.queue.Len())
	}
	if string(engine.writes["a.json"]) != "hello" {
		t.Fatalf("expected a.json written, got %v", engine.writes)
	}
}

func TestMergeToBackendRequeuesOnPartialFailure(t *testing.T) {
	engine := &fakeEngine{failOn: "bad.json"}
	bs := NewBufferableStorage[string](engine, func(s string) ([]byte, error) { return []byte(s), nil })
	bs.Put("bad.json", "x")

	if err := bs.MergeToBackend(context.Background()); err == nil {
		t.Fatal("expected an error from the failing write")
	}
	if bs.queue.Len() != 1 {
		t.Fatalf("expected the failed record to stay buffered, queue has %d entries", bs.queue.Len())
	}
}

func TestTimeLimitOverflow(t *testing.T) {
	l := &TimeLimit{Capacity: 10 * time.Millisecond}
	if l.IsOverflowed(Stats{LastCommit: time.Now()}) {
		t.Fatal("expected no overflow immediately after commit")
	}
	time.Sleep(20 * time.Millisecond)
	if !l.IsOverflowed(Stats{LastCommit: time.Now().Add(-20 * time.Millisecond)}) {
		t.Fatal("expected overflow once capacity elapsed")
	}
}
