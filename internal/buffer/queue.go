package buffer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DanchukIvan/byteflow/internal/types"
)

// Engine is the minimal write surface a BufferableStorage needs from a
// storage backend: persist one encoded record at a path. Concrete engines
// (file-based, MongoDB-backed, ...) live in package storage and are
// registered process-wide by protocol name.
type Engine interface {
	Put(ctx context.Context, path string, data []byte) error
}

// ContentQueue buffers decoded records by their rendered output path ahead
// of a flush to a storage engine.
type ContentQueue[T any] struct {
	mu      sync.Mutex
	objects map[string]T
}

// NewContentQueue creates an empty ContentQueue.
func NewContentQueue[T any]() *ContentQueue[T] {
	return &ContentQueue[T]{objects: make(map[string]T)}
}

// Put stores or overwrites the record at path.
func (q *ContentQueue[T]) Put(path string, v T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.objects[path] = v
}

// Len returns the number of buffered records.
func (q *ContentQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.objects)
}

// Drain removes and returns every buffered (path, record) pair.
func (q *ContentQueue[T]) Drain() map[string]T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.objects
	q.objects = make(map[string]T)
	return out
}

// BufferableStorage pairs one ContentQueue with the Limits that gate its
// flush and the Engine it flushes to. Where several are kept side by side,
// a Dispatcher addresses each by a plain string id rather than by the
// CollectQuery object itself, since Go has no weak-reference map equivalent.
type BufferableStorage[T any] struct {
	mu         sync.Mutex
	queue      *ContentQueue[T]
	limits     []Limit
	engine     Engine
	encode     func(T) ([]byte, error)
	lastCommit time.Time
	memAlloc   func() float64 // optional; estimates current buffer memory use in MB
}

// NewBufferableStorage wires a ContentQueue to its engine, encoder, and
// overflow limits.
func NewBufferableStorage[T any](engine Engine, encode func(T) ([]byte, error), limits ...Limit) *BufferableStorage[T] {
	return &BufferableStorage[T]{
		queue:      NewContentQueue[T](),
		limits:     limits,
		engine:     engine,
		encode:     encode,
		lastCommit: time.Now(),
	}
}

// Put buffers a record at path.
func (b *BufferableStorage[T]) Put(path string, v T) {
	b.queue.Put(path, v)
}

// Overflowed reports whether any registered Limit currently trips.
func (b *BufferableStorage[T]) Overflowed() bool {
	stats := Stats{
		TotalObjects: b.queue.Len(),
		LastCommit:   b.lastCommitTime(),
	}
	if b.memAlloc != nil {
		stats.MemAllocMB = b.memAlloc()
	}
	for _, l := range b.limits {
		if l.IsOverflowed(stats) {
			return true
		}
	}
	return false
}

func (b *BufferableStorage[T]) lastCommitTime() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastCommit
}

// MergeToBackend encodes and writes every buffered record to the storage
// engine. A record is only removed from the queue once its write is
// acknowledged; on error the remaining un-written records stay buffered so
// a retry does not lose them, and the error identifies which path failed.
func (b *BufferableStorage[T]) MergeToBackend(ctx context.Context) error {
	drained := b.queue.Drain()

	for path, obj := range drained {
		data, err := b.encode(obj)
		if err != nil {
			b.requeue(path, obj, drained)
			return &types.FlushError{Path: path, Err: fmt.Errorf("encode: %w", err)}
		}
		if err := b.engine.Put(ctx, path, data); err != nil {
			b.requeue(path, obj, drained)
			return &types.FlushError{Path: path, Err: err}
		}
		delete(drained, path)
	}

	b.mu.Lock()
	b.lastCommit = time.Now()
	b.mu.Unlock()
	return nil
}

// requeue puts back everything still pending in `drained` (including the
// record that just failed) so a partial flush doesn't silently drop data.
func (b *BufferableStorage[T]) requeue(failedPath string, failedObj T, drained map[string]T) {
	for path, obj := range drained {
		b.queue.Put(path, obj)
	}
	b.queue.Put(failedPath, failedObj)
}

// Dispatcher maps a query identity (e.g. a resource+request name) to its
// own BufferableStorage, so independently-paced collectors don't share one
// queue's flush cadence.
type Dispatcher[T any] struct {
	mu       sync.Mutex
	storages map[string]*BufferableStorage[T]
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher[T any]() *Dispatcher[T] {
	return &Dispatcher[T]{storages: make(map[string]*BufferableStorage[T])}
}

// CreateBuffer registers bs under id, replacing any storage already there.
func (d *Dispatcher[T]) CreateBuffer(id string, bs *BufferableStorage[T]) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.storages[id] = bs
}

// Get returns the BufferableStorage registered under id, or nil.
func (d *Dispatcher[T]) Get(id string) *BufferableStorage[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.storages[id]
}
