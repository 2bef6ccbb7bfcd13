// Package buffer implements the in-memory content queue a collector writes
// decoded records into between flushes, and the pluggable overflow Limits
// that decide when a queue must be drained to its storage engine. Grounded
// on the @limit registry in the original collection engine's scheduling
// module (CountLimit/MemoryLimit/TimeLimit/UnableBufferize).
package buffer

import (
	"fmt"
	"sync"
	"time"
)

// Stats is the subset of a BufferableStorage a Limit needs to decide
// overflow, kept separate from the storage type itself so Limits stay
// decoupled from any particular ContentQueue element type.
type Stats struct {
	TotalObjects int
	MemAllocMB   float64
	LastCommit   time.Time
}

// Limit decides whether a buffered queue has overflowed and must be flushed.
type Limit interface {
	IsOverflowed(s Stats) bool
}

// LimitFactory builds a Limit from a capacity value, mirroring
// setup_limit(limit_type, capacity, storage) in the original.
type LimitFactory func(capacity any) (Limit, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]LimitFactory)
)

// RegisterLimit adds a named limit factory to the process-wide registry.
// Like storage engines and codecs, this is done before any collector
// starts. The registry is guarded by a mutex, so RegisterLimit and
// BuildLimit may be called concurrently.
func RegisterLimit(name string, factory LimitFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// BuildLimit constructs a Limit by its registered name.
func BuildLimit(name string, capacity any) (Limit, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("buffer: no limit registered as %q", name)
	}
	return factory(capacity)
}

func init() {
	RegisterLimit("count", func(capacity any) (Limit, error) {
		n, err := toInt(capacity)
		if err != nil {
			return nil, err
		}
		return &CountLimit{Capacity: n}, nil
	})
	RegisterLimit("memory", func(capacity any) (Limit, error) {
		f, err := toFloat(capacity)
		if err != nil {
			return nil, err
		}
		return &MemoryLimit{CapacityMB: f}, nil
	})
	RegisterLimit("time", func(capacity any) (Limit, error) {
		n, err := toInt(capacity)
		if err != nil {
			return nil, err
		}
		return &TimeLimit{Capacity: time.Duration(n) * time.Second}, nil
	})
	RegisterLimit("unable", func(capacity any) (Limit, error) {
		return UnableBufferize{}, nil
	})
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("buffer: capacity %v is not numeric", v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("buffer: capacity %v is not numeric", v)
	}
}

// CountLimit overflows once the queue holds more than Capacity objects.
type CountLimit struct{ Capacity int }

func (l *CountLimit) IsOverflowed(s Stats) bool { return s.TotalObjects > l.Capacity }

// MemoryLimit overflows once the queue's estimated memory footprint exceeds
// CapacityMB.
type MemoryLimit struct{ CapacityMB float64 }

func (l *MemoryLimit) IsOverflowed(s Stats) bool { return s.MemAllocMB > l.CapacityMB }

// TimeLimit overflows once longer than Capacity has passed since the last
// flush.
type TimeLimit struct{ Capacity time.Duration }

func (l *TimeLimit) IsOverflowed(s Stats) bool {
	if s.LastCommit.IsZero() {
		return false
	}
	return time.Since(s.LastCommit) > l.Capacity
}

// UnableBufferize never buffers: every write is immediately considered an
// overflow, forcing a per-batch flush. Used for resources whose records
// must reach storage without any coalescing delay.
type UnableBufferize struct{}

func (UnableBufferize) IsOverflowed(Stats) bool { return true }
