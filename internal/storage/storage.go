// Package storage implements the pluggable Engine Registry: storage
// backends keyed by protocol ("file", "mongo") that a BufferableStorage
// flushes encoded records into. Adapted from the teacher's Storage
// interface (Store/Close/Name over []*types.Item) to the byte-oriented
// Put(ctx, path, data) shape a generic BufferableStorage[T] needs, since
// buffered records are no longer always types.Item.
package storage

import (
	"context"
	"fmt"
	"sync"
)

// Engine is a storage backend that can persist one encoded record at a
// path. It satisfies buffer.Engine without importing that package, avoiding
// an import cycle between storage and buffer.
type Engine interface {
	// Put writes data at path, creating any intermediate structure the
	// backend needs (directories, collections, ...).
	Put(ctx context.Context, path string, data []byte) error

	// Close flushes any pending writes and releases backend resources.
	Close() error

	// Proto returns the backend's registered protocol name.
	Proto() string
}

// EngineFactory builds an Engine from backend-specific parameters.
type EngineFactory func(params map[string]any) (Engine, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]EngineFactory)
)

// RegisterEngine adds a named engine factory to the process-wide registry.
// Like buffer limits and codecs, registration must complete before any
// collector starts.
func RegisterEngine(proto string, factory EngineFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[proto] = factory
}

// BuildEngine constructs an Engine by its registered protocol name.
func BuildEngine(proto string, params map[string]any) (Engine, error) {
	registryMu.RLock()
	factory, ok := registry[proto]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: no engine registered for proto %q", proto)
	}
	return factory(params)
}

func init() {
	RegisterEngine("file", func(params map[string]any) (Engine, error) {
		root, _ := params["root"].(string)
		if root == "" {
			root = "./output"
		}
		return NewFileEngine(root), nil
	})
	RegisterEngine("mongo", func(params map[string]any) (Engine, error) {
		uri, _ := params["uri"].(string)
		database, _ := params["database"].(string)
		collection, _ := params["collection"].(string)
		return NewMongoEngine(context.Background(), uri, database, collection)
	})
}
