package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoEngine is the "remote" storage engine: each Put upserts a
// {path, bytes, written_at} document into one collection. Adapted from the
// teacher's MongoStorage, which inserted decoded Item fields directly;
// here the engine only ever sees the already-encoded bytes a codec
// produced, so it stores them as an opaque blob keyed by path.
type MongoEngine struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoEngine connects to uri and returns a MongoEngine writing into
// database.collection.
func NewMongoEngine(ctx context.Context, uri, database, collection string) (*MongoEngine, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo engine: connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("mongo engine: ping: %w", err)
	}

	return &MongoEngine{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

func (e *MongoEngine) Proto() string { return "mongo" }

func (e *MongoEngine) Put(ctx context.Context, path string, data []byte) error {
	doc := map[string]any{
		"path":       path,
		"bytes":      data,
		"written_at": time.Now(),
	}
	filter := map[string]any{"path": path}
	update := map[string]any{"$set": doc}
	opts := options.Update().SetUpsert(true)

	if _, err := e.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("mongo engine: upsert %s: %w", path, err)
	}
	return nil
}

func (e *MongoEngine) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.client.Disconnect(ctx)
}

// MultiEngine fans out each Put to every backend, returning the first
// error encountered while still attempting every backend. Adapted from the
// teacher's MultiStorage fan-out wrapper.
type MultiEngine struct {
	backends []Engine
}

// NewMultiEngine wraps backends as a single fan-out Engine.
func NewMultiEngine(backends ...Engine) *MultiEngine {
	return &MultiEngine{backends: backends}
}

func (e *MultiEngine) Proto() string { return "multi" }

func (e *MultiEngine) Put(ctx context.Context, path string, data []byte) error {
	var firstErr error
	for _, backend := range e.backends {
		if err := backend.Put(ctx, path, data); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("multi engine: %s: %w", backend.Proto(), err)
		}
	}
	return firstErr
}

func (e *MultiEngine) Close() error {
	var firstErr error
	for _, backend := range e.backends {
		if err := backend.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
