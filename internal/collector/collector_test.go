package collector

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DanchukIvan/byteflow/internal/batch"
	"github.com/DanchukIvan/byteflow/internal/buffer"
	"github.com/DanchukIvan/byteflow/internal/eor"
	"github.com/DanchukIvan/byteflow/internal/pipeline"
	"github.com/DanchukIvan/byteflow/internal/resource"
	"github.com/DanchukIvan/byteflow/internal/schedule"
	"github.com/DanchukIvan/byteflow/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeFetcher serves a fixed number of "pages" before returning 404, so the
// Status EOR trigger has something real to end the resource on.
type fakeFetcher struct {
	mu      sync.Mutex
	served  int
	maxPage int
}

func (f *fakeFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.served++
	if f.served > f.maxPage {
		return nil, &types.FetchError{URL: req.URLString(), StatusCode: 404, Err: types.ErrResourceStopped}
	}
	return &types.Response{
		StatusCode: 200,
		Body:       []byte(`{"ok":true}`),
		Request:    req,
		FetchedAt:  time.Now(),
	}, nil
}

func (f *fakeFetcher) Close() error { return nil }
func (f *fakeFetcher) Type() string { return "fake" }

// fakeEngine records every Put in memory.
type fakeEngine struct {
	mu   sync.Mutex
	puts map[string][]byte
}

func newFakeEngine() *fakeEngine { return &fakeEngine{puts: make(map[string][]byte)} }

func (e *fakeEngine) Put(ctx context.Context, path string, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.puts[path] = data
	return nil
}

func (e *fakeEngine) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.puts)
}

func buildResource(maxPages int) *resource.Resource {
	r := resource.NewResource("widgets", "https://api.example.com/widgets", maxPages)
	q := resource.NewCollectQuery("default")
	r.AddQuery(q)
	return r
}

func TestCollectorDrainsResourceUntilStatusEOR(t *testing.T) {
	fetch := &fakeFetcher{maxPage: 3}
	engine := newFakeEngine()
	store := buffer.NewBufferableStorage[*types.Item](
		engine,
		func(item *types.Item) ([]byte, error) { return item.ToJSON() },
	)

	c := New(Config[*types.Item]{
		Name:       "widgets",
		Resource:   buildResource(10),
		Condition:  schedule.AlwaysRun{},
		Counter:    batch.NewCounter(5),
		Resolver:   eor.NewResolver([]eor.Trigger{eor.NewStatus(404)}),
		Store:      store,
		Fetcher:    fetch,
		MaxRetries: 0,
		Logger:     testLogger,
		Decode: func(body []byte) (*types.Item, error) {
			item := types.NewItem("")
			item.Set("raw", string(body))
			return item, nil
		},
	})

	rescheduled := c.Run(context.Background())
	if rescheduled {
		t.Error("AlwaysRun collector should not request a reschedule")
	}
	if engine.count() != 3 {
		t.Errorf("expected 3 flushed records (pages before 404), got %d", engine.count())
	}
}

func TestCollectorAppliesPipelineBeforeBuffering(t *testing.T) {
	fetch := &fakeFetcher{maxPage: 1}
	engine := newFakeEngine()
	store := buffer.NewBufferableStorage[*types.Item](
		engine,
		func(item *types.Item) ([]byte, error) { return item.ToJSON() },
	)

	p := pipeline.New[*types.Item](testLogger, 0)
	p.UseSimple("mark", func(item *types.Item) (*types.Item, error) {
		item.Set("marked", true)
		return item, nil
	})

	c := New(Config[*types.Item]{
		Name:      "widgets",
		Resource:  buildResource(1),
		Condition: schedule.AlwaysRun{},
		Counter:   batch.NewCounter(2),
		Resolver:  eor.NewResolver([]eor.Trigger{eor.NewStatus(404)}),
		Pipeline:  p,
		Store:     store,
		Fetcher:   fetch,
		Logger:    testLogger,
		Decode: func(body []byte) (*types.Item, error) {
			item := types.NewItem("")
			item.Set("raw", string(body))
			return item, nil
		},
	})

	c.Run(context.Background())
	if engine.count() == 0 {
		t.Fatal("expected at least one flushed record")
	}
	for path, data := range engine.puts {
		if !strings.Contains(string(data), "marked") {
			t.Errorf("expected flushed record %s to carry pipeline transform, got %s", path, data)
		}
	}
}
