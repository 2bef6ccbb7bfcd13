// Package pipeline implements the generic, off-loop transform chain a
// Collector runs decoded records through between fetch and buffer: an
// ordered list of transform steps, an optional content filter, an error
// handler, and a timeout. Generalized from the teacher's Item-only
// Pipeline/Middleware chain into Pipeline[T] so any decoded record type —
// not just *types.Item — can be run through the same machinery, replacing
// the reflection-checked, runtime-resolved codec/transform binding of the
// original collection engine with one the Go compiler enforces: a step
// registered on a Pipeline[T] must be a Step[T] (or, through UseSimple, a
// func(T) (T, error)), so a mismatched transform is a build error.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DanchukIvan/byteflow/internal/types"
)

// Step transforms one record. Returning a zero T with keep=false drops the
// record from the batch.
type Step[T any] func(ctx context.Context, v T) (out T, keep bool, err error)

// Pipeline runs a batch of records through an ordered chain of Steps,
// off the collector's main loop, bounded by a timeout.
type Pipeline[T any] struct {
	steps       []namedStep[T]
	filter      func(T) bool
	onError     func(error) error
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
}

type namedStep[T any] struct {
	name string
	fn   Step[T]
}

// New creates an empty Pipeline. concurrency bounds how many records are
// processed in parallel per Run call; 0 means unbounded (one goroutine per
// record in the batch).
func New[T any](logger *slog.Logger, concurrency int) *Pipeline[T] {
	return &Pipeline[T]{
		concurrency: concurrency,
		logger:      logger.With("component", "pipeline"),
	}
}

// Use appends a named step to the chain, run in registration order.
func (p *Pipeline[T]) Use(name string, fn Step[T]) {
	p.steps = append(p.steps, namedStep[T]{name: name, fn: fn})
	p.logger.Debug("step added", "name", name, "position", len(p.steps))
}

// UseSimple adapts a step that never drops records and never needs ctx.
func (p *Pipeline[T]) UseSimple(name string, fn func(T) (T, error)) {
	p.Use(name, func(ctx context.Context, v T) (T, bool, error) {
		out, err := fn(v)
		if err != nil {
			var zero T
			return zero, false, err
		}
		return out, true, nil
	})
}

// ContentFilter sets a predicate run before any step; records for which it
// returns false are dropped without entering the step chain.
func (p *Pipeline[T]) ContentFilter(fn func(T) bool) { p.filter = fn }

// OnError installs a handler that can translate or suppress a step error.
// Returning nil from it keeps the batch processing instead of failing Run.
func (p *Pipeline[T]) OnError(fn func(error) error) { p.onError = fn }

// Timeout sets a deadline for each Run call. The deadline is carried by the
// context passed to every step, and no further step starts once it has
// passed; a step already running is not interrupted. RunOne does not apply it.
func (p *Pipeline[T]) Timeout(d time.Duration) { p.timeout = d }

// Len returns the number of registered steps.
func (p *Pipeline[T]) Len() int { return len(p.steps) }

// Run filters, then transforms every surviving record concurrently,
// returning the records that made it through every step.
func (p *Pipeline[T]) Run(ctx context.Context, batch []T) ([]T, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	surviving := make([]T, 0, len(batch))
	for _, v := range batch {
		if p.filter == nil || p.filter(v) {
			surviving = append(surviving, v)
		}
	}

	limit := p.concurrency
	if limit <= 0 || limit > len(surviving) {
		limit = len(surviving)
	}
	if limit == 0 {
		return nil, nil
	}

	results := make([]T, len(surviving))
	keepFlags := make([]bool, len(surviving))
	errs := make([]error, len(surviving))

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i, v := range surviving {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, v T) {
			defer wg.Done()
			defer func() { <-sem }()
			out, keep, err := p.runOne(ctx, v)
			results[i] = out
			keepFlags[i] = keep
			errs[i] = err
		}(i, v)
	}
	wg.Wait()

	out := make([]T, 0, len(surviving))
	for i := range surviving {
		if errs[i] != nil {
			handled := errs[i]
			if p.onError != nil {
				handled = p.onError(errs[i])
			}
			if handled != nil {
				return nil, handled
			}
			continue
		}
		if keepFlags[i] {
			out = append(out, results[i])
		}
	}
	return out, nil
}

// RunOne runs a single record through the content filter and step chain,
// preserving the caller's own correlation of records to external state
// (e.g. a storage path derived from the record's source URL) that a batch
// Run call's reordering/dropping would otherwise lose.
func (p *Pipeline[T]) RunOne(ctx context.Context, v T) (out T, keep bool, err error) {
	if p.filter != nil && !p.filter(v) {
		var zero T
		return zero, false, nil
	}
	out, keep, err = p.runOne(ctx, v)
	if err != nil && p.onError != nil {
		if handled := p.onError(err); handled == nil {
			var zero T
			return zero, false, nil
		} else {
			return out, false, handled
		}
	}
	return out, keep, err
}

// ItemStep adapts the teacher's Middleware.Process signature (drop an item
// by returning a nil *Item) onto Step[*types.Item], so the built-in
// middleware catalog in middleware.go plugs directly into a generic
// Pipeline[*types.Item] without restating its logic.
func ItemStep(process func(*types.Item) (*types.Item, error)) Step[*types.Item] {
	return func(ctx context.Context, item *types.Item) (*types.Item, bool, error) {
		out, err := process(item)
		if err != nil {
			return nil, false, err
		}
		if out == nil {
			return nil, false, nil
		}
		return out, true, nil
	}
}

func (p *Pipeline[T]) runOne(ctx context.Context, v T) (T, bool, error) {
	current := v
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, false, err
		}
		out, keep, err := step.fn(ctx, current)
		if err != nil {
			var zero T
			return zero, false, fmt.Errorf("step %q: %w", step.name, err)
		}
		if !keep {
			var zero T
			return zero, false, nil
		}
		current = out
	}
	return current, true, nil
}
