// Package collector implements the data collector loop: the component that
// ties a Resource's URL generation, EOR detection, batch-budget sharing,
// fetching, transformation, and buffered storage into one schedulable unit.
// Grounded on ApiDataCollector.start()/process_requests() in the original
// collection engine's data_collectors/api.py.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DanchukIvan/byteflow/internal/batch"
	"github.com/DanchukIvan/byteflow/internal/buffer"
	"github.com/DanchukIvan/byteflow/internal/eor"
	"github.com/DanchukIvan/byteflow/internal/fetcher"
	"github.com/DanchukIvan/byteflow/internal/pipeline"
	"github.com/DanchukIvan/byteflow/internal/resource"
	"github.com/DanchukIvan/byteflow/internal/schedule"
	"github.com/DanchukIvan/byteflow/internal/types"
)

// Decode turns a fetched response body into a record of type T.
type Decode[T any] func(body []byte) (T, error)

// PathFor derives the storage path a decoded record should be buffered
// under, given the URL it was fetched from.
type PathFor func(url string) string

// Collector runs one Resource's collection loop: acquire a share of the
// shared batch budget, pull that many URLs off the Resource's URLStream,
// fetch them concurrently, resolve end-of-resource against the fetched
// batch, decode and transform the surviving responses, and buffer them for
// flush. Type parameter T is the decoded record shape this Resource
// produces (e.g. *types.Item).
type Collector[T any] struct {
	Name string

	resource    *resource.Resource
	requestName string
	condition   schedule.ActionCondition
	counter     *batch.Counter
	resolver    *eor.Resolver
	pipeline    *pipeline.Pipeline[T]
	store       *buffer.BufferableStorage[T]
	fetcher     fetcher.Fetcher
	decode      Decode[T]
	pathFor     PathFor

	maxRetries int
	logger     *slog.Logger
}

// Config bundles the collaborators a Collector needs. Resource, Counter,
// Resolver, Store, Fetcher, and Decode are required; Condition (AlwaysRun),
// Pipeline, PathFor, MaxRetries, and Logger have usable zero-value defaults.
type Config[T any] struct {
	Name        string
	Resource    *resource.Resource
	RequestName string // empty means every query registered on Resource
	Condition   schedule.ActionCondition
	Counter     *batch.Counter
	Resolver    *eor.Resolver
	Pipeline    *pipeline.Pipeline[T]
	Store       *buffer.BufferableStorage[T]
	Fetcher     fetcher.Fetcher
	Decode      Decode[T]
	PathFor     PathFor
	MaxRetries  int
	Logger      *slog.Logger
}

// New builds a Collector from cfg.
func New[T any](cfg Config[T]) *Collector[T] {
	condition := cfg.Condition
	if condition == nil {
		condition = schedule.AlwaysRun{}
	}
	pathFor := cfg.PathFor
	if pathFor == nil {
		pathFor = defaultPathFor
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector[T]{
		Name:        cfg.Name,
		resource:    cfg.Resource,
		requestName: cfg.RequestName,
		condition:   condition,
		counter:     cfg.Counter,
		resolver:    cfg.Resolver,
		pipeline:    cfg.Pipeline,
		store:       cfg.Store,
		fetcher:     cfg.Fetcher,
		decode:      cfg.Decode,
		pathFor:     pathFor,
		maxRetries:  cfg.MaxRetries,
		logger:      logger.With("component", "collector", "resource", cfg.Name),
	}
}

func defaultPathFor(url string) string {
	return fmt.Sprintf("%d.bin", time.Now().UnixNano())
}

// Run waits for the collector's launch condition, then drains the
// Resource's URLStream once: acquiring budget, fetching, resolving EOR,
// transforming, and buffering until the stream is exhausted or an
// unrecoverable error occurs. It returns true if the collector's schedule
// calls for another run later (a *schedule.TimeCondition), false if this
// was a one-shot pass (schedule.AlwaysRun). A failed pass is logged but
// does not by itself stop future rescheduling of a TimeCondition collector.
func (c *Collector[T]) Run(ctx context.Context) bool {
	if err := c.condition.Pending(ctx); err != nil {
		c.logger.Warn("launch wait canceled", "err", err)
		return false
	}

	if err := c.drain(ctx); err != nil {
		c.logger.Error("collector pass failed", "err", err)
	}

	// Whether to run again is a property of the schedule, not of this
	// pass's outcome: a TimeCondition collector is rescheduled at its next
	// trigger interval even after a failed pass (storage errors, fetch
	// errors) per the supervisor's recovery policy.
	_, recurring := c.condition.(*schedule.TimeCondition)
	return recurring
}

// drain runs one full pass over the Resource's URLStream.
func (c *Collector[T]) drain(ctx context.Context) error {
	c.counter.Register()
	defer c.counter.Unregister()

	stream := c.resource.Stream(c.requestName)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		id, size, err := c.counter.AcquireBatch(ctx)
		if err != nil {
			return fmt.Errorf("acquire batch: %w", err)
		}

		urls := make([]string, 0, size)
		for len(urls) < size {
			url, ok := stream.Next()
			if !ok {
				break
			}
			urls = append(urls, url)
		}

		c.counter.RecalcLimit(id)

		if len(urls) == 0 {
			c.counter.ReleaseBatch(id)
			break
		}

		responses := c.fetchAll(ctx, urls)
		c.counter.ReleaseBatch(id)

		eorBatch := &eor.Batch{
			Content:   make([][]byte, len(responses)),
			Responses: make([]*types.Response, len(responses)),
		}
		for i, r := range responses {
			if r.resp != nil {
				eorBatch.Content[i] = r.resp.Body
				eorBatch.Responses[i] = r.resp
			}
		}

		keep, endOfResource := c.resolver.Resolve(eorBatch)

		for i, r := range responses {
			if i < len(keep) && !keep[i] {
				continue
			}
			if r.err != nil {
				return fmt.Errorf("fetch failed for %s after retries: %w", urls[i], r.err)
			}
			rec, err := c.decode(r.resp.Body)
			if err != nil {
				c.logger.Warn("decode failed, skipping", "url", urls[i], "err", err)
				continue
			}
			setSourceURL(rec, urls[i])
			path := c.pathFor(urls[i])

			if c.pipeline != nil {
				transformed, keepRec, err := c.pipeline.RunOne(ctx, rec)
				if err != nil {
					return fmt.Errorf("pipeline: %w", err)
				}
				if !keepRec {
					continue
				}
				rec = transformed
			}

			c.store.Put(path, rec)
		}

		if c.store.Overflowed() {
			if err := c.store.MergeToBackend(ctx); err != nil {
				return fmt.Errorf("flush: %w", err)
			}
		}

		if endOfResource {
			stream.AdvanceAxis()
		}
	}

	return c.store.MergeToBackend(ctx)
}

type fetchResult struct {
	resp *types.Response
	err  error
}

// fetchAll issues one fetch per URL concurrently, retrying transient
// failures up to c.maxRetries with jittered backoff honoring any
// Retry-After the fetcher surfaced.
func (c *Collector[T]) fetchAll(ctx context.Context, urls []string) []fetchResult {
	results := make([]fetchResult, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			results[i] = c.fetchOne(ctx, u)
		}(i, u)
	}
	wg.Wait()
	return results
}

func (c *Collector[T]) fetchOne(ctx context.Context, rawURL string) fetchResult {
	req, err := types.NewRequest(rawURL)
	if err != nil {
		return fetchResult{err: err}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		resp, err := c.fetcher.Fetch(ctx, req)
		if err == nil {
			return fetchResult{resp: resp}
		}
		lastErr = err

		fetchErr, ok := err.(*types.FetchError)
		if !ok || !fetchErr.Retryable || attempt == c.maxRetries {
			break
		}

		delay := fetchErr.RetryAfter
		if delay <= 0 {
			delay = fetcher.RandomDelay(time.Duration(attempt+1) * 500 * time.Millisecond)
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fetchResult{err: ctx.Err()}
		case <-timer.C:
		}
	}
	return fetchResult{err: lastErr}
}
