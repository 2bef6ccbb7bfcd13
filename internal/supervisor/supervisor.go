// Package supervisor runs every registered collector concurrently, waits
// for first completions, and relaunches whichever ones ask to be
// rescheduled. Grounded on Yass._run_coros in the original collection
// engine's top-level driver, which fans active conditions out as tasks and
// recursively restarts any that signal they should run again.
package supervisor

import (
	"context"
	"log/slog"
	"time"
)

// runnable is the type-erased shape every *collector.Collector[T]
// satisfies regardless of its decoded record type T, since a Supervisor
// holds collectors across Resources that may decode to different types.
type runnable interface {
	Run(ctx context.Context) bool
}

type entry struct {
	name string
	task runnable
}

// Supervisor holds every collector the process should drive and runs them
// concurrently until each either finishes for good or the context is
// canceled.
type Supervisor struct {
	entries        []entry
	lookupInterval time.Duration
	logger         *slog.Logger
}

// New creates a Supervisor. lookupInterval bounds how long Run waits
// between logging a status line while tasks are still in flight; it does
// not bound the collectors' own run time.
func New(lookupInterval time.Duration, logger *slog.Logger) *Supervisor {
	if lookupInterval <= 0 {
		lookupInterval = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		lookupInterval: lookupInterval,
		logger:         logger.With("component", "supervisor"),
	}
}

// Register adds a named collector to the pool. Must be called before Run.
func (s *Supervisor) Register(name string, c runnable) {
	s.entries = append(s.entries, entry{name: name, task: c})
}

type result struct {
	name        string
	task        runnable
	rescheduled bool
}

// Run launches every registered collector as its own goroutine and waits
// on first-completion, relaunching any collector whose Run call returns
// true (it has a later scheduled launch). Run returns when every
// collector has permanently finished, or ctx is canceled.
func (s *Supervisor) Run(ctx context.Context, debug bool) error {
	results := make(chan result)

	launch := func(e entry) {
		go func() {
			rescheduled := e.task.Run(ctx)
			select {
			case results <- result{name: e.name, task: e.task, rescheduled: rescheduled}:
			case <-ctx.Done():
			}
		}()
	}

	pending := len(s.entries)
	for _, e := range s.entries {
		launch(e)
	}

	for pending > 0 {
		select {
		case <-ctx.Done():
			s.logger.Warn("supervisor stopping, context canceled", "pending", pending)
			return ctx.Err()

		case res := <-results:
			pending--
			if debug {
				s.logger.Debug("collector finished", "name", res.name, "rescheduled", res.rescheduled, "pending", pending)
			}
			if res.rescheduled {
				launch(entry{name: res.name, task: res.task})
				pending++
			}

		case <-time.After(s.lookupInterval):
			if debug {
				s.logger.Debug("still awaiting collectors", "pending", pending)
			}
		}
	}

	s.logger.Info("all collectors finished")
	return nil
}
