// Package schedule implements the time-gated launch conditions that a
// Collector checks before it is allowed to run another batch.
package schedule

import (
	"context"
	"time"
)

// ActionCondition gates whether a collector may run right now, and knows
// how to wait until it can.
type ActionCondition interface {
	// IsAble reports whether the condition currently allows a run.
	IsAble() bool

	// Pending blocks until IsAble() would return true, or ctx is done.
	Pending(ctx context.Context) error
}

// AlwaysRun is the degenerate ActionCondition used by collectors that have
// no launch schedule: it is always able to run.
type AlwaysRun struct{}

func (AlwaysRun) IsAble() bool { return true }

func (AlwaysRun) Pending(ctx context.Context) error { return ctx.Err() }

// ScheduleInterval is the stride policy underneath a TimeCondition: either a
// fixed day stride (DailyInterval) or a cyclic weekday set (WeekdayInterval).
type ScheduleInterval interface {
	// InWindow reports whether now falls within [launch, End()): from the
	// launch instant up to, but not including, the end time-of-day on the
	// launch date.
	InWindow(now time.Time) bool

	// Launch returns the currently scheduled launch instant.
	Launch() time.Time

	// End returns the end-of-window time-of-day for the current launch date.
	End() time.Time

	// ShiftLaunch re-aligns launch forward by frequency hours, absorbing any
	// lag if the process woke up later than the scheduled launch.
	ShiftLaunch(now time.Time, frequencyHours float64)

	// NextLaunch advances to the next scheduled launch date.
	NextLaunch()

	// Period returns the configured stride, for diagnostics.
	Period() any
}
