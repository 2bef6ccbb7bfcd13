package schedule

import (
	"context"
	"testing"
	"time"
)

func TestAlwaysRun(t *testing.T) {
	var c ActionCondition = AlwaysRun{}
	if !c.IsAble() {
		t.Fatal("AlwaysRun should always be able")
	}
	if err := c.Pending(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDailyIntervalWindow(t *testing.T) {
	now := time.Date(2026, 7, 30, 9, 30, 0, 0, time.UTC)
	start := ClockTime{Hour: 9, Minute: 0}
	end := ClockTime{Hour: 17, Minute: 0}
	di := NewDailyInterval(1, start, end, time.Time{}, now)

	if !di.InWindow(now) {
		t.Fatal("expected now to be within today's window")
	}

	di.NextLaunch()
	if di.Launch().Day() != now.Day()+1 {
		t.Fatalf("expected next launch to be tomorrow, got %v", di.Launch())
	}
}

func TestDailyIntervalShiftLaunchAbsorbsLag(t *testing.T) {
	launch := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)
	start := ClockTime{Hour: 9, Minute: 0}
	end := ClockTime{Hour: 23, Minute: 0}
	di := NewDailyInterval(1, start, end, launch, launch)

	// woke up 4 hours late against a 2-hour frequency
	lateNow := launch.Add(4 * time.Hour)
	di.ShiftLaunch(lateNow, 2)

	got := di.Launch().Sub(launch).Hours()
	if got != 4 {
		t.Fatalf("expected lag to be absorbed (4h shift), got %vh", got)
	}
}

func TestTimeConditionOneRunAdvancesDay(t *testing.T) {
	launch := time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)
	start := ClockTime{Hour: 9, Minute: 0}
	end := ClockTime{Hour: 10, Minute: 0}
	clock := NewFakeClock(launch)
	di := NewDailyInterval(1, start, end, launch, launch)
	tc := NewTimeCondition(di, 0, clock)

	if !tc.IsAble() {
		t.Fatal("expected condition to be able at launch instant")
	}
	tc.Reset()
	if tc.NextRun().Day() == launch.Day() {
		t.Fatalf("expected one_run condition to roll to next day, got %v", tc.NextRun())
	}
}

func TestWeekdayIntervalCycles(t *testing.T) {
	now := time.Date(2026, 7, 27, 9, 0, 0, 0, time.UTC) // Monday
	start := ClockTime{Hour: 9, Minute: 0}
	end := ClockTime{Hour: 17, Minute: 0}
	wi := NewWeekdayInterval([]time.Weekday{time.Monday, time.Wednesday, time.Friday}, start, end, now, now)

	wi.NextLaunch()
	if wi.Launch().Weekday() != time.Wednesday {
		t.Fatalf("expected next launch on Wednesday, got %v", wi.Launch().Weekday())
	}
}
