package app

import (
	"testing"

	"github.com/DanchukIvan/byteflow/internal/config"
)

func TestParseWeekdaysAcceptsFullAndAbbreviatedNames(t *testing.T) {
	days, err := parseWeekdays([]string{"Monday", "wed", "FRIDAY"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 3 {
		t.Fatalf("expected 3 weekdays, got %d", len(days))
	}
}

func TestParseWeekdaysRejectsUnknownName(t *testing.T) {
	if _, err := parseWeekdays([]string{"funday"}); err == nil {
		t.Fatal("expected error for unknown weekday name")
	}
}

func TestBuildConditionDefaultsToAlwaysRun(t *testing.T) {
	cond, err := buildCondition(config.ScheduleConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cond.IsAble() {
		t.Fatal("expected AlwaysRun condition to always be able to run")
	}
}

func TestBuildConditionDaily(t *testing.T) {
	cond, err := buildCondition(config.ScheduleConfig{
		Type:           "daily",
		IntervalDays:   1,
		LaunchHour:     6,
		LaunchMinute:   0,
		FrequencyHours: 24,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cond == nil {
		t.Fatal("expected non-nil condition")
	}
}

func TestBuildConditionWeekdayRequiresWeekdays(t *testing.T) {
	if _, err := buildCondition(config.ScheduleConfig{Type: "weekday"}); err == nil {
		t.Fatal("expected error when no weekdays are configured")
	}
}

func TestBuildConditionRejectsUnknownType(t *testing.T) {
	if _, err := buildCondition(config.ScheduleConfig{Type: "biweekly"}); err == nil {
		t.Fatal("expected error for unknown schedule type")
	}
}

func TestBuildResolverWithNoTriggersStillResolves(t *testing.T) {
	resolver := buildResolver(config.EORConfig{})
	if resolver == nil {
		t.Fatal("expected non-nil resolver even with no configured triggers")
	}
}

func TestBuildResolverWithAllTriggers(t *testing.T) {
	resolver := buildResolver(config.EORConfig{
		StopCodes:        []int{404, 410},
		MinContentLength: 32,
		MaxRounds:        5,
	})
	if resolver == nil {
		t.Fatal("expected non-nil resolver")
	}
}
