package schedule

import (
	"sort"
	"time"
)

// ClockTime is a time-of-day, independent of any particular date.
type ClockTime struct {
	Hour   int
	Minute int
}

func (c ClockTime) onDate(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour, c.Minute, 0, 0, date.Location())
}

// DailyInterval fires every N days, within a [start, end) time-of-day window.
// Grounded on the day-stride scheduler in the original collection engine's
// scheduling module.
type DailyInterval struct {
	interval int
	start    ClockTime
	end      ClockTime
	launch   time.Time
}

// NewDailyInterval creates a DailyInterval. If launch is the zero Time, the
// first launch is today at start.
func NewDailyInterval(dayInterval int, start, end ClockTime, launch time.Time, now time.Time) *DailyInterval {
	if dayInterval < 0 {
		dayInterval = -dayInterval
	}
	if launch.IsZero() {
		launch = start.onDate(now)
	}
	return &DailyInterval{interval: dayInterval, start: start, end: end, launch: launch}
}

func (d *DailyInterval) InWindow(now time.Time) bool {
	endOfWindow := d.end.onDate(d.launch)
	return !now.Before(d.launch) && now.Before(endOfWindow)
}

func (d *DailyInterval) Launch() time.Time { return d.launch }

func (d *DailyInterval) End() time.Time { return d.end.onDate(d.launch) }

func (d *DailyInterval) ShiftLaunch(now time.Time, frequencyHours float64) {
	lag := now.Sub(d.launch).Hours()
	freq := frequencyHours
	if lag > freq {
		freq = lag
	}
	d.launch = d.launch.Add(time.Duration(freq * float64(time.Hour)))
}

func (d *DailyInterval) NextLaunch() {
	nextDate := d.launch.AddDate(0, 0, d.interval)
	d.launch = d.start.onDate(nextDate)
}

func (d *DailyInterval) Period() any { return d.interval }

// WeekdayInterval fires on a cyclic set of weekdays, within a [start, end)
// time-of-day window each scheduled day.
type WeekdayInterval struct {
	weekdays       []time.Weekday // sorted
	cursor         int
	currentWeekday time.Weekday
	start          ClockTime
	end            ClockTime
	launch         time.Time
}

// NewWeekdayInterval creates a WeekdayInterval over the given weekday set.
func NewWeekdayInterval(weekdays []time.Weekday, start, end ClockTime, launch time.Time, now time.Time) *WeekdayInterval {
	uniq := make(map[time.Weekday]struct{}, len(weekdays))
	for _, w := range weekdays {
		uniq[w] = struct{}{}
	}
	sorted := make([]time.Weekday, 0, len(uniq))
	for w := range uniq {
		sorted = append(sorted, w)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	if launch.IsZero() {
		launch = start.onDate(now)
	}
	w := &WeekdayInterval{
		weekdays: sorted,
		start:    start,
		end:      end,
		launch:   launch,
	}
	if len(sorted) > 0 {
		w.currentWeekday = sorted[0]
	}
	return w
}

func (w *WeekdayInterval) nextWeekday() time.Weekday {
	if len(w.weekdays) == 0 {
		return w.currentWeekday
	}
	w.cursor = (w.cursor + 1) % len(w.weekdays)
	return w.weekdays[w.cursor]
}

func (w *WeekdayInterval) InWindow(now time.Time) bool {
	endOfWindow := w.end.onDate(w.launch)
	return !now.Before(w.launch) && now.Before(endOfWindow)
}

func (w *WeekdayInterval) Launch() time.Time { return w.launch }

func (w *WeekdayInterval) End() time.Time { return w.end.onDate(w.launch) }

func (w *WeekdayInterval) ShiftLaunch(now time.Time, frequencyHours float64) {
	lag := now.Sub(w.launch).Hours()
	freq := frequencyHours
	if lag > freq {
		freq = lag
	}
	w.launch = w.launch.Add(time.Duration(freq * float64(time.Hour)))
}

func (w *WeekdayInterval) NextLaunch() {
	next := w.nextWeekday()
	interval := (int(next) - int(w.currentWeekday) + 7) % 7
	if interval == 0 {
		interval = 7
	}
	w.currentWeekday = next
	nextDate := w.launch.AddDate(0, 0, interval)
	w.launch = w.start.onDate(nextDate)
}

func (w *WeekdayInterval) Period() any { return w.weekdays }
