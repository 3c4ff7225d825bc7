package schedule

import (
	"math"
	"strings"
	"time"
)

// IntervalUnit is the period unit of an Every schedule.
type IntervalUnit string

const (
	UnitYear     IntervalUnit = "year"
	UnitMonth    IntervalUnit = "month"
	UnitTwoWeeks IntervalUnit = "two-weeks"
	UnitWeek     IntervalUnit = "week"
	UnitDay      IntervalUnit = "day"
	UnitHour     IntervalUnit = "hour"
	UnitMinute   IntervalUnit = "minute"
	UnitSecond   IntervalUnit = "second"
)

// ParseIntervalUnit accepts the canonical names case-insensitively.
func ParseIntervalUnit(s string) (IntervalUnit, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	switch IntervalUnit(normalized) {
	case UnitYear, UnitMonth, UnitTwoWeeks, UnitWeek, UnitDay, UnitHour, UnitMinute, UnitSecond:
		return IntervalUnit(normalized), nil
	}
	if normalized == "two_weeks" || normalized == "twoweeks" {
		return UnitTwoWeeks, nil
	}
	return "", NewError(CodeInvalidDate, "unknown interval unit %q", s)
}

// Add advances t by count units. Calendar units keep the wall clock, and year and
// month steps stop at the last day of a shorter target month. Sub-day units are
// absolute spans.
func (u IntervalUnit) Add(t time.Time, count int) time.Time {
	switch u {
	case UnitYear:
		return addMonths(t, 12*count)
	case UnitMonth:
		return addMonths(t, count)
	case UnitTwoWeeks:
		return t.AddDate(0, 0, 14*count)
	case UnitWeek:
		return t.AddDate(0, 0, 7*count)
	case UnitDay:
		return t.AddDate(0, 0, count)
	case UnitHour:
		return addSeconds(t, int64(count)*3600)
	case UnitMinute:
		return addSeconds(t, int64(count)*60)
	case UnitSecond:
		return addSeconds(t, int64(count))
	}
	return t
}

func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, minute, second := t.Clock()
	target := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	year, month = target.Year(), target.Month()
	return time.Date(year, month, clampDay(year, month, day), hour, minute, second, t.Nanosecond(), t.Location())
}

// maxDurationSeconds is the largest whole-second span a time.Duration holds.
const maxDurationSeconds = int64(math.MaxInt64 / int64(time.Second))

// addSeconds advances t by an absolute number of seconds, past the range of time.Duration if needed.
func addSeconds(t time.Time, secs int64) time.Time {
	if secs <= maxDurationSeconds && secs >= -maxDurationSeconds {
		return t.Add(time.Duration(secs) * time.Second)
	}
	return time.Unix(t.Unix()+secs, int64(t.Nanosecond())).In(t.Location())
}
