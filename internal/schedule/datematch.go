package schedule

import (
	"strconv"
	"strings"
	"time"
)

// Field identifies a calendar field of a DateMatch, ordered from coarsest to finest.
type Field int

const (
	FieldNone Field = iota
	FieldYear
	FieldMonth
	FieldDay
	FieldWeekday
	FieldHour
	FieldMinute
	FieldSecond
)

var fieldNames = [...]string{
	FieldNone:    "none",
	FieldYear:    "year",
	FieldMonth:   "month",
	FieldDay:     "day",
	FieldWeekday: "weekday",
	FieldHour:    "hour",
	FieldMinute:  "minute",
	FieldSecond:  "second",
}

func (f Field) String() string {
	if f < FieldNone || f > FieldSecond {
		return "unknown"
	}
	return fieldNames[f]
}

// ParseField resolves a unit token of the compact DateMatch form.
func ParseField(s string) (Field, error) {
	for i, name := range fieldNames {
		if name == s {
			return Field(i), nil
		}
	}
	return FieldNone, NewError(CodeInvalidDate, "unknown date match unit %q", s)
}

// DateMatch is a partial calendar pattern. Nil fields are wildcards and inherit the
// reference instant's value. Month is 1-12, Weekday is 1-7 with 1 = Sunday.
type DateMatch struct {
	Year    *int `json:"year,omitempty"`
	Month   *int `json:"month,omitempty"`
	Day     *int `json:"day,omitempty"`
	Weekday *int `json:"weekday,omitempty"`
	Hour    *int `json:"hour,omitempty"`
	Minute  *int `json:"minute,omitempty"`
	Second  *int `json:"second,omitempty"`
}

// Int returns a pointer to v for building DateMatch literals.
func Int(v int) *int { return &v }

type fieldRange struct{ min, max int }

var fieldRanges = [...]fieldRange{
	FieldYear:    {1, 9999},
	FieldMonth:   {1, 12},
	FieldDay:     {1, 31},
	FieldWeekday: {1, 7},
	FieldHour:    {0, 23},
	FieldMinute:  {0, 59},
	FieldSecond:  {0, 59},
}

// fields lists the pattern values indexed by Field.
func (m DateMatch) fields() [FieldSecond + 1]*int {
	return [FieldSecond + 1]*int{
		FieldYear:    m.Year,
		FieldMonth:   m.Month,
		FieldDay:     m.Day,
		FieldWeekday: m.Weekday,
		FieldHour:    m.Hour,
		FieldMinute:  m.Minute,
		FieldSecond:  m.Second,
	}
}

// Unit is the finest-grained pinned field, or FieldNone for an all-wildcard pattern.
func (m DateMatch) Unit() Field {
	fs := m.fields()
	for f := FieldSecond; f > FieldNone; f-- {
		if fs[f] != nil {
			return f
		}
	}
	return FieldNone
}

// rollover is the coarsest pinned field; postponement bumps the unit above it.
func (m DateMatch) rollover() Field {
	fs := m.fields()
	for f := FieldYear; f <= FieldSecond; f++ {
		if fs[f] != nil {
			return f
		}
	}
	return FieldNone
}

// IsWildcard reports whether no field is pinned.
func (m DateMatch) IsWildcard() bool {
	return m.Unit() == FieldNone
}

// Validate checks every pinned field against its calendar range.
func (m DateMatch) Validate() error {
	fs := m.fields()
	for f := FieldYear; f <= FieldSecond; f++ {
		if fs[f] == nil {
			continue
		}
		r := fieldRanges[f]
		if v := *fs[f]; v < r.min || v > r.max {
			return NewError(CodeInvalidDate, "%s must be between %d and %d, got %d", f, r.min, r.max, v)
		}
	}
	return nil
}

// NextTrigger returns the next instant matching the pattern relative to ref,
// evaluated in ref's location.
func (m DateMatch) NextTrigger(ref time.Time) time.Time {
	return m.NextTriggerIn(ref, ref.Location())
}

// NextTriggerIn pins the set fields onto ref (sub-seconds dropped) in loc. When the
// candidate is not after ref, the calendar unit above the coarsest pinned field is
// incremented once. A pinned day beyond the end of a month lands on its last day.
// The result is deterministic for a given ref.
func (m DateMatch) NextTriggerIn(ref time.Time, loc *time.Location) time.Time {
	current, next := m.candidate(ref, loc)
	unit := m.rollover()
	if unit == FieldNone || next.After(current) {
		return next
	}
	return m.postpone(next, unit)
}

// Upcoming lists up to n successive trigger instants after ref. A wildcard pattern
// yields one instant per second. The list stops early once the pattern can no
// longer advance, as happens for a pinned year that has passed.
func (m DateMatch) Upcoming(ref time.Time, loc *time.Location, n int) []time.Time {
	if n < 0 {
		n = 0
	}
	out := make([]time.Time, 0, n)
	for len(out) < n {
		var next time.Time
		if m.IsWildcard() {
			next = ref.Truncate(time.Second).Add(time.Second)
		} else {
			next = m.NextTriggerIn(ref, loc)
		}
		if !next.After(ref) {
			break
		}
		out = append(out, next)
		ref = next
	}
	return out
}

// candidate returns ref without sub-seconds and the instant with the pinned fields applied.
func (m DateMatch) candidate(ref time.Time, loc *time.Location) (current, next time.Time) {
	ref = ref.In(loc)
	year, month, day := ref.Date()
	hour, minute, second := ref.Clock()
	current = time.Date(year, month, day, hour, minute, second, 0, loc)

	if m.Year != nil {
		year = *m.Year
	}
	if m.Month != nil {
		month = time.Month(*m.Month)
	}
	if m.Day != nil {
		day = *m.Day
	}
	day = clampDay(year, month, day)
	if m.Hour != nil {
		hour = *m.Hour
	}
	if m.Minute != nil {
		minute = *m.Minute
	}
	if m.Second != nil {
		second = *m.Second
	}
	next = time.Date(year, month, day, hour, minute, second, 0, loc)
	if m.Weekday != nil {
		// Move within the Sunday-started week of the candidate.
		next = next.AddDate(0, 0, (*m.Weekday-1)-int(next.Weekday()))
	}
	return current, next
}

func (m DateMatch) postpone(t time.Time, unit Field) time.Time {
	year, month, day := t.Date()
	hour, minute, second := t.Clock()
	switch unit {
	case FieldYear, FieldMonth:
		return m.addMonths(t, 12)
	case FieldDay:
		return m.addMonths(t, 1)
	case FieldWeekday:
		return t.AddDate(0, 0, 7)
	case FieldHour:
		return t.AddDate(0, 0, 1)
	case FieldMinute:
		return time.Date(year, month, day, hour+1, minute, second, 0, t.Location())
	case FieldSecond:
		return time.Date(year, month, day, hour, minute+1, second, 0, t.Location())
	}
	return t
}

// addMonths moves t forward by months and re-applies the pinned day, clamped to the
// last day of the target month.
func (m DateMatch) addMonths(t time.Time, months int) time.Time {
	if m.Day != nil {
		year, month, _ := t.Date()
		hour, minute, second := t.Clock()
		t = time.Date(year, month, 1, hour, minute, second, 0, t.Location())
		return withDay(addMonths(t, months), *m.Day)
	}
	return addMonths(t, months)
}

func withDay(t time.Time, day int) time.Time {
	year, month, _ := t.Date()
	hour, minute, second := t.Clock()
	return time.Date(year, month, clampDay(year, month, day), hour, minute, second, t.Nanosecond(), t.Location())
}

func clampDay(year int, month time.Month, day int) int {
	if last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day(); day > last {
		return last
	}
	return day
}

// String renders the compact form: year month day weekday hour minute second unit,
// with "*" for wildcards.
func (m DateMatch) String() string {
	fs := m.fields()
	tokens := make([]string, 0, len(fs))
	for f := FieldYear; f <= FieldSecond; f++ {
		if fs[f] == nil {
			tokens = append(tokens, "*")
			continue
		}
		tokens = append(tokens, strconv.Itoa(*fs[f]))
	}
	tokens = append(tokens, m.Unit().String())
	return strings.Join(tokens, " ")
}

// ParseDateMatch parses the compact form produced by String. The trailing unit token
// is optional; when present it must agree with the pinned fields.
func ParseDateMatch(s string) (DateMatch, error) {
	tokens := strings.Fields(s)
	if len(tokens) != 7 && len(tokens) != 8 {
		return DateMatch{}, NewError(CodeInvalidDate, "date match needs 7 fields and a unit, got %d tokens", len(tokens))
	}

	var values [FieldSecond + 1]*int
	for i, token := range tokens[:7] {
		if token == "*" {
			continue
		}
		v, err := strconv.Atoi(token)
		if err != nil {
			return DateMatch{}, WrapError(CodeInvalidDate, err, "invalid %s value %q", Field(i+1), token)
		}
		values[i+1] = &v
	}

	m := DateMatch{
		Year:    values[FieldYear],
		Month:   values[FieldMonth],
		Day:     values[FieldDay],
		Weekday: values[FieldWeekday],
		Hour:    values[FieldHour],
		Minute:  values[FieldMinute],
		Second:  values[FieldSecond],
	}
	if err := m.Validate(); err != nil {
		return DateMatch{}, err
	}

	if len(tokens) == 8 {
		unit, err := ParseField(tokens[7])
		if err != nil {
			return DateMatch{}, err
		}
		if unit != m.Unit() {
			return DateMatch{}, NewError(CodeInvalidDate, "date match unit %s does not match pinned fields (%s)", unit, m.Unit())
		}
	}
	return m, nil
}
