package schedule

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind discriminates the schedule variants.
type Kind string

const (
	KindAt       Kind = "at"
	KindInterval Kind = "interval"
	KindEvery    Kind = "every"
)

// AtSchedule fires once at When; when Repeating, it fires again every
// (When - registration time).
type AtSchedule struct {
	When      time.Time
	Repeating bool
}

// IntervalSchedule fires whenever the wall clock matches Pattern in Timezone
// (empty means the engine's default location).
type IntervalSchedule struct {
	Pattern  DateMatch
	Timezone string
}

// Location resolves Timezone, falling back to def when unset.
func (i IntervalSchedule) Location(def *time.Location) (*time.Location, error) {
	if i.Timezone == "" {
		if def == nil {
			return time.UTC, nil
		}
		return def, nil
	}
	loc, err := time.LoadLocation(i.Timezone)
	if err != nil {
		return nil, WrapError(CodeInvalidDate, err, "invalid timezone %s", i.Timezone)
	}
	return loc, nil
}

// MaxEveryCount is the largest unit count an Every schedule accepts.
const MaxEveryCount = 1<<32 - 1

// EverySchedule fires every Count units, starting one period after registration.
// Counts below 1 behave as 1.
type EverySchedule struct {
	Unit  IntervalUnit
	Count int
}

// Periods is Count clamped to at least 1.
func (e EverySchedule) Periods() int {
	if e.Count < 1 {
		return 1
	}
	return e.Count
}

// Next is the instant one period after t.
func (e EverySchedule) Next(t time.Time) time.Time {
	return e.Unit.Add(t, e.Periods())
}

// Spec is an immutable schedule description. Exactly one variant pointer is set and it
// matches Kind.
type Spec struct {
	Kind     Kind
	At       *AtSchedule
	Interval *IntervalSchedule
	Every    *EverySchedule
}

// NewAt builds an At schedule.
func NewAt(when time.Time, repeating bool) Spec {
	return Spec{Kind: KindAt, At: &AtSchedule{When: when, Repeating: repeating}}
}

// NewInterval builds an Interval schedule.
func NewInterval(pattern DateMatch, timezone string) Spec {
	return Spec{Kind: KindInterval, Interval: &IntervalSchedule{Pattern: pattern, Timezone: timezone}}
}

// NewEvery builds an Every schedule. Counts below 1 are clamped to 1.
func NewEvery(unit IntervalUnit, count int) Spec {
	if count < 1 {
		count = 1
	}
	return Spec{Kind: KindEvery, Every: &EverySchedule{Unit: unit, Count: count}}
}

// Normalize returns the spec with an Every count below 1 raised to 1.
func (s Spec) Normalize() Spec {
	if s.Every != nil && s.Every.Count < 1 {
		every := *s.Every
		every.Count = every.Periods()
		s.Every = &every
	}
	return s
}

// Repeating reports whether the schedule survives its first fire.
func (s Spec) Repeating() bool {
	switch s.Kind {
	case KindAt:
		return s.At != nil && s.At.Repeating
	case KindInterval, KindEvery:
		return true
	}
	return false
}

// Validate checks that the active variant matches Kind and is well formed.
func (s Spec) Validate() error {
	switch s.Kind {
	case KindAt:
		if s.At == nil || s.Interval != nil || s.Every != nil {
			return NewError(CodeUnknownScheduleKind, "at schedule must only carry at fields")
		}
		if s.At.When.IsZero() {
			return NewError(CodeInvalidDate, "at schedule requires a timestamp")
		}
	case KindInterval:
		if s.Interval == nil || s.At != nil || s.Every != nil {
			return NewError(CodeUnknownScheduleKind, "interval schedule must only carry interval fields")
		}
		if err := s.Interval.Pattern.Validate(); err != nil {
			return err
		}
		if _, err := s.Interval.Location(time.UTC); err != nil {
			return err
		}
	case KindEvery:
		if s.Every == nil || s.At != nil || s.Interval != nil {
			return NewError(CodeUnknownScheduleKind, "every schedule must only carry every fields")
		}
		if _, err := ParseIntervalUnit(string(s.Every.Unit)); err != nil {
			return err
		}
		if int64(s.Every.Count) > MaxEveryCount {
			return NewError(CodeInvalidDate, "every count %d exceeds %d", s.Every.Count, int64(MaxEveryCount))
		}
	default:
		return NewError(CodeUnknownScheduleKind, "unknown schedule kind %q", s.Kind)
	}
	return nil
}

func (s Spec) String() string {
	switch s.Kind {
	case KindAt:
		if s.At == nil {
			break
		}
		return fmt.Sprintf("at %s repeating=%t", s.At.When.Format(time.RFC3339), s.At.Repeating)
	case KindInterval:
		if s.Interval == nil {
			break
		}
		if s.Interval.Timezone != "" {
			return fmt.Sprintf("interval [%s] %s", s.Interval.Pattern, s.Interval.Timezone)
		}
		return fmt.Sprintf("interval [%s]", s.Interval.Pattern)
	case KindEvery:
		if s.Every == nil {
			break
		}
		return fmt.Sprintf("every %d %s", s.Every.Periods(), s.Every.Unit)
	}
	return string(s.Kind)
}

// document is the JSON wire form of a Spec, discriminated by kind.
type document struct {
	Kind      Kind       `json:"kind"`
	At        string     `json:"at,omitempty"`
	Repeating bool       `json:"repeating,omitempty"`
	On        *DateMatch `json:"on,omitempty"`
	Pattern   string     `json:"pattern,omitempty"`
	Timezone  string     `json:"timezone,omitempty"`
	Every     string     `json:"every,omitempty"`
	Count     int        `json:"count,omitempty"`
}

// MarshalJSON encodes the wire form. Interval patterns use the compact string.
func (s Spec) MarshalJSON() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	doc := document{Kind: s.Kind}
	switch s.Kind {
	case KindAt:
		doc.At = s.At.When.Format(time.RFC3339Nano)
		doc.Repeating = s.At.Repeating
	case KindInterval:
		doc.Pattern = s.Interval.Pattern.String()
		doc.Timezone = s.Interval.Timezone
	case KindEvery:
		doc.Every = string(s.Every.Unit)
		doc.Count = s.Every.Periods()
	}
	return json.Marshal(doc)
}

// UnmarshalJSON decodes and validates the wire form.
func (s *Spec) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
