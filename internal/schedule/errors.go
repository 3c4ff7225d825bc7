package schedule

import "fmt"

// Code classifies schedule failures surfaced to callers.
type Code string

const (
	CodeInvalidDate                   Code = "invalid_date"
	CodeScheduledInPast               Code = "scheduled_in_past"
	CodeUnknownScheduleKind           Code = "unknown_schedule_kind"
	CodeTriggerConstructionFailed     Code = "trigger_construction_failed"
	CodeTriggerRepeatIntervalTooShort Code = "trigger_repeat_interval_too_short"
)

// Sentinels for errors.Is; any ScheduleError with the same Code matches.
var (
	ErrInvalidDate                   = &ScheduleError{Code: CodeInvalidDate, msg: "invalid date"}
	ErrScheduledInPast               = &ScheduleError{Code: CodeScheduledInPast, msg: "scheduled in the past"}
	ErrUnknownScheduleKind           = &ScheduleError{Code: CodeUnknownScheduleKind, msg: "unknown schedule kind"}
	ErrTriggerConstructionFailed     = &ScheduleError{Code: CodeTriggerConstructionFailed, msg: "trigger construction failed"}
	ErrTriggerRepeatIntervalTooShort = &ScheduleError{Code: CodeTriggerRepeatIntervalTooShort, msg: "repeat interval too short"}
)

// ScheduleError represents a typed, caller-facing schedule failure.
type ScheduleError struct {
	Code Code
	msg  string
	err  error
}

// NewError creates a ScheduleError with a formatted message.
func NewError(code Code, format string, args ...interface{}) error {
	return &ScheduleError{Code: code, msg: fmt.Sprintf(format, args...)}
}

// WrapError creates a ScheduleError that keeps cause reachable through errors.Unwrap.
func WrapError(code Code, cause error, format string, args ...interface{}) error {
	return &ScheduleError{Code: code, msg: fmt.Sprintf(format, args...), err: cause}
}

func (e *ScheduleError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *ScheduleError) Unwrap() error { return e.err }

func (e *ScheduleError) Is(target error) bool {
	t, ok := target.(*ScheduleError)
	return ok && t.Code == e.Code
}
