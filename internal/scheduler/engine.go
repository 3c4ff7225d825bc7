package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dhima/notification-scheduler/internal/logging"
	"github.com/dhima/notification-scheduler/internal/models"
	"github.com/dhima/notification-scheduler/internal/schedule"
	"github.com/dhima/notification-scheduler/internal/storage"
	"github.com/dhima/notification-scheduler/pkg/clock"
	"go.uber.org/zap"
)

// MinRepeatInterval is the shortest period accepted for repeating At and Every schedules.
const MinRepeatInterval = 60 * time.Second

// RegisterInput describes a schedule to register. An existing schedule with the same ID is replaced.
type RegisterInput struct {
	ID           string
	Spec         schedule.Spec
	Notification []byte
}

// Stats is a snapshot of engine counters since start.
type Stats struct {
	Registered      int64 `json:"registered"`
	Fired           int64 `json:"fired"`
	Rescheduled     int64 `json:"rescheduled"`
	Removed         int64 `json:"removed"`
	Cancelled       int64 `json:"cancelled"`
	Stale           int64 `json:"stale"`
	PresentFailures int64 `json:"present_failures"`
	ApproximateArms int64 `json:"approximate_arms"`
}

type counters struct {
	registered      atomic.Int64
	fired           atomic.Int64
	rescheduled     atomic.Int64
	removed         atomic.Int64
	cancelled       atomic.Int64
	stale           atomic.Int64
	presentFailures atomic.Int64
	approximateArms atomic.Int64
}

// Engine turns schedules into armed timers and re-arms recurring ones on each fire.
// Operations on the same id are serialized; different ids proceed in parallel.
type Engine struct {
	store     Store
	timers    TimerFacility
	presenter Presenter
	recorder  DeliveryRecorder
	logger    logging.Logger
	clock     clock.Clock
	location  *time.Location

	locks *keyedMutex
	stats counters
}

// NewEngine constructs an engine using the real clock. recorder may be nil.
func NewEngine(store Store, timers TimerFacility, presenter Presenter, recorder DeliveryRecorder, logger logging.Logger) *Engine {
	return NewEngineWithClock(store, timers, presenter, recorder, logger, clock.RealClock{})
}

// NewEngineWithClock allows injecting a custom clock (tests).
func NewEngineWithClock(store Store, timers TimerFacility, presenter Presenter, recorder DeliveryRecorder, logger logging.Logger, clk clock.Clock) *Engine {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Engine{
		store:     store,
		timers:    timers,
		presenter: presenter,
		recorder:  recorder,
		logger:    logger.Named("scheduler"),
		clock:     clk,
		location:  time.UTC,
		locks:     newKeyedMutex(),
	}
}

// WithLocation sets the default calendar for Interval schedules without a timezone.
func (e *Engine) WithLocation(loc *time.Location) *Engine {
	if loc != nil {
		e.location = loc
	}
	return e
}

// Register validates the spec, arms the first fire and persists the schedule.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (*models.PendingSchedule, error) {
	if in.ID == "" {
		return nil, fmt.Errorf("schedule id is required")
	}
	if err := in.Spec.Validate(); err != nil {
		return nil, err
	}
	in.Spec = in.Spec.Normalize()

	unlock := e.locks.Lock(in.ID)
	defer unlock()

	now := e.clock.Now()
	next, period, err := e.firstFire(in.Spec, now)
	if err != nil {
		return nil, err
	}

	existing, err := e.store.Get(ctx, in.ID)
	if err != nil && !errors.Is(err, storage.ErrScheduleNotFound) {
		return nil, fmt.Errorf("failed to load existing schedule: %w", err)
	}

	handle, precise, err := e.arm(ctx, in.ID, in.Spec, next)
	if err != nil {
		return nil, err
	}

	record := &models.PendingSchedule{
		ID:           in.ID,
		Spec:         in.Spec,
		Period:       period,
		NextFireAt:   next,
		TimerHandle:  handle,
		Precise:      precise,
		Notification: in.Notification,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}
	if err := e.store.Put(ctx, record); err != nil {
		e.disarm(ctx, in.ID, handle)
		return nil, fmt.Errorf("failed to persist schedule: %w", err)
	}

	if existing != nil {
		e.disarm(ctx, in.ID, existing.TimerHandle)
	}

	e.stats.registered.Add(1)
	e.logger.Info("schedule registered",
		zap.String("schedule_id", in.ID),
		zap.String("spec", in.Spec.String()),
		zap.Time("next_fire_at", next),
		zap.Bool("precise", precise),
		zap.Bool("replaced", existing != nil))

	return record, nil
}

// OnFire handles a timer wake-up: present the notification, record it and re-arm or remove.
// Wake-ups for unknown ids or superseded armings are ignored.
func (e *Engine) OnFire(ctx context.Context, raw []byte) error {
	payload, err := DecodePayload(raw)
	if err != nil {
		return err
	}

	unlock := e.locks.Lock(payload.ID)
	defer unlock()

	rec, err := e.store.Get(ctx, payload.ID)
	if errors.Is(err, storage.ErrScheduleNotFound) {
		e.logger.Debug("fire for unknown schedule ignored", zap.String("schedule_id", payload.ID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load schedule: %w", err)
	}
	if rec.NextFireAt.UnixMilli() != payload.FireAt {
		e.stats.stale.Add(1)
		e.logger.Debug("stale fire ignored",
			zap.String("schedule_id", rec.ID),
			zap.Time("payload_fire_at", payload.FireTime()),
			zap.Time("next_fire_at", rec.NextFireAt))
		return nil
	}

	now := e.clock.Now()
	e.stats.fired.Add(1)

	delivery := models.Delivery{
		ScheduleID:   rec.ID,
		Kind:         rec.Spec.Kind,
		FireCount:    rec.FireCount + 1,
		ScheduledFor: rec.NextFireAt,
		FiredAt:      now.UTC(),
		Notification: rec.Notification,
	}
	presentErr := e.presenter.Present(ctx, delivery)
	if presentErr != nil {
		e.stats.presentFailures.Add(1)
		e.logger.Warn("failed to present notification",
			zap.String("schedule_id", rec.ID),
			zap.Error(presentErr))
	}

	next, remove, err := e.nextFire(rec, now)
	if err != nil {
		return err
	}

	if remove {
		if err := e.store.Delete(ctx, rec.ID); err != nil {
			return fmt.Errorf("failed to remove fired schedule: %w", err)
		}
		e.stats.removed.Add(1)
		e.record(ctx, delivery, presentErr, models.TransitionRemoved)
		e.logger.Info("schedule fired and removed", zap.String("schedule_id", rec.ID))
		return nil
	}

	handle, precise, armErr := e.arm(ctx, rec.ID, rec.Spec, next)

	firedAt := now.UTC()
	rec.NextFireAt = next
	rec.TimerHandle = handle
	rec.Precise = precise
	rec.FireCount++
	rec.LastFiredAt = &firedAt
	rec.UpdatedAt = firedAt
	if err := e.store.Put(ctx, rec); err != nil {
		e.disarm(ctx, rec.ID, handle)
		return fmt.Errorf("failed to reschedule: %w", err)
	}

	e.stats.rescheduled.Add(1)
	e.record(ctx, delivery, presentErr, models.TransitionRescheduled)

	if armErr != nil {
		// The record keeps the intended fire time so Restore can arm it later.
		e.logger.Error("failed to re-arm schedule",
			zap.String("schedule_id", rec.ID),
			zap.Time("next_fire_at", next),
			zap.Error(armErr))
		return armErr
	}

	e.logger.Info("schedule fired and rescheduled",
		zap.String("schedule_id", rec.ID),
		zap.Time("next_fire_at", next),
		zap.Int("fire_count", rec.FireCount))
	return nil
}

// Cancel disarms and removes a schedule. Unknown ids are not an error.
func (e *Engine) Cancel(ctx context.Context, id string) error {
	unlock := e.locks.Lock(id)
	defer unlock()

	rec, err := e.store.Get(ctx, id)
	if errors.Is(err, storage.ErrScheduleNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load schedule: %w", err)
	}

	e.disarm(ctx, id, rec.TimerHandle)
	if err := e.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}

	e.stats.cancelled.Add(1)
	e.logger.Info("schedule cancelled", zap.String("schedule_id", id))
	return nil
}

// Get returns a stored schedule or storage.ErrScheduleNotFound.
func (e *Engine) Get(ctx context.Context, id string) (*models.PendingSchedule, error) {
	return e.store.Get(ctx, id)
}

// ListPending returns every stored schedule.
func (e *Engine) ListPending(ctx context.Context) ([]models.PendingSchedule, error) {
	schedules, err := e.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

// Restore re-arms every stored schedule at its persisted fire time. It is meant for
// process start when the timer facility does not survive restarts.
func (e *Engine) Restore(ctx context.Context) (int, error) {
	ids, err := e.store.ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list schedules: %w", err)
	}

	restored := 0
	var errs []error
	for _, id := range ids {
		if err := e.restoreOne(ctx, id); err != nil {
			e.logger.Error("failed to restore schedule", zap.String("schedule_id", id), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		restored++
	}

	e.logger.Info("schedules restored", zap.Int("restored", restored), zap.Int("failed", len(errs)))
	return restored, errors.Join(errs...)
}

func (e *Engine) restoreOne(ctx context.Context, id string) error {
	unlock := e.locks.Lock(id)
	defer unlock()

	rec, err := e.store.Get(ctx, id)
	if errors.Is(err, storage.ErrScheduleNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	previous := rec.TimerHandle
	handle, precise, err := e.arm(ctx, rec.ID, rec.Spec, rec.NextFireAt)
	if err != nil {
		return err
	}
	rec.TimerHandle = handle
	rec.Precise = precise
	rec.UpdatedAt = e.clock.Now().UTC()
	if err := e.store.Put(ctx, rec); err != nil {
		e.disarm(ctx, rec.ID, handle)
		return err
	}
	// Handles from a previous process are unknown to the facility and ignored.
	if previous != handle {
		e.disarm(ctx, rec.ID, previous)
	}
	return nil
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Registered:      e.stats.registered.Load(),
		Fired:           e.stats.fired.Load(),
		Rescheduled:     e.stats.rescheduled.Load(),
		Removed:         e.stats.removed.Load(),
		Cancelled:       e.stats.cancelled.Load(),
		Stale:           e.stats.stale.Load(),
		PresentFailures: e.stats.presentFailures.Load(),
		ApproximateArms: e.stats.approximateArms.Load(),
	}
}

// firstFire computes the initial fire time and, for repeating At schedules, the period.
func (e *Engine) firstFire(spec schedule.Spec, now time.Time) (time.Time, time.Duration, error) {
	switch spec.Kind {
	case schedule.KindAt:
		when := spec.At.When
		if !when.After(now) {
			return time.Time{}, 0, schedule.NewError(schedule.CodeScheduledInPast,
				"at %s is not after now (%s)", when.Format(time.RFC3339), now.Format(time.RFC3339))
		}
		var period time.Duration
		if spec.At.Repeating {
			period = when.Sub(now)
			if period < MinRepeatInterval {
				return time.Time{}, 0, schedule.NewError(schedule.CodeTriggerRepeatIntervalTooShort,
					"repeat interval %s is below %s", period.Round(time.Second), MinRepeatInterval)
			}
		}
		return fireInstant(when), period, nil

	case schedule.KindInterval:
		next, err := e.nextIntervalFire(spec.Interval, now)
		if err != nil {
			return time.Time{}, 0, err
		}
		if !next.After(now) {
			return time.Time{}, 0, schedule.NewError(schedule.CodeScheduledInPast,
				"pattern %s has no future match", spec.Interval.Pattern)
		}
		return fireInstant(next), 0, nil

	case schedule.KindEvery:
		next := spec.Every.Next(now)
		if period := next.Sub(now); period < MinRepeatInterval {
			return time.Time{}, 0, schedule.NewError(schedule.CodeTriggerRepeatIntervalTooShort,
				"every %d %s is below %s", spec.Every.Periods(), spec.Every.Unit, MinRepeatInterval)
		}
		return fireInstant(next), 0, nil
	}
	return time.Time{}, 0, schedule.NewError(schedule.CodeUnknownScheduleKind, "unknown schedule kind %q", spec.Kind)
}

// nextFire decides what follows a fire at now: the next instant, or removal.
func (e *Engine) nextFire(rec *models.PendingSchedule, now time.Time) (time.Time, bool, error) {
	switch rec.Spec.Kind {
	case schedule.KindAt:
		if !rec.Spec.At.Repeating {
			return time.Time{}, true, nil
		}
		return fireInstant(now.Add(rec.Period)), false, nil

	case schedule.KindInterval:
		next, err := e.nextIntervalFire(rec.Spec.Interval, now)
		if err != nil {
			return time.Time{}, false, err
		}
		if !next.After(now) {
			// A pinned year that has passed can never match again.
			return time.Time{}, true, nil
		}
		return fireInstant(next), false, nil

	case schedule.KindEvery:
		return fireInstant(rec.Spec.Every.Next(now)), false, nil
	}
	return time.Time{}, false, schedule.NewError(schedule.CodeUnknownScheduleKind, "unknown schedule kind %q", rec.Spec.Kind)
}

func (e *Engine) nextIntervalFire(interval *schedule.IntervalSchedule, now time.Time) (time.Time, error) {
	loc, err := interval.Location(e.location)
	if err != nil {
		return time.Time{}, err
	}
	if interval.Pattern.IsWildcard() {
		// Matches every second.
		return now.Truncate(time.Second).Add(time.Second), nil
	}
	return interval.Pattern.NextTriggerIn(now, loc), nil
}

// arm asks for a precise timer first and falls back to an approximate one.
func (e *Engine) arm(ctx context.Context, id string, spec schedule.Spec, at time.Time) (string, bool, error) {
	payload, err := EncodePayload(newFirePayload(id, spec, at))
	if err != nil {
		return "", false, schedule.WrapError(schedule.CodeTriggerConstructionFailed, err, "failed to build timer payload")
	}

	handle, err := e.timers.Arm(ctx, payload, at, true)
	if err == nil {
		return handle, true, nil
	}
	if !errors.Is(err, ErrPreciseDenied) {
		return "", false, schedule.WrapError(schedule.CodeTriggerConstructionFailed, err, "failed to arm timer")
	}

	handle, err = e.timers.Arm(ctx, payload, at, false)
	if err != nil {
		return "", false, schedule.WrapError(schedule.CodeTriggerConstructionFailed, err, "failed to arm approximate timer")
	}
	e.stats.approximateArms.Add(1)
	e.logger.Debug("precise timer denied, armed approximate", zap.String("schedule_id", id))
	return handle, false, nil
}

func (e *Engine) disarm(ctx context.Context, id, handle string) {
	if handle == "" {
		return
	}
	if err := e.timers.Disarm(ctx, handle); err != nil {
		e.logger.Warn("failed to disarm timer",
			zap.String("schedule_id", id),
			zap.String("timer_handle", handle),
			zap.Error(err))
	}
}

// record writes fire history. Failures are logged only.
func (e *Engine) record(ctx context.Context, d models.Delivery, presentErr error, transition models.Transition) {
	if e.recorder == nil {
		return
	}
	log := &models.DeliveryLog{
		ScheduleID:   d.ScheduleID,
		Kind:         d.Kind,
		FiredAt:      d.FiredAt,
		ScheduledFor: d.ScheduledFor,
		Status:       models.DeliveryStatusSuccess,
		Transition:   transition,
	}
	if presentErr != nil {
		msg := presentErr.Error()
		log.Status = models.DeliveryStatusFailure
		log.ErrorMessage = &msg
	}
	if err := e.recorder.CreateDeliveryLog(ctx, log); err != nil {
		e.logger.Warn("failed to record delivery",
			zap.String("schedule_id", d.ScheduleID),
			zap.Error(err))
	}
}

// fireInstant drops sub-millisecond precision so persisted and armed times compare equal.
func fireInstant(t time.Time) time.Time {
	return t.Truncate(time.Millisecond)
}
