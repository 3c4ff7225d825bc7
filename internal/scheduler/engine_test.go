package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dhima/notification-scheduler/internal/logging"
	"github.com/dhima/notification-scheduler/internal/models"
	"github.com/dhima/notification-scheduler/internal/schedule"
	"github.com/dhima/notification-scheduler/internal/testutil/fakes"
	"github.com/dhima/notification-scheduler/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 2, 3, 0, 0, 0, time.UTC)

type harness struct {
	store     *fakes.FakeScheduleStore
	timers    *fakes.FakeTimer
	presenter *fakes.FakePresenter
	recorder  *fakes.FakeDeliveryRecorder
	clock     *clock.ManualClock
	engine    *Engine
}

func newHarness() *harness {
	h := &harness{
		store:     fakes.NewFakeScheduleStore(),
		timers:    fakes.NewFakeTimer(),
		presenter: &fakes.FakePresenter{},
		recorder:  &fakes.FakeDeliveryRecorder{},
		clock:     clock.NewManual(t0),
	}
	h.engine = NewEngineWithClock(h.store, h.timers, h.presenter, h.recorder, logging.NewNoOpLogger(), h.clock)
	return h
}

// fire delivers the payload currently armed for id.
func (h *harness) fire(t *testing.T, id string) {
	t.Helper()
	rec, err := h.store.Get(context.Background(), id)
	require.NoError(t, err)
	payload, ok := h.timers.Fire(rec.TimerHandle)
	require.True(t, ok, "no timer armed for %s", id)
	require.NoError(t, h.engine.OnFire(context.Background(), payload))
}

func TestRegisterThenCancel_LeavesNothing(t *testing.T) {
	// Arrange
	h := newHarness()
	ctx := context.Background()

	// Act
	_, err := h.engine.Register(ctx, RegisterInput{ID: "a", Spec: schedule.NewEvery(schedule.UnitHour, 1)})
	require.NoError(t, err)
	require.NoError(t, h.engine.Cancel(ctx, "a"))

	// Assert
	pending, err := h.engine.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, 0, h.timers.Count())
	assert.Equal(t, 0, h.engine.locks.size())
}

func TestCancel_UnknownIDIsNotAnError(t *testing.T) {
	h := newHarness()

	assert.NoError(t, h.engine.Cancel(context.Background(), "missing"))
}

func TestRegister_AtFiresOnceAndIsRemoved(t *testing.T) {
	// Arrange
	h := newHarness()
	ctx := context.Background()
	when := t0.Add(2 * time.Hour)

	rec, err := h.engine.Register(ctx, RegisterInput{ID: "once", Spec: schedule.NewAt(when, false), Notification: []byte(`{"title":"hi"}`)})
	require.NoError(t, err)
	assert.True(t, when.Equal(rec.NextFireAt))
	assert.True(t, rec.Precise)

	// Act
	h.clock.Set(when)
	h.fire(t, "once")

	// Assert
	require.Equal(t, 1, h.presenter.Count())
	assert.Equal(t, "once", h.presenter.Deliveries[0].ScheduleID)
	assert.JSONEq(t, `{"title":"hi"}`, string(h.presenter.Deliveries[0].Notification))
	assert.False(t, h.store.Has("once"))
	assert.Equal(t, 0, h.timers.Count(), "a fired one-shot must not re-arm")

	require.Len(t, h.recorder.Logs, 1)
	assert.Equal(t, models.TransitionRemoved, h.recorder.Logs[0].Transition)
	assert.Equal(t, models.DeliveryStatusSuccess, h.recorder.Logs[0].Status)
	assert.Equal(t, int64(1), h.engine.Stats().Removed)
}

func TestRegister_EveryMinuteRearmsFromFireTime(t *testing.T) {
	// Arrange
	h := newHarness()
	ctx := context.Background()

	rec, err := h.engine.Register(ctx, RegisterInput{ID: "m", Spec: schedule.NewEvery(schedule.UnitMinute, 1)})
	require.NoError(t, err)
	assert.True(t, t0.Add(time.Minute).Equal(rec.NextFireAt))

	// Act
	h.clock.Set(t0.Add(time.Minute))
	h.fire(t, "m")

	// Assert
	got, err := h.store.Get(ctx, "m")
	require.NoError(t, err)
	assert.True(t, t0.Add(2*time.Minute).Equal(got.NextFireAt), "got %s", got.NextFireAt)
	assert.Equal(t, 1, got.FireCount)
	require.NotNil(t, got.LastFiredAt)
	assert.True(t, t0.Add(time.Minute).Equal(*got.LastFiredAt))

	armed, ok := h.timers.Get(got.TimerHandle)
	require.True(t, ok)
	assert.True(t, t0.Add(2*time.Minute).Equal(armed.At))
	assert.Equal(t, 1, h.timers.Count())
}

func TestRegister_RepeatingAtUsesRegistrationPeriod(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	rec, err := h.engine.Register(ctx, RegisterInput{ID: "r", Spec: schedule.NewAt(t0.Add(2*time.Minute), true)})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, rec.Period)

	h.clock.Set(t0.Add(2*time.Minute + 3*time.Second))
	h.fire(t, "r")

	got, err := h.store.Get(ctx, "r")
	require.NoError(t, err)
	assert.True(t, t0.Add(4*time.Minute+3*time.Second).Equal(got.NextFireAt), "got %s", got.NextFireAt)
}

func TestRegister_RejectsPastAt(t *testing.T) {
	h := newHarness()

	for _, when := range []time.Time{t0, t0.Add(-time.Second)} {
		_, err := h.engine.Register(context.Background(), RegisterInput{ID: "p", Spec: schedule.NewAt(when, false)})

		assert.True(t, errors.Is(err, schedule.ErrScheduledInPast), "got %v", err)
	}
	assert.False(t, h.store.Has("p"))
	assert.Equal(t, 0, h.timers.Count())
}

func TestRegister_RejectsShortRepeat(t *testing.T) {
	tests := []struct {
		name string
		spec schedule.Spec
	}{
		{"every 30 seconds", schedule.NewEvery(schedule.UnitSecond, 30)},
		{"every 59 seconds", schedule.NewEvery(schedule.UnitSecond, 59)},
		{"repeating at in 30 seconds", schedule.NewAt(t0.Add(30*time.Second), true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()

			_, err := h.engine.Register(context.Background(), RegisterInput{ID: "s", Spec: tt.spec})

			assert.True(t, errors.Is(err, schedule.ErrTriggerRepeatIntervalTooShort), "got %v", err)
			assert.Equal(t, 0, h.timers.Count())
		})
	}
}

func TestRegister_AcceptsExactlyOneMinute(t *testing.T) {
	h := newHarness()

	_, err := h.engine.Register(context.Background(), RegisterInput{ID: "s", Spec: schedule.NewEvery(schedule.UnitSecond, 60)})

	assert.NoError(t, err)
}

func TestRegister_NonRepeatingAtSoonIsAllowed(t *testing.T) {
	h := newHarness()

	_, err := h.engine.Register(context.Background(), RegisterInput{ID: "s", Spec: schedule.NewAt(t0.Add(5*time.Second), false)})

	assert.NoError(t, err)
}

func TestRegister_PreciseDeniedFallsBackToApproximate(t *testing.T) {
	// Arrange
	h := newHarness()
	h.timers.DenyPrecise = fmt.Errorf("facility says no: %w", ErrPreciseDenied)

	// Act
	rec, err := h.engine.Register(context.Background(), RegisterInput{ID: "a", Spec: schedule.NewEvery(schedule.UnitDay, 1)})

	// Assert
	require.NoError(t, err)
	assert.False(t, rec.Precise)
	armed, ok := h.timers.Get(rec.TimerHandle)
	require.True(t, ok)
	assert.False(t, armed.Precise)
	assert.Equal(t, int64(1), h.engine.Stats().ApproximateArms)
}

func TestRegister_FacilityRefusalIsConstructionFailure(t *testing.T) {
	h := newHarness()
	h.timers.FailArm = true

	_, err := h.engine.Register(context.Background(), RegisterInput{ID: "a", Spec: schedule.NewEvery(schedule.UnitDay, 1)})

	assert.True(t, errors.Is(err, schedule.ErrTriggerConstructionFailed), "got %v", err)
	assert.False(t, h.store.Has("a"))
}

func TestRegister_StoreFailureDisarmsNewTimer(t *testing.T) {
	h := newHarness()
	h.store.FailPut = true

	_, err := h.engine.Register(context.Background(), RegisterInput{ID: "a", Spec: schedule.NewEvery(schedule.UnitDay, 1)})

	assert.Error(t, err)
	assert.Equal(t, 0, h.timers.Count())
}

func TestRegister_ReplacesExistingID(t *testing.T) {
	// Arrange
	h := newHarness()
	ctx := context.Background()
	first, err := h.engine.Register(ctx, RegisterInput{ID: "a", Spec: schedule.NewEvery(schedule.UnitMinute, 1)})
	require.NoError(t, err)
	stalePayload := h.timers.Armed[first.TimerHandle].Payload

	// Act
	second, err := h.engine.Register(ctx, RegisterInput{ID: "a", Spec: schedule.NewEvery(schedule.UnitHour, 1)})
	require.NoError(t, err)

	// Assert
	assert.NotEqual(t, first.TimerHandle, second.TimerHandle)
	assert.Contains(t, h.timers.Disarmed, first.TimerHandle)
	assert.Equal(t, 1, h.timers.Count())

	// The superseded timer firing anyway is ignored.
	h.clock.Set(t0.Add(time.Minute))
	require.NoError(t, h.engine.OnFire(ctx, stalePayload))
	assert.Equal(t, 0, h.presenter.Count())
	assert.Equal(t, int64(1), h.engine.Stats().Stale)

	got, err := h.store.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, t0.Add(time.Hour).Equal(got.NextFireAt))
}

func TestOnFire_PresenterFailureStillReschedules(t *testing.T) {
	// Arrange
	h := newHarness()
	ctx := context.Background()
	_, err := h.engine.Register(ctx, RegisterInput{ID: "m", Spec: schedule.NewEvery(schedule.UnitMinute, 5)})
	require.NoError(t, err)
	h.presenter.FailNext = true

	// Act
	h.clock.Set(t0.Add(5 * time.Minute))
	h.fire(t, "m")

	// Assert
	got, err := h.store.Get(ctx, "m")
	require.NoError(t, err)
	assert.True(t, t0.Add(10*time.Minute).Equal(got.NextFireAt))
	assert.Equal(t, 1, h.timers.Count())

	require.Len(t, h.recorder.Logs, 1)
	assert.Equal(t, models.DeliveryStatusFailure, h.recorder.Logs[0].Status)
	require.NotNil(t, h.recorder.Logs[0].ErrorMessage)
	assert.Equal(t, models.TransitionRescheduled, h.recorder.Logs[0].Transition)
	assert.Equal(t, int64(1), h.engine.Stats().PresentFailures)
}

func TestOnFire_UnknownScheduleIsIgnored(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	rec, err := h.engine.Register(ctx, RegisterInput{ID: "gone", Spec: schedule.NewEvery(schedule.UnitHour, 1)})
	require.NoError(t, err)
	payload := h.timers.Armed[rec.TimerHandle].Payload
	require.NoError(t, h.engine.Cancel(ctx, "gone"))

	err = h.engine.OnFire(ctx, payload)

	assert.NoError(t, err)
	assert.Equal(t, 0, h.presenter.Count())
	assert.False(t, h.store.Has("gone"))
}

func TestOnFire_InvalidPayload(t *testing.T) {
	h := newHarness()

	assert.Error(t, h.engine.OnFire(context.Background(), []byte(`not json`)))
	assert.Error(t, h.engine.OnFire(context.Background(), []byte(`{"kind":"at"}`)))
}

func TestOnFire_StoreFailureAbortsBookkeeping(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	rec, err := h.engine.Register(ctx, RegisterInput{ID: "m", Spec: schedule.NewEvery(schedule.UnitMinute, 1)})
	require.NoError(t, err)
	payload, _ := h.timers.Fire(rec.TimerHandle)
	h.store.FailGet = true

	err = h.engine.OnFire(ctx, payload)

	assert.Error(t, err)
	assert.Equal(t, 0, h.presenter.Count())
	got, err := h.store.Get(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, 0, got.FireCount)
}

func TestOnFire_RearmFailureKeepsIntendedFireTime(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	_, err := h.engine.Register(ctx, RegisterInput{ID: "m", Spec: schedule.NewEvery(schedule.UnitMinute, 1)})
	require.NoError(t, err)
	rec, _ := h.store.Get(ctx, "m")
	payload, _ := h.timers.Fire(rec.TimerHandle)

	h.clock.Set(t0.Add(time.Minute))
	h.timers.FailArm = true
	err = h.engine.OnFire(ctx, payload)

	assert.True(t, errors.Is(err, schedule.ErrTriggerConstructionFailed), "got %v", err)
	got, getErr := h.store.Get(ctx, "m")
	require.NoError(t, getErr)
	assert.True(t, t0.Add(2*time.Minute).Equal(got.NextFireAt))
	assert.Empty(t, got.TimerHandle)

	// Restore picks it up once the facility recovers.
	h.timers.FailArm = false
	restored, err := h.engine.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, restored)
	assert.Equal(t, 1, h.timers.Count())
}

func TestOnFire_IntervalRearmsAtNextMatch(t *testing.T) {
	// Arrange
	h := newHarness()
	ctx := context.Background()
	h.clock.Set(time.Date(2024, 3, 1, 9, 0, 30, 0, time.UTC))
	spec := schedule.NewInterval(schedule.DateMatch{Second: schedule.Int(0)}, "")

	rec, err := h.engine.Register(ctx, RegisterInput{ID: "tick", Spec: spec})
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 3, 1, 9, 1, 0, 0, time.UTC).Equal(rec.NextFireAt))

	var decoded FirePayload
	require.NoError(t, json.Unmarshal(h.timers.Armed[rec.TimerHandle].Payload, &decoded))
	assert.Equal(t, "* * * * * * 0 second", decoded.Pattern)
	assert.Equal(t, schedule.KindInterval, decoded.Kind)

	// Act
	h.clock.Set(time.Date(2024, 3, 1, 9, 1, 0, 0, time.UTC))
	h.fire(t, "tick")

	// Assert
	got, err := h.store.Get(ctx, "tick")
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 3, 1, 9, 2, 0, 0, time.UTC).Equal(got.NextFireAt), "got %s", got.NextFireAt)
}

func TestRegister_IntervalInTimezone(t *testing.T) {
	h := newHarness()
	h.clock.Set(time.Date(2024, 3, 1, 7, 30, 0, 0, time.UTC))
	spec := schedule.NewInterval(schedule.DateMatch{Hour: schedule.Int(9), Minute: schedule.Int(0), Second: schedule.Int(0)}, "Europe/Berlin")

	rec, err := h.engine.Register(context.Background(), RegisterInput{ID: "berlin", Spec: spec})

	require.NoError(t, err)
	assert.True(t, time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC).Equal(rec.NextFireAt), "got %s", rec.NextFireAt)
}

func TestRegister_IntervalWithPassedYear(t *testing.T) {
	h := newHarness()
	spec := schedule.NewInterval(schedule.DateMatch{Year: schedule.Int(2020), Month: schedule.Int(1)}, "")

	_, err := h.engine.Register(context.Background(), RegisterInput{ID: "old", Spec: spec})

	assert.True(t, errors.Is(err, schedule.ErrScheduledInPast), "got %v", err)
}

func TestOnFire_IntervalRemovedWhenPinnedYearHasPassed(t *testing.T) {
	// Arrange
	h := newHarness()
	ctx := context.Background()
	h.clock.Set(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC))
	spec := schedule.NewInterval(schedule.DateMatch{Year: schedule.Int(2024), Minute: schedule.Int(30), Second: schedule.Int(0)}, "")

	rec, err := h.engine.Register(ctx, RegisterInput{ID: "nye", Spec: spec})
	require.NoError(t, err)
	require.True(t, time.Date(2024, 12, 31, 23, 30, 0, 0, time.UTC).Equal(rec.NextFireAt))

	// Act: the wake-up is delivered long after the pinned year ended.
	h.clock.Set(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	h.fire(t, "nye")

	// Assert
	assert.Equal(t, 1, h.presenter.Count())
	assert.False(t, h.store.Has("nye"))
	assert.Equal(t, 0, h.timers.Count())
	require.Len(t, h.recorder.Logs, 1)
	assert.Equal(t, models.TransitionRemoved, h.recorder.Logs[0].Transition)
}

func TestRegister_WildcardIntervalFiresNextSecond(t *testing.T) {
	h := newHarness()
	h.clock.Set(t0.Add(250 * time.Millisecond))

	rec, err := h.engine.Register(context.Background(), RegisterInput{ID: "w", Spec: schedule.NewInterval(schedule.DateMatch{}, "")})

	require.NoError(t, err)
	assert.True(t, t0.Add(time.Second).Equal(rec.NextFireAt))
}

func TestRegister_RequiresID(t *testing.T) {
	h := newHarness()

	_, err := h.engine.Register(context.Background(), RegisterInput{Spec: schedule.NewEvery(schedule.UnitDay, 1)})

	assert.Error(t, err)
}

func TestRegister_RejectsMalformedSpec(t *testing.T) {
	h := newHarness()

	_, err := h.engine.Register(context.Background(), RegisterInput{ID: "x", Spec: schedule.Spec{Kind: "cron"}})

	assert.True(t, errors.Is(err, schedule.ErrUnknownScheduleKind), "got %v", err)
}

func TestRestore_RearmsPersistedFireTimes(t *testing.T) {
	// Arrange
	h := newHarness()
	ctx := context.Background()
	_, err := h.engine.Register(ctx, RegisterInput{ID: "a", Spec: schedule.NewEvery(schedule.UnitHour, 1)})
	require.NoError(t, err)
	_, err = h.engine.Register(ctx, RegisterInput{ID: "b", Spec: schedule.NewAt(t0.Add(time.Hour), false)})
	require.NoError(t, err)

	// A fresh process with an empty facility and the same store.
	timers := fakes.NewFakeTimer()
	restarted := NewEngineWithClock(h.store, timers, h.presenter, h.recorder, logging.NewNoOpLogger(), h.clock)

	// Act
	restored, err := restarted.Restore(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, restored)
	assert.Equal(t, 2, timers.Count())

	rec, err := h.store.Get(ctx, "b")
	require.NoError(t, err)
	payload, ok := timers.Fire(rec.TimerHandle)
	require.True(t, ok)
	h.clock.Set(t0.Add(time.Hour))
	require.NoError(t, restarted.OnFire(ctx, payload))
	assert.False(t, h.store.Has("b"))
	assert.Equal(t, 1, h.presenter.Count())
}

func TestConcurrentRegisterAndCancel_SameID(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = h.engine.Register(ctx, RegisterInput{ID: "race", Spec: schedule.NewEvery(schedule.UnitMinute, i+1)})
				return
			}
			_ = h.engine.Cancel(ctx, "race")
		}(i)
	}
	wg.Wait()

	rec, err := h.store.Get(ctx, "race")
	if err != nil {
		assert.Equal(t, 0, h.timers.Count())
	} else {
		assert.Equal(t, 1, h.timers.Count())
		_, ok := h.timers.Get(rec.TimerHandle)
		assert.True(t, ok, "stored handle must be the armed timer")
	}
	assert.Equal(t, 0, h.engine.locks.size())
}

func TestConcurrentRegister_DistinctIDs(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.engine.Register(ctx, RegisterInput{ID: fmt.Sprintf("id-%d", i), Spec: schedule.NewEvery(schedule.UnitHour, 1)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	ids, err := h.store.ListIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 20)
	assert.Equal(t, 20, h.timers.Count())
	assert.Equal(t, int64(20), h.engine.Stats().Registered)
}

func TestRestore_InProcessReplacesArmedTimer(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	_, err := h.engine.Register(ctx, RegisterInput{ID: "a", Spec: schedule.NewEvery(schedule.UnitHour, 1)})
	require.NoError(t, err)

	restored, err := h.engine.Restore(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, restored)
	assert.Equal(t, 1, h.timers.Count())
	assert.Equal(t, []string{"timer-1"}, h.timers.Disarmed)
}

func TestRegister_EveryCountBelowOneBehavesAsOne(t *testing.T) {
	for _, count := range []int{0, -3} {
		t.Run(fmt.Sprintf("count %d", count), func(t *testing.T) {
			// Arrange
			h := newHarness()
			spec := schedule.Spec{Kind: schedule.KindEvery, Every: &schedule.EverySchedule{Unit: schedule.UnitHour, Count: count}}

			// Act
			rec, err := h.engine.Register(context.Background(), RegisterInput{ID: "c", Spec: spec})

			// Assert
			require.NoError(t, err)
			assert.Equal(t, t0.Add(time.Hour), rec.NextFireAt)
			assert.Equal(t, 1, rec.Spec.Every.Count)

			h.clock.Set(rec.NextFireAt)
			h.fire(t, "c")
			stored, err := h.store.Get(context.Background(), "c")
			require.NoError(t, err)
			assert.Equal(t, t0.Add(2*time.Hour), stored.NextFireAt)

			encoded, err := json.Marshal(stored.Spec)
			require.NoError(t, err)
			assert.JSONEq(t, `{"kind":"every","every":"hour","count":1}`, string(encoded))
		})
	}
}

func TestRegister_EveryLargeCountIsFarFuture(t *testing.T) {
	h := newHarness()

	rec, err := h.engine.Register(context.Background(), RegisterInput{ID: "far", Spec: schedule.NewEvery(schedule.UnitMinute, 200_000_000)})

	require.NoError(t, err)
	want := time.Unix(t0.Unix()+200_000_000*60, 0)
	assert.True(t, want.Equal(rec.NextFireAt), "got %s", rec.NextFireAt)
	assert.Equal(t, 2405, rec.NextFireAt.Year())
}

func TestRegister_EveryCountAboveLimitIsInvalid(t *testing.T) {
	h := newHarness()
	spec := schedule.Spec{Kind: schedule.KindEvery, Every: &schedule.EverySchedule{Unit: schedule.UnitHour, Count: schedule.MaxEveryCount + 1}}

	_, err := h.engine.Register(context.Background(), RegisterInput{ID: "big", Spec: spec})

	assert.True(t, errors.Is(err, schedule.ErrInvalidDate), "got %v", err)
	assert.Equal(t, 0, h.timers.Count())
}

func TestOnFire_AfterCancelIsIgnored(t *testing.T) {
	// Arrange
	h := newHarness()
	ctx := context.Background()
	rec, err := h.engine.Register(ctx, RegisterInput{ID: "a", Spec: schedule.NewEvery(schedule.UnitHour, 1)})
	require.NoError(t, err)
	payload, ok := h.timers.Fire(rec.TimerHandle)
	require.True(t, ok)
	require.NoError(t, h.engine.Cancel(ctx, "a"))

	// Act
	h.clock.Set(rec.NextFireAt)
	err = h.engine.OnFire(ctx, payload)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 0, h.presenter.Count())
	assert.Equal(t, 0, h.timers.Count())
	assert.False(t, h.store.Has("a"))
	assert.Equal(t, int64(0), h.engine.Stats().Fired)
}

func TestConcurrentFireAndCancel_SameID(t *testing.T) {
	for i := 0; i < 20; i++ {
		h := newHarness()
		ctx := context.Background()
		rec, err := h.engine.Register(ctx, RegisterInput{ID: "race", Spec: schedule.NewEvery(schedule.UnitHour, 1)})
		require.NoError(t, err)
		payload, ok := h.timers.Fire(rec.TimerHandle)
		require.True(t, ok)
		h.clock.Set(rec.NextFireAt)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.engine.OnFire(ctx, payload))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, h.engine.Cancel(ctx, "race"))
		}()
		wg.Wait()

		assert.False(t, h.store.Has("race"))
		assert.Equal(t, 0, h.timers.Count())
		assert.LessOrEqual(t, h.presenter.Count(), 1)
		assert.Equal(t, 0, h.engine.locks.size())
	}
}
