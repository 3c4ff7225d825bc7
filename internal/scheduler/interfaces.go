package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/dhima/notification-scheduler/internal/models"
)

// ErrPreciseDenied is returned by a TimerFacility that refuses precise wake-ups.
// The engine falls back to approximate arming when it sees it.
var ErrPreciseDenied = errors.New("precise timers are not permitted")

// Store defines the persistence required by the engine. Each call is atomic.
// Get returns storage.ErrScheduleNotFound when the id is absent.
type Store interface {
	Put(ctx context.Context, schedule *models.PendingSchedule) error
	Get(ctx context.Context, id string) (*models.PendingSchedule, error)
	Delete(ctx context.Context, id string) error
	ListIDs(ctx context.Context) ([]string, error)
	List(ctx context.Context) ([]models.PendingSchedule, error)
}

// TimerFacility wakes the process at a wall-clock instant with an opaque payload.
type TimerFacility interface {
	Arm(ctx context.Context, payload []byte, at time.Time, precise bool) (handle string, err error)
	Disarm(ctx context.Context, handle string) error
}

// Presenter shows a notification to the user.
type Presenter interface {
	Present(ctx context.Context, delivery models.Delivery) error
}

// DeliveryRecorder keeps fire history.
type DeliveryRecorder interface {
	CreateDeliveryLog(ctx context.Context, log *models.DeliveryLog) error
}
