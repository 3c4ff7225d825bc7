package models

import (
	"encoding/json"
	"time"

	"github.com/dhima/notification-scheduler/internal/schedule"
)

// PendingSchedule is the durable record of a registered schedule.
type PendingSchedule struct {
	ID           string          `json:"id"`
	Spec         schedule.Spec   `json:"spec"`
	Period       time.Duration   `json:"period,omitempty"` // repeating At only
	NextFireAt   time.Time       `json:"next_fire_at"`
	TimerHandle  string          `json:"timer_handle,omitempty"`
	Precise      bool            `json:"precise"`
	Notification json.RawMessage `json:"notification,omitempty"`
	FireCount    int             `json:"fire_count"`
	LastFiredAt  *time.Time      `json:"last_fired_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Delivery is handed to the presentation surface on every fire.
type Delivery struct {
	ScheduleID   string          `json:"schedule_id"`
	Kind         schedule.Kind   `json:"kind"`
	FireCount    int             `json:"fire_count"`
	ScheduledFor time.Time       `json:"scheduled_for"`
	FiredAt      time.Time       `json:"fired_at"`
	Notification json.RawMessage `json:"notification,omitempty"`
}

// RegisterScheduleRequest represents the request to register a schedule.
type RegisterScheduleRequest struct {
	ID           string          `json:"id,omitempty" example:"daily-standup"`
	Schedule     json.RawMessage `json:"schedule" binding:"required" swaggertype:"object"`
	Notification json.RawMessage `json:"notification,omitempty" swaggertype:"object"`
} // @name RegisterScheduleRequest

// PendingScheduleResponse represents the response for a single schedule.
type PendingScheduleResponse struct {
	ID           string          `json:"id" example:"daily-standup"`
	Kind         schedule.Kind   `json:"kind" example:"interval"`
	Schedule     schedule.Spec   `json:"schedule" swaggertype:"object"`
	Repeating    bool            `json:"repeating" example:"true"`
	NextFireAt   time.Time       `json:"next_fire_at" example:"2025-11-05T09:00:00Z"`
	Precise      bool            `json:"precise" example:"true"`
	Notification json.RawMessage `json:"notification,omitempty" swaggertype:"object"`
	FireCount    int             `json:"fire_count" example:"3"`
	LastFiredAt  *time.Time      `json:"last_fired_at,omitempty" example:"2025-11-04T09:00:00Z"`
	CreatedAt    time.Time       `json:"created_at" example:"2025-11-01T10:00:00Z"`
	UpdatedAt    time.Time       `json:"updated_at" example:"2025-11-04T09:00:00Z"`
} // @name PendingScheduleResponse

// ScheduleListResponse represents the response for listing pending schedules.
type ScheduleListResponse struct {
	Schedules []PendingScheduleResponse `json:"schedules"`
	Count     int                       `json:"count" example:"2"`
} // @name ScheduleListResponse

// NextTriggersRequest asks for upcoming instants of a date pattern.
type NextTriggersRequest struct {
	On       *schedule.DateMatch `json:"on,omitempty" swaggertype:"object"`
	Pattern  string              `json:"pattern,omitempty" example:"* * * * 9 0 0 second"`
	From     *time.Time          `json:"from,omitempty" example:"2025-11-05T10:00:00Z"`
	Timezone string              `json:"timezone,omitempty" example:"Europe/Berlin"`
	Count    int                 `json:"count,omitempty" binding:"omitempty,min=1,max=50" example:"3"`
} // @name NextTriggersRequest

// NextTriggersResponse lists upcoming instants of a date pattern.
type NextTriggersResponse struct {
	Pattern string      `json:"pattern" example:"* * * * 9 0 0 second"`
	Unit    string      `json:"unit" example:"second"`
	Next    []time.Time `json:"next"`
} // @name NextTriggersResponse

// WakeRequest carries an opaque timer payload delivered by an external facility.
type WakeRequest struct {
	Payload json.RawMessage `json:"payload" binding:"required" swaggertype:"object"`
} // @name WakeRequest

// ToResponse converts a stored schedule into its API representation.
func (p PendingSchedule) ToResponse() PendingScheduleResponse {
	return PendingScheduleResponse{
		ID:           p.ID,
		Kind:         p.Spec.Kind,
		Schedule:     p.Spec,
		Repeating:    p.Spec.Repeating(),
		NextFireAt:   p.NextFireAt,
		Precise:      p.Precise,
		Notification: p.Notification,
		FireCount:    p.FireCount,
		LastFiredAt:  p.LastFiredAt,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
