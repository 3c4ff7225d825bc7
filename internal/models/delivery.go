package models

import (
	"time"

	"github.com/dhima/notification-scheduler/internal/schedule"
)

// DeliveryStatus records whether presentation succeeded.
type DeliveryStatus string

const (
	DeliveryStatusSuccess DeliveryStatus = "success"
	DeliveryStatusFailure DeliveryStatus = "failure"
)

// Transition is what happened to the schedule after a fire.
type Transition string

const (
	TransitionRescheduled Transition = "rescheduled"
	TransitionRemoved     Transition = "removed"
)

// DeliveryLog is one row of fire history.
type DeliveryLog struct {
	ID           string         `json:"id" example:"660e8400-e29b-41d4-a716-446655440000"`
	ScheduleID   string         `json:"schedule_id" example:"daily-standup"`
	Kind         schedule.Kind  `json:"kind" example:"interval"`
	FiredAt      time.Time      `json:"fired_at" example:"2025-11-05T09:00:01Z"`
	ScheduledFor time.Time      `json:"scheduled_for" example:"2025-11-05T09:00:00Z"`
	Status       DeliveryStatus `json:"status" example:"success"`
	ErrorMessage *string        `json:"error_message,omitempty" example:"kafka: leader not available"`
	Transition   Transition     `json:"transition" example:"rescheduled"`
	CreatedAt    time.Time      `json:"created_at" example:"2025-11-05T09:00:01Z"`
} // @name DeliveryLog

// ListDeliveriesQuery represents query parameters for a schedule's fire history.
type ListDeliveriesQuery struct {
	ScheduleID string `form:"-"`
	Status     string `form:"status" binding:"omitempty,oneof=success failure" example:"success"`
	Page       int    `form:"page" binding:"omitempty,min=1" example:"1"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=100" example:"20"`
} // @name ListDeliveriesQuery

// DeliveryListResponse represents the response for listing delivery logs.
type DeliveryListResponse struct {
	Deliveries []DeliveryLog `json:"deliveries"`
	Pagination Pagination    `json:"pagination"`
} // @name DeliveryListResponse

// Pagination represents pagination metadata.
type Pagination struct {
	CurrentPage  int   `json:"current_page" example:"1"`
	PageSize     int   `json:"page_size" example:"20"`
	TotalPages   int   `json:"total_pages" example:"5"`
	TotalRecords int64 `json:"total_records" example:"100"`
} // @name Pagination

// Normalize clamps page and limit to the API's bounds.
func (q *ListDeliveriesQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
}

// NewPagination derives page counts for a normalized query.
func NewPagination(q ListDeliveriesQuery, total int64) Pagination {
	pages := int(total) / q.Limit
	if int(total)%q.Limit != 0 {
		pages++
	}
	return Pagination{
		CurrentPage:  q.Page,
		PageSize:     q.Limit,
		TotalPages:   pages,
		TotalRecords: total,
	}
}
