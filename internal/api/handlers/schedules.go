package handlers

import (
	"context"

	"github.com/dhima/notification-scheduler/internal/api/response"
	"github.com/dhima/notification-scheduler/internal/logging"
	"github.com/dhima/notification-scheduler/internal/models"
	"github.com/dhima/notification-scheduler/internal/schedule"
	"github.com/dhima/notification-scheduler/internal/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScheduleService is the slice of the scheduling engine the schedule endpoints need.
type ScheduleService interface {
	Register(ctx context.Context, in scheduler.RegisterInput) (*models.PendingSchedule, error)
	Cancel(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.PendingSchedule, error)
	ListPending(ctx context.Context) ([]models.PendingSchedule, error)
}

// DeliveryLister reads fire history.
type DeliveryLister interface {
	ListDeliveryLogs(ctx context.Context, q models.ListDeliveriesQuery) ([]models.DeliveryLog, int64, error)
}

// ScheduleHandler handles schedule management requests.
type ScheduleHandler struct {
	logger     logging.Logger
	service    ScheduleService
	deliveries DeliveryLister
}

// NewScheduleHandler creates a new schedule handler.
func NewScheduleHandler(logger logging.Logger, service ScheduleService, deliveries DeliveryLister) *ScheduleHandler {
	return &ScheduleHandler{
		logger:     logger.With(zap.String("handler", "schedule")),
		service:    service,
		deliveries: deliveries,
	}
}

// RegisterSchedule godoc
// @Summary Register a schedule
// @Description Registers a notification schedule. The schedule is one of "at" (a timestamp, optionally repeating), "interval" (a calendar pattern) or "every" (a fixed unit count). Registering an existing id replaces it.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param schedule body models.RegisterScheduleRequest true "Schedule and notification content"
// @Success 201 {object} models.PendingScheduleResponse
// @Failure 400 {object} response.ErrorResponse "Invalid request or schedule"
// @Failure 422 {object} response.ErrorResponse "Schedule in the past or repeat interval too short"
// @Failure 503 {object} response.ErrorResponse "Timer could not be armed"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/schedules [post]
func (h *ScheduleHandler) RegisterSchedule(c *gin.Context) {
	var req models.RegisterScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register schedule request",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	spec, err := schedule.Parse(req.Schedule)
	if handleServiceError(c, h.logger, err, "parse schedule") {
		return
	}

	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}

	result, err := h.service.Register(c.Request.Context(), scheduler.RegisterInput{
		ID:           id,
		Spec:         spec,
		Notification: req.Notification,
	})
	if handleServiceError(c, h.logger, err, "register schedule") {
		return
	}

	h.logger.Info("schedule registered",
		zap.String("schedule_id", result.ID),
		zap.String("kind", string(result.Spec.Kind)),
		zap.Time("next_fire_at", result.NextFireAt),
		zap.String("request_id", response.GetRequestID(c)),
	)

	response.Created(c, result.ToResponse(), "schedule registered successfully")
}

// ListSchedules godoc
// @Summary List pending schedules
// @Description Lists every pending schedule ordered by its next fire time
// @Tags Schedules
// @Produce json
// @Success 200 {object} models.ScheduleListResponse
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/schedules [get]
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	pending, err := h.service.ListPending(c.Request.Context())
	if handleServiceError(c, h.logger, err, "list schedules") {
		return
	}

	result := models.ScheduleListResponse{
		Schedules: make([]models.PendingScheduleResponse, 0, len(pending)),
		Count:     len(pending),
	}
	for _, p := range pending {
		result.Schedules = append(result.Schedules, p.ToResponse())
	}

	response.OK(c, result)
}

// GetSchedule godoc
// @Summary Get schedule details
// @Description Retrieves a pending schedule by id
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} models.PendingScheduleResponse
// @Failure 404 {object} response.ErrorResponse "Schedule not found"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/schedules/{id} [get]
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	result, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if handleServiceError(c, h.logger, err, "get schedule") {
		return
	}

	response.OK(c, result.ToResponse())
}

// CancelSchedule godoc
// @Summary Cancel a schedule
// @Description Disarms and removes a schedule. Cancelling an unknown id succeeds.
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 204 "Schedule cancelled"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/schedules/{id} [delete]
func (h *ScheduleHandler) CancelSchedule(c *gin.Context) {
	if handleServiceError(c, h.logger, h.service.Cancel(c.Request.Context(), c.Param("id")), "cancel schedule") {
		return
	}

	response.NoContent(c)
}

// ListDeliveries godoc
// @Summary List a schedule's deliveries
// @Description Retrieves the fire history of a schedule, newest first. History outlives the schedule.
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Param status query string false "Filter by presentation status" Enums(success, failure)
// @Param page query int false "Page number" default(1) minimum(1)
// @Param limit query int false "Items per page" default(20) minimum(1) maximum(100)
// @Success 200 {object} models.DeliveryListResponse
// @Failure 400 {object} response.ErrorResponse "Invalid query parameters"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/schedules/{id}/deliveries [get]
func (h *ScheduleHandler) ListDeliveries(c *gin.Context) {
	var query models.ListDeliveriesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Warn("invalid list deliveries query",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.BadRequest(c, "invalid query parameters", err.Error())
		return
	}
	query.ScheduleID = c.Param("id")
	query.Normalize()

	logs, total, err := h.deliveries.ListDeliveryLogs(c.Request.Context(), query)
	if handleServiceError(c, h.logger, err, "list deliveries") {
		return
	}
	if logs == nil {
		logs = []models.DeliveryLog{}
	}

	response.OK(c, models.DeliveryListResponse{
		Deliveries: logs,
		Pagination: models.NewPagination(query, total),
	})
}
