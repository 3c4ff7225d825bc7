package handlers

import (
	"context"

	"github.com/dhima/notification-scheduler/internal/api/response"
	"github.com/dhima/notification-scheduler/internal/logging"
	"github.com/dhima/notification-scheduler/internal/models"
	"github.com/dhima/notification-scheduler/internal/scheduler"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FireReceiver accepts timer wake-ups.
type FireReceiver interface {
	OnFire(ctx context.Context, payload []byte) error
}

// WakeHandler lets an external timer facility deliver wake-ups over HTTP.
type WakeHandler struct {
	logger   logging.Logger
	receiver FireReceiver
}

// NewWakeHandler creates a new wake handler.
func NewWakeHandler(logger logging.Logger, receiver FireReceiver) *WakeHandler {
	return &WakeHandler{
		logger:   logger.With(zap.String("handler", "wake")),
		receiver: receiver,
	}
}

// Wake godoc
// @Summary Deliver a timer wake-up
// @Description Hands an opaque payload, previously armed by the scheduler, back to the engine. Stale or unknown payloads are accepted and ignored.
// @Tags Timers
// @Accept json
// @Produce json
// @Param wake body models.WakeRequest true "Timer payload"
// @Success 202 {object} response.SuccessResponse "Wake-up processed"
// @Failure 400 {object} response.ErrorResponse "Malformed payload"
// @Failure 503 {object} response.ErrorResponse "Fire delivered but re-arm failed"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/wake [post]
func (h *WakeHandler) Wake(c *gin.Context) {
	var req models.WakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	payload, err := scheduler.DecodePayload(req.Payload)
	if err != nil {
		h.logger.Warn("rejected wake-up payload",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.BadRequest(c, "invalid timer payload", err.Error())
		return
	}

	if handleServiceError(c, h.logger, h.receiver.OnFire(c.Request.Context(), req.Payload), "wake") {
		return
	}

	h.logger.Debug("wake-up processed", zap.String("schedule_id", payload.ID))
	response.Accepted(c, "wake-up processed")
}
