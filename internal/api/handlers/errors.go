package handlers

import (
	"errors"
	"net/http"

	"github.com/dhima/notification-scheduler/internal/api/response"
	"github.com/dhima/notification-scheduler/internal/logging"
	"github.com/dhima/notification-scheduler/internal/schedule"
	"github.com/dhima/notification-scheduler/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleServiceError writes the HTTP response for err and reports whether it did.
func handleServiceError(c *gin.Context, logger logging.Logger, err error, operation string) bool {
	if err == nil {
		return false
	}

	var scheduleErr *schedule.ScheduleError
	switch {
	case errors.Is(err, storage.ErrScheduleNotFound):
		response.NotFound(c, "schedule not found")
	case errors.As(err, &scheduleErr):
		writeScheduleError(c, logger, scheduleErr, operation)
	default:
		logger.Error(operation+" failed",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.InternalServerError(c, "internal server error")
	}
	return true
}

func writeScheduleError(c *gin.Context, logger logging.Logger, err *schedule.ScheduleError, operation string) {
	code := string(err.Code)
	switch err.Code {
	case schedule.CodeInvalidDate, schedule.CodeUnknownScheduleKind:
		response.ErrorWithCode(c, http.StatusBadRequest, code, "invalid schedule", err.Error())
	case schedule.CodeScheduledInPast, schedule.CodeTriggerRepeatIntervalTooShort:
		response.UnprocessableEntity(c, code, err.Error())
	case schedule.CodeTriggerConstructionFailed:
		logger.Error(operation+" failed",
			zap.Error(err),
			zap.String("request_id", response.GetRequestID(c)),
		)
		response.ServiceUnavailable(c, code, err.Error())
	default:
		response.ErrorWithCode(c, http.StatusInternalServerError, code, "internal server error", nil)
	}
}
