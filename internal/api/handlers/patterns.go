package handlers

import (
	"time"

	"github.com/dhima/notification-scheduler/internal/api/response"
	"github.com/dhima/notification-scheduler/internal/logging"
	"github.com/dhima/notification-scheduler/internal/models"
	"github.com/dhima/notification-scheduler/internal/schedule"
	"github.com/dhima/notification-scheduler/pkg/clock"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultPreviewCount = 5

// PatternHandler previews calendar patterns without registering anything.
type PatternHandler struct {
	logger   logging.Logger
	clock    clock.Clock
	location *time.Location
}

// NewPatternHandler creates a new pattern handler. loc is used when a request names no timezone.
func NewPatternHandler(logger logging.Logger, clk clock.Clock, loc *time.Location) *PatternHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &PatternHandler{
		logger:   logger.With(zap.String("handler", "pattern")),
		clock:    clk,
		location: loc,
	}
}

// NextTriggers godoc
// @Summary Preview pattern triggers
// @Description Computes the next instants matching a date pattern, given either as an object ("on") or in compact form ("pattern"). The list is shorter than requested when the pattern stops advancing.
// @Tags Patterns
// @Accept json
// @Produce json
// @Param request body models.NextTriggersRequest true "Pattern and reference time"
// @Success 200 {object} models.NextTriggersResponse
// @Failure 400 {object} response.ErrorResponse "Invalid pattern"
// @Router /api/v1/patterns/next [post]
func (h *PatternHandler) NextTriggers(c *gin.Context) {
	var req models.NextTriggersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	pattern, err := h.pattern(req)
	if handleServiceError(c, h.logger, err, "parse pattern") {
		return
	}

	loc := h.location
	if req.Timezone != "" {
		loc, err = schedule.IntervalSchedule{Timezone: req.Timezone}.Location(h.location)
		if handleServiceError(c, h.logger, err, "load timezone") {
			return
		}
	}

	from := h.clock.Now()
	if req.From != nil {
		from = *req.From
	}
	count := req.Count
	if count == 0 {
		count = defaultPreviewCount
	}

	response.OK(c, models.NextTriggersResponse{
		Pattern: pattern.String(),
		Unit:    pattern.Unit().String(),
		Next:    pattern.Upcoming(from, loc, count),
	})
}

func (h *PatternHandler) pattern(req models.NextTriggersRequest) (schedule.DateMatch, error) {
	switch {
	case req.On != nil && req.Pattern != "":
		return schedule.DateMatch{}, schedule.NewError(schedule.CodeInvalidDate, "give either on or pattern, not both")
	case req.On != nil:
		if err := req.On.Validate(); err != nil {
			return schedule.DateMatch{}, err
		}
		return *req.On, nil
	case req.Pattern != "":
		return schedule.ParseDateMatch(req.Pattern)
	}
	return schedule.DateMatch{}, schedule.NewError(schedule.CodeInvalidDate, "a pattern is required")
}
