package handlers

import (
	"github.com/dhima/notification-scheduler/internal/api/response"
	"github.com/dhima/notification-scheduler/internal/logging"
	"github.com/dhima/notification-scheduler/internal/scheduler"
	"github.com/gin-gonic/gin"
)

// StatsSource exposes engine counters.
type StatsSource interface {
	Stats() scheduler.Stats
}

// ArmedCounter reports how many timers are currently armed.
type ArmedCounter interface {
	Count() int
}

// MetricsHandler handles metrics requests.
type MetricsHandler struct {
	logger logging.Logger
	stats  StatsSource
	timers ArmedCounter
}

// NewMetricsHandler creates a new metrics handler. timers may be nil.
func NewMetricsHandler(logger logging.Logger, stats StatsSource, timers ArmedCounter) *MetricsHandler {
	return &MetricsHandler{logger: logger, stats: stats, timers: timers}
}

// MetricsResponse represents the metrics response.
type MetricsResponse struct {
	RegisteredCount     int64 `json:"registered_count" example:"120"`
	FiredCount          int64 `json:"fired_count" example:"1250"`
	RescheduledCount    int64 `json:"rescheduled_count" example:"1180"`
	RemovedCount        int64 `json:"removed_count" example:"70"`
	CancelledCount      int64 `json:"cancelled_count" example:"12"`
	StaleWakeupCount    int64 `json:"stale_wakeup_count" example:"3"`
	PresentFailureCount int64 `json:"present_failure_count" example:"2"`
	ApproximateArmCount int64 `json:"approximate_arm_count" example:"0"`
	ArmedTimers         int   `json:"armed_timers" example:"38"`
} // @name MetricsResponse

// Metrics godoc
// @Summary Get scheduler metrics
// @Description Returns counters for registrations, fires and re-arms since process start
// @Tags System
// @Produce json
// @Success 200 {object} MetricsResponse
// @Router /metrics [get]
func (h *MetricsHandler) Metrics(c *gin.Context) {
	s := h.stats.Stats()
	metrics := MetricsResponse{
		RegisteredCount:     s.Registered,
		FiredCount:          s.Fired,
		RescheduledCount:    s.Rescheduled,
		RemovedCount:        s.Removed,
		CancelledCount:      s.Cancelled,
		StaleWakeupCount:    s.Stale,
		PresentFailureCount: s.PresentFailures,
		ApproximateArmCount: s.ApproximateArms,
	}
	if h.timers != nil {
		metrics.ArmedTimers = h.timers.Count()
	}

	response.OK(c, metrics)
}
