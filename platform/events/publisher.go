package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dhima/notification-scheduler/internal/logging"
	"github.com/dhima/notification-scheduler/internal/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// NotificationEvent is the message published for every fired schedule.
type NotificationEvent struct {
	EventID      string          `json:"event_id"`
	ScheduleID   string          `json:"schedule_id"`
	Kind         string          `json:"kind"`
	FireCount    int             `json:"fire_count"`
	ScheduledFor time.Time       `json:"scheduled_for"`
	FiredAt      time.Time       `json:"fired_at"`
	Notification json.RawMessage `json:"notification,omitempty"`
	Source       string          `json:"source"`
}

// Publisher emits notification events to Kafka for downstream presentation.
type Publisher struct {
	writer  *kafka.Writer
	limiter *rate.Limiter
	logger  logging.Logger
}

// NewPublisher builds a publisher with production writer settings.
// ratePerSec <= 0 disables throttling.
func NewPublisher(brokers []string, topic string, ratePerSec int, logger logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}

	limit := rate.Inf
	burst := 1
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
		burst = ratePerSec
	}

	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  3,
			WriteTimeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger.Named("publisher"),
	}
}

// Present publishes a fired delivery. It satisfies scheduler.Presenter.
func (p *Publisher) Present(ctx context.Context, d models.Delivery) error {
	return p.Publish(ctx, NewNotificationEvent(d))
}

// Publish writes one event keyed by schedule id, so a schedule's events stay ordered.
func (p *Publisher) Publish(ctx context.Context, event NotificationEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("publish throttled: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ScheduleID),
		Value: value,
		Time:  event.FiredAt,
	})
	if err != nil {
		p.logger.Error("failed to publish notification event",
			zap.String("event_id", event.EventID),
			zap.String("schedule_id", event.ScheduleID),
			zap.Error(err))
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	p.logger.Debug("notification event published",
		zap.String("event_id", event.EventID),
		zap.String("schedule_id", event.ScheduleID))
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// NewNotificationEvent converts a delivery into its published form.
func NewNotificationEvent(d models.Delivery) NotificationEvent {
	return NotificationEvent{
		EventID:      uuid.New().String(),
		ScheduleID:   d.ScheduleID,
		Kind:         string(d.Kind),
		FireCount:    d.FireCount,
		ScheduledFor: d.ScheduledFor,
		FiredAt:      d.FiredAt,
		Notification: d.Notification,
		Source:       "scheduler",
	}
}

// LogPresenter only logs deliveries. Useful without a broker.
type LogPresenter struct {
	logger logging.Logger
}

// NewLogPresenter builds a presenter that writes deliveries to logger.
func NewLogPresenter(logger logging.Logger) *LogPresenter {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &LogPresenter{logger: logger.Named("presenter")}
}

func (p *LogPresenter) Present(_ context.Context, d models.Delivery) error {
	p.logger.Info("notification delivered",
		zap.String("schedule_id", d.ScheduleID),
		zap.String("kind", string(d.Kind)),
		zap.Int("fire_count", d.FireCount),
		zap.Time("scheduled_for", d.ScheduledFor),
		zap.ByteString("notification", d.Notification))
	return nil
}

// Close is a no-op; LogPresenter holds no resources.
func (p *LogPresenter) Close() error { return nil }
