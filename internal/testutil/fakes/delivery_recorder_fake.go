package fakes

import (
	"context"
	"sort"
	"sync"

	"github.com/dhima/notification-scheduler/internal/models"
	"github.com/google/uuid"
)

// FakeDeliveryRecorder is an in-memory delivery log store.
type FakeDeliveryRecorder struct {
	mu   sync.Mutex
	Logs []models.DeliveryLog
}

func (f *FakeDeliveryRecorder) CreateDeliveryLog(_ context.Context, d *models.DeliveryLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	f.Logs = append(f.Logs, *d)
	return nil
}

func (f *FakeDeliveryRecorder) ListDeliveryLogs(_ context.Context, q models.ListDeliveriesQuery) ([]models.DeliveryLog, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q.Normalize()
	out := make([]models.DeliveryLog, 0)
	for _, d := range f.Logs {
		if q.ScheduleID != "" && d.ScheduleID != q.ScheduleID {
			continue
		}
		if q.Status != "" && string(d.Status) != q.Status {
			continue
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FiredAt.After(out[j].FiredAt) })
	total := int64(len(out))
	start := (q.Page - 1) * q.Limit
	if start > len(out) {
		start = len(out)
	}
	end := start + q.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}
