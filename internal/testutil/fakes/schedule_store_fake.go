package fakes

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/dhima/notification-scheduler/internal/models"
	"github.com/dhima/notification-scheduler/internal/storage"
)

// FakeScheduleStore is an in-memory scheduler store.
type FakeScheduleStore struct {
	mu        sync.Mutex
	Schedules map[string]models.PendingSchedule
	// FailPut and FailGet make the next call return an error.
	FailPut bool
	FailGet bool
	Puts    int
}

func NewFakeScheduleStore() *FakeScheduleStore {
	return &FakeScheduleStore{Schedules: make(map[string]models.PendingSchedule)}
}

func (f *FakeScheduleStore) Put(_ context.Context, p *models.PendingSchedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailPut {
		f.FailPut = false
		return errors.New("put failed")
	}
	f.Puts++
	cpy := *p
	if prev, ok := f.Schedules[p.ID]; ok {
		cpy.CreatedAt = prev.CreatedAt
	}
	f.Schedules[p.ID] = cpy
	return nil
}

func (f *FakeScheduleStore) Get(_ context.Context, id string) (*models.PendingSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailGet {
		f.FailGet = false
		return nil, errors.New("get failed")
	}
	p, ok := f.Schedules[id]
	if !ok {
		return nil, storage.ErrScheduleNotFound
	}
	return &p, nil
}

func (f *FakeScheduleStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Schedules, id)
	return nil
}

func (f *FakeScheduleStore) ListIDs(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.Schedules))
	for id := range f.Schedules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *FakeScheduleStore) List(_ context.Context) ([]models.PendingSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.PendingSchedule, 0, len(f.Schedules))
	for _, p := range f.Schedules {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NextFireAt.Equal(out[j].NextFireAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].NextFireAt.Before(out[j].NextFireAt)
	})
	return out, nil
}

// Has reports whether id is stored.
func (f *FakeScheduleStore) Has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.Schedules[id]
	return ok
}
