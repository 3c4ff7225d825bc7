package fakes

import (
	"context"
	"errors"
	"sync"

	"github.com/dhima/notification-scheduler/internal/models"
)

// FakePresenter captures presented deliveries and can simulate failures.
type FakePresenter struct {
	mu         sync.Mutex
	Deliveries []models.Delivery
	FailNext   bool
	FailError  error
}

func (p *FakePresenter) Present(_ context.Context, d models.Delivery) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailNext {
		p.FailNext = false
		if p.FailError == nil {
			p.FailError = errors.New("present failed")
		}
		return p.FailError
	}
	p.Deliveries = append(p.Deliveries, d)
	return nil
}

// Count returns the number of successful presentations.
func (p *FakePresenter) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Deliveries)
}
