package fakes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ArmedTimer is one armed wake-up.
type ArmedTimer struct {
	Handle  string
	Payload []byte
	At      time.Time
	Precise bool
}

// FakeTimer records armed timers and can refuse precise or all arming.
type FakeTimer struct {
	mu       sync.Mutex
	seq      int
	Armed    map[string]ArmedTimer
	Disarmed []string
	// DenyPrecise is returned for precise requests when set.
	DenyPrecise error
	FailArm     bool
	FailError   error
}

func NewFakeTimer() *FakeTimer {
	return &FakeTimer{Armed: make(map[string]ArmedTimer)}
}

func (f *FakeTimer) Arm(_ context.Context, payload []byte, at time.Time, precise bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailArm {
		if f.FailError == nil {
			f.FailError = errors.New("arm failed")
		}
		return "", f.FailError
	}
	if precise && f.DenyPrecise != nil {
		return "", f.DenyPrecise
	}
	f.seq++
	handle := fmt.Sprintf("timer-%d", f.seq)
	f.Armed[handle] = ArmedTimer{Handle: handle, Payload: append([]byte(nil), payload...), At: at, Precise: precise}
	return handle, nil
}

func (f *FakeTimer) Disarm(_ context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Armed, handle)
	f.Disarmed = append(f.Disarmed, handle)
	return nil
}

// Count returns the number of armed timers.
func (f *FakeTimer) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Armed)
}

// Get returns the timer armed under handle.
func (f *FakeTimer) Get(handle string) (ArmedTimer, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.Armed[handle]
	return t, ok
}

// Fire removes the timer armed under handle and returns its payload, as if it had elapsed.
func (f *FakeTimer) Fire(handle string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.Armed[handle]
	if !ok {
		return nil, false
	}
	delete(f.Armed, handle)
	return t.Payload, true
}
