package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dhima/notification-scheduler/internal/schedule"
)

// FirePayload is the opaque data handed to the timer facility and returned on wake-up.
type FirePayload struct {
	ID      string        `json:"id"`
	Kind    schedule.Kind `json:"kind"`
	FireAt  int64         `json:"fire_at"` // unix millis
	Pattern string        `json:"pattern,omitempty"`
}

// FireTime returns the instant the payload was armed for.
func (p FirePayload) FireTime() time.Time {
	return time.UnixMilli(p.FireAt).UTC()
}

func newFirePayload(id string, spec schedule.Spec, at time.Time) FirePayload {
	p := FirePayload{ID: id, Kind: spec.Kind, FireAt: at.UnixMilli()}
	if spec.Kind == schedule.KindInterval && spec.Interval != nil {
		p.Pattern = spec.Interval.Pattern.String()
	}
	return p
}

// EncodePayload serializes a payload for the timer facility.
func EncodePayload(p FirePayload) ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fire payload: %w", err)
	}
	return b, nil
}

// DecodePayload parses a payload delivered by the timer facility.
func DecodePayload(raw []byte) (FirePayload, error) {
	var p FirePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return FirePayload{}, fmt.Errorf("failed to decode fire payload: %w", err)
	}
	if p.ID == "" {
		return FirePayload{}, fmt.Errorf("fire payload has no schedule id")
	}
	return p, nil
}
