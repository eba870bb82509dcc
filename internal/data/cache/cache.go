// Package cache implements the progression content cache port over an
// in-process map or Redis. Values are stored as JSON with their write time
// so callers can judge staleness.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

type Cache interface {
	Get(ctx context.Context, key string, dest any) (age time.Duration, ok bool, err error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

type envelope struct {
	StoredAt time.Time       `json:"stored_at"`
	Payload  json.RawMessage `json:"payload"`
}

func encode(value any, now time.Time) ([]byte, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{StoredAt: now.UTC(), Payload: payload})
}

func decode(raw []byte, dest any, now time.Time) (time.Duration, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return 0, err
	}
	if err := json.Unmarshal(env.Payload, dest); err != nil {
		return 0, err
	}
	age := now.Sub(env.StoredAt)
	if age < 0 {
		age = 0
	}
	return age, nil
}
