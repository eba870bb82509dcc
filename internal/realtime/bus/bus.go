package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const EventModuleCompleted = "module.completed"

// Event is the envelope published for external notification dispatchers.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Type       string         `json:"type"`
	UserID     uuid.UUID      `json:"user_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

type Bus interface {
	Publish(ctx context.Context, ev Event) error
	StartForwarder(ctx context.Context, onEvent func(ev Event)) error
	Close() error
}
