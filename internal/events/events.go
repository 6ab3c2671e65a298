package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the application.
const (
	// TypeTaskDueSoon is emitted once per task whose deadline enters the
	// reminder window. Payload: TaskDueSoonPayload.
	TypeTaskDueSoon = "task.due_soon"
)

// Event is a typed notification with a JSON payload.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type selects how handlers interpret Payload
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// TaskDueSoonPayload describes a task about to reach its deadline and the
// owner to remind.
type TaskDueSoonPayload struct {
	TaskID    uuid.UUID `json:"task_id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Deadline  time.Time `json:"deadline"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event with the given type, serializing payload as JSON.
func NewEvent(eventType string, payload any) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler processes events. Handlers ignore types they do not know.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter publishes events to interested handlers.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts an ordinary function to EventHandler.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}
