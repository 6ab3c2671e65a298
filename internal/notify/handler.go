package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasker-api/internal/events"
)

// Enqueuer accepts messages for asynchronous delivery.
type Enqueuer interface {
	Enqueue(msg Message) error
}

// ReminderHandler turns task.due_soon events into queued Messages.
type ReminderHandler struct {
	queue  Enqueuer
	logger *slog.Logger
}

var _ events.EventHandler = (*ReminderHandler)(nil)

// NewReminderHandler creates a ReminderHandler feeding queue.
func NewReminderHandler(queue Enqueuer, logger *slog.Logger) *ReminderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderHandler{
		queue:  queue,
		logger: logger.With(slog.String("component", "reminder_handler")),
	}
}

// HandleEvent implements events.EventHandler. Other event types are ignored.
func (h *ReminderHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.TypeTaskDueSoon {
		h.logger.Debug("ignoring event with unsupported type",
			slog.String("event_type", event.Type),
			slog.String("event_id", event.ID.String()))
		return nil
	}

	var payload events.TaskDueSoonPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("failed to unmarshal due-soon payload: %w", err)
	}

	msg := Message{
		TaskID:    payload.TaskID,
		To:        payload.Email,
		FirstName: payload.FirstName,
		Title:     payload.Title,
		Deadline:  payload.Deadline,
	}
	if err := h.queue.Enqueue(msg); err != nil {
		return fmt.Errorf("failed to queue reminder for task %s: %w", payload.TaskID, err)
	}
	return nil
}
