// Package notify delivers task reminders.
//
// A ReminderHandler receives task.due_soon events and queues a Message on a
// Dispatcher, whose workers hand each Message to a Notifier. Delivery is
// best effort: failures are logged and counted, never retried.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Message is a reminder addressed to one user about one task.
type Message struct {
	TaskID    uuid.UUID
	To        string
	FirstName string
	Title     string
	Deadline  time.Time
}

// Notifier sends a Message.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// NotifierFunc adapts an ordinary function to Notifier.
type NotifierFunc func(ctx context.Context, msg Message) error

// Notify calls f(ctx, msg).
func (f NotifierFunc) Notify(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}
