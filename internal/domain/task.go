package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusActive     TaskStatus = "ACTIVE"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusComplete   TaskStatus = "COMPLETE"
	TaskStatusExpired    TaskStatus = "EXPIRED"
)

const (
	// MaxTaskTitleLength is the maximum number of characters in a task title.
	MaxTaskTitleLength = 200
	// MaxTaskDescriptionLength is the maximum number of characters in a task description.
	MaxTaskDescriptionLength = 2000
)

// Common validation errors for Task
var (
	ErrEmptyTaskID       = errors.New("task ID cannot be empty")
	ErrEmptyTaskUserID   = errors.New("task user ID cannot be empty")
	ErrEmptyTaskTitle    = errors.New("task title cannot be empty")
	ErrTaskTitleTooLong  = errors.New("task title is too long")
	ErrTaskDescTooLong   = errors.New("task description is too long")
	ErrEmptyTaskDeadline = errors.New("task deadline cannot be empty")
	ErrInvalidTaskStatus = errors.New("invalid task status")
)

// IsValid reports whether s is one of the known statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusActive, TaskStatusInProgress, TaskStatusComplete, TaskStatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible from s.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusExpired
}

// CanTransition reports whether a user may move a task from one status to
// another. EXPIRED is never a valid user target and never a valid source;
// the expiry path goes through Task.Expire instead.
func CanTransition(from, to TaskStatus) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	if from.IsTerminal() || to == TaskStatusExpired {
		return false
	}
	return true
}

// Task is a user-owned to-do item with a deadline.
type Task struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         TaskStatus `json:"status"`
	Deadline       time.Time  `json:"deadline"`
	ReminderSentAt *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TaskUpdate carries the user-editable fields of a task. Nil fields are
// left untouched.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	Deadline    *time.Time
}

// NewTask creates an ACTIVE task owned by userID. A deadline in the past is
// accepted; the next sweep expires it.
func NewTask(userID uuid.UUID, title, description string, deadline time.Time) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Status:      TaskStatusActive,
		Deadline:    deadline.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.UserID == uuid.Nil {
		return ErrEmptyTaskUserID
	}
	if t.Title == "" {
		return ErrEmptyTaskTitle
	}
	if utf8.RuneCountInString(t.Title) > MaxTaskTitleLength {
		return ErrTaskTitleTooLong
	}
	if utf8.RuneCountInString(t.Description) > MaxTaskDescriptionLength {
		return ErrTaskDescTooLong
	}
	if t.Deadline.IsZero() {
		return ErrEmptyTaskDeadline
	}
	if !t.Status.IsValid() {
		return ErrInvalidTaskStatus
	}
	return nil
}

// ApplyUpdate applies a user edit. An EXPIRED task rejects every edit with
// ErrTaskLocked, whatever the requested fields. The task is left unchanged
// when an error is returned.
func (t *Task) ApplyUpdate(update TaskUpdate, now time.Time) error {
	if t.Status.IsTerminal() {
		return ErrTaskLocked
	}

	next := *t
	if update.Status != nil {
		if !update.Status.IsValid() {
			return ErrInvalidTaskStatus
		}
		if !CanTransition(t.Status, *update.Status) {
			return ErrInvalidTransition
		}
		next.Status = *update.Status
	}
	if update.Title != nil {
		next.Title = strings.TrimSpace(*update.Title)
	}
	if update.Description != nil {
		next.Description = strings.TrimSpace(*update.Description)
	}
	if update.Deadline != nil {
		next.Deadline = update.Deadline.UTC()
	}

	if err := next.Validate(); err != nil {
		return err
	}

	next.UpdatedAt = now.UTC()
	*t = next
	return nil
}

// CheckDeletable reports whether the task may be deleted at now. A reached
// deadline wins over the expired lock so callers see the deadline reason.
func (t *Task) CheckDeletable(now time.Time) error {
	if !now.Before(t.Deadline) {
		return ErrDeadlinePassed
	}
	if t.Status.IsTerminal() {
		return ErrTaskLocked
	}
	return nil
}

// IsOverdue reports whether an ACTIVE task is due for expiry at now.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status == TaskStatusActive && !t.Deadline.After(now)
}

// IsDueSoon reports whether an ACTIVE task falls inside the reminder window
// (now, now+window].
func (t *Task) IsDueSoon(now time.Time, window time.Duration) bool {
	return t.Status == TaskStatusActive &&
		t.Deadline.After(now) &&
		!t.Deadline.After(now.Add(window))
}

// Expire moves an overdue ACTIVE task to EXPIRED. It reports whether the
// task changed, so repeated calls are harmless.
func (t *Task) Expire(now time.Time) bool {
	if !t.IsOverdue(now) {
		return false
	}
	t.Status = TaskStatusExpired
	t.UpdatedAt = now.UTC()
	return true
}
