package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
)

// TaskFilter narrows a task listing. The zero value lists every task that
// is not EXPIRED.
type TaskFilter struct {
	// Status selects a single status. Nil means "all but EXPIRED".
	Status *domain.TaskStatus

	// Day restricts results to deadlines within the UTC calendar day
	// containing this instant.
	Day *time.Time

	// Search matches a case-insensitive substring of title or description.
	Search string
}

// DueTask pairs a task with the contact details needed to remind its owner.
type DueTask struct {
	Task      *domain.Task
	Email     string
	FirstName string
}

// TaskStore defines the interface for task data persistence.
// Every user-facing method is scoped to the owner: a task belonging to a
// different user is reported as ErrTaskNotFound.
type TaskStore interface {
	// Create saves a new task.
	// Returns validation errors from the domain Task if data is invalid.
	// Returns ErrInvalidEntity if the owner does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task owned by userID.
	// Returns ErrTaskNotFound if no such task exists for this owner.
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error)

	// List returns the owner's tasks matching filter, ordered by deadline
	// ascending. Returns an empty slice when nothing matches.
	List(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]*domain.Task, error)

	// ListFinished returns the owner's COMPLETE and EXPIRED tasks.
	ListFinished(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// Update writes the editable fields of task, provided the stored row
	// belongs to task.UserID and is not EXPIRED.
	// Returns ErrTaskNotFound if the owner has no such task.
	// Returns ErrTaskLocked if the stored task is EXPIRED.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task owned by userID, provided its deadline is still
	// after now and it is not EXPIRED.
	// Returns ErrTaskNotFound if the owner has no such task.
	// Returns ErrTaskLocked if the stored task may not be deleted.
	Delete(ctx context.Context, userID, id uuid.UUID, now time.Time) error

	// ExpireOverdue moves every ACTIVE task with deadline <= now to EXPIRED,
	// across all users, and returns how many rows changed. Running it again
	// with the same now changes nothing.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)

	// ClaimDueSoon marks ACTIVE tasks with now < deadline <= until whose
	// reminder has not been sent as reminded, and returns them with their
	// owner's contact details. A task is claimed at most once.
	ClaimDueSoon(ctx context.Context, now, until time.Time) ([]DueTask, error)

	// WithTx returns a new TaskStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}
