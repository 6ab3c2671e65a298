package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/store"
)

// CreateTaskInput carries the fields of a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	Deadline    time.Time
}

// TaskService provides the user-facing task operations. Every method is
// scoped to the calling user; another user's task is reported as
// store.ErrTaskNotFound.
type TaskService interface {
	// Create adds an ACTIVE task for userID.
	Create(ctx context.Context, userID uuid.UUID, in CreateTaskInput) (*domain.Task, error)

	// Get returns one of the user's tasks.
	Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)

	// List returns the user's tasks matching filter, ordered by deadline.
	List(ctx context.Context, userID uuid.UUID, filter store.TaskFilter) ([]*domain.Task, error)

	// Update applies a partial edit. Returns domain.ErrTaskLocked for an
	// EXPIRED task and domain.ErrInvalidTransition for a forbidden status move.
	Update(ctx context.Context, userID, taskID uuid.UUID, update domain.TaskUpdate) (*domain.Task, error)

	// Delete removes a task. Returns domain.ErrDeadlinePassed once the
	// deadline has been reached and domain.ErrTaskLocked for an EXPIRED task.
	Delete(ctx context.Context, userID, taskID uuid.UUID) error
}

// TaskServiceImpl implements TaskService on top of a store.TaskStore.
type TaskServiceImpl struct {
	taskStore store.TaskStore
	now       func() time.Time
	logger    *slog.Logger
}

var _ TaskService = (*TaskServiceImpl)(nil)

// TaskServiceOption configures a TaskServiceImpl.
type TaskServiceOption func(*TaskServiceImpl)

// WithClock replaces the wall clock used for deadline checks.
func WithClock(now func() time.Time) TaskServiceOption {
	return func(s *TaskServiceImpl) {
		s.now = now
	}
}

// NewTaskService creates a new TaskService
func NewTaskService(taskStore store.TaskStore, logger *slog.Logger, opts ...TaskServiceOption) (*TaskServiceImpl, error) {
	if taskStore == nil {
		return nil, fmt.Errorf("taskStore cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &TaskServiceImpl{
		taskStore: taskStore,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "task_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create implements TaskService.Create
func (s *TaskServiceImpl) Create(ctx context.Context, userID uuid.UUID, in CreateTaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(userID, in.Title, in.Description, in.Deadline)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.taskStore.Create(ctx, task); err != nil {
		log.Error("failed to create task",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	log.Info("task created",
		slog.String("user_id", userID.String()),
		slog.String("task_id", task.ID.String()))
	return task, nil
}

// Get implements TaskService.Get
func (s *TaskServiceImpl) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// List implements TaskService.List
func (s *TaskServiceImpl) List(ctx context.Context, userID uuid.UUID, filter store.TaskFilter) ([]*domain.Task, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, domain.ErrInvalidTaskStatus)
	}

	tasks, err := s.taskStore.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Update implements TaskService.Update
func (s *TaskServiceImpl) Update(
	ctx context.Context,
	userID, taskID uuid.UUID,
	update domain.TaskUpdate,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.taskStore.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if err := task.ApplyUpdate(update, s.now()); err != nil {
		log.Debug("task update rejected",
			slog.String("task_id", taskID.String()),
			slog.String("status", string(task.Status)),
			slog.String("error", err.Error()))
		if errors.Is(err, domain.ErrTaskLocked) || errors.Is(err, domain.ErrInvalidTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	if err := s.taskStore.Update(ctx, task); err != nil {
		// The sweeper expired the task between the read and the write.
		if errors.Is(err, store.ErrTaskLocked) {
			return nil, domain.ErrTaskLocked
		}
		log.Error("failed to update task",
			slog.String("task_id", taskID.String()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	log.Info("task updated",
		slog.String("task_id", taskID.String()),
		slog.String("status", string(task.Status)))
	return task, nil
}

// Delete implements TaskService.Delete
func (s *TaskServiceImpl) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.now()

	task, err := s.taskStore.GetByID(ctx, userID, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if err := task.CheckDeletable(now); err != nil {
		log.Debug("task delete rejected",
			slog.String("task_id", taskID.String()),
			slog.String("error", err.Error()))
		return err
	}

	if err := s.taskStore.Delete(ctx, userID, taskID, now); err != nil {
		if errors.Is(err, store.ErrTaskLocked) {
			return domain.ErrTaskLocked
		}
		log.Error("failed to delete task",
			slog.String("task_id", taskID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete task: %w", err)
	}

	log.Info("task deleted", slog.String("task_id", taskID.String()))
	return nil
}
