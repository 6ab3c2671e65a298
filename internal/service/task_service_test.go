package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/mocks"
	"github.com/phrazzld/tasker-api/internal/service"
	"github.com/phrazzld/tasker-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTaskService(t *testing.T, tasks store.TaskStore) *service.TaskServiceImpl {
	t.Helper()
	svc, err := service.NewTaskService(tasks, nil, service.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return svc
}

func seedTask(t *testing.T, tasks *mocks.MockTaskStore, userID uuid.UUID, status domain.TaskStatus, deadline time.Time) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(userID, "write report", "quarterly numbers", deadline)
	require.NoError(t, err)
	task.Status = status
	tasks.Seed(task)
	return task
}

func statusPtr(s domain.TaskStatus) *domain.TaskStatus { return &s }

func stringPtr(s string) *string { return &s }

func TestNewTaskService(t *testing.T) {
	_, err := service.NewTaskService(nil, nil)
	assert.Error(t, err)

	svc, err := service.NewTaskService(mocks.NewMockTaskStore(), nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestTaskService_Create(t *testing.T) {
	ctx := context.Background()
	tasks := mocks.NewMockTaskStore()
	svc := newTaskService(t, tasks)
	userID := uuid.New()

	task, err := svc.Create(ctx, userID, service.CreateTaskInput{
		Title:    "  water plants ",
		Deadline: fixedNow.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusActive, task.Status)
	assert.Equal(t, "water plants", task.Title)
	assert.Equal(t, userID, task.UserID)

	_, ok := tasks.Snapshot(task.ID)
	assert.True(t, ok)

	_, err = svc.Create(ctx, userID, service.CreateTaskInput{Title: "", Deadline: fixedNow})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Create(ctx, userID, service.CreateTaskInput{Title: "no deadline"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTaskService_GetIsOwnerScoped(t *testing.T) {
	ctx := context.Background()
	tasks := mocks.NewMockTaskStore()
	svc := newTaskService(t, tasks)

	owner := uuid.New()
	task := seedTask(t, tasks, owner, domain.TaskStatusActive, fixedNow.Add(time.Hour))

	got, err := svc.Get(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)

	_, err = svc.Get(ctx, uuid.New(), task.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	assert.True(t, store.IsNotFoundError(err))
}

func TestTaskService_List(t *testing.T) {
	ctx := context.Background()
	tasks := mocks.NewMockTaskStore()
	svc := newTaskService(t, tasks)
	userID := uuid.New()

	active := seedTask(t, tasks, userID, domain.TaskStatusActive, fixedNow.Add(2*time.Hour))
	seedTask(t, tasks, userID, domain.TaskStatusExpired, fixedNow.Add(-time.Hour))
	seedTask(t, tasks, uuid.New(), domain.TaskStatusActive, fixedNow.Add(time.Hour))

	list, err := svc.List(ctx, userID, store.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, active.ID, list[0].ID)

	_, err = svc.List(ctx, userID, store.TaskFilter{Status: statusPtr("DONE")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	expired, err := svc.List(ctx, userID, store.TaskFilter{Status: statusPtr(domain.TaskStatusExpired)})
	require.NoError(t, err)
	assert.Len(t, expired, 1)
}

func TestTaskService_Update(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	tests := []struct {
		name    string
		status  domain.TaskStatus
		update  domain.TaskUpdate
		wantErr error
		want    domain.TaskStatus
	}{
		{
			name:   "active to in progress",
			status: domain.TaskStatusActive,
			update: domain.TaskUpdate{Status: statusPtr(domain.TaskStatusInProgress)},
			want:   domain.TaskStatusInProgress,
		},
		{
			name:   "in progress to complete",
			status: domain.TaskStatusInProgress,
			update: domain.TaskUpdate{Status: statusPtr(domain.TaskStatusComplete)},
			want:   domain.TaskStatusComplete,
		},
		{
			name:   "title only keeps status",
			status: domain.TaskStatusComplete,
			update: domain.TaskUpdate{Title: stringPtr("renamed")},
			want:   domain.TaskStatusComplete,
		},
		{
			name:    "expired is locked even for a title edit",
			status:  domain.TaskStatusExpired,
			update:  domain.TaskUpdate{Title: stringPtr("renamed")},
			wantErr: domain.ErrTaskLocked,
		},
		{
			name:    "expired cannot be set by a user",
			status:  domain.TaskStatusActive,
			update:  domain.TaskUpdate{Status: statusPtr(domain.TaskStatusExpired)},
			wantErr: domain.ErrInvalidTransition,
		},
		{
			name:    "empty title",
			status:  domain.TaskStatusActive,
			update:  domain.TaskUpdate{Title: stringPtr("  ")},
			wantErr: domain.ErrEmptyTaskTitle,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tasks := mocks.NewMockTaskStore()
			svc := newTaskService(t, tasks)
			task := seedTask(t, tasks, userID, tc.status, fixedNow.Add(time.Hour))

			updated, err := svc.Update(ctx, userID, task.ID, tc.update)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				stored, _ := tasks.Snapshot(task.ID)
				assert.Equal(t, tc.status, stored.Status, "stored task unchanged")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, updated.Status)
			assert.Equal(t, fixedNow, updated.UpdatedAt)

			stored, _ := tasks.Snapshot(task.ID)
			assert.Equal(t, tc.want, stored.Status)
		})
	}

	t.Run("another user's task is not found", func(t *testing.T) {
		tasks := mocks.NewMockTaskStore()
		svc := newTaskService(t, tasks)
		task := seedTask(t, tasks, userID, domain.TaskStatusActive, fixedNow.Add(time.Hour))

		_, err := svc.Update(ctx, uuid.New(), task.ID, domain.TaskUpdate{Title: stringPtr("x")})
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("expired by sweeper between read and write", func(t *testing.T) {
		tasks := mocks.NewMockTaskStore()
		tasks.UpdateFn = func(context.Context, *domain.Task) error { return store.ErrTaskLocked }
		svc := newTaskService(t, tasks)
		task := seedTask(t, tasks, userID, domain.TaskStatusActive, fixedNow.Add(time.Hour))

		_, err := svc.Update(ctx, userID, task.ID, domain.TaskUpdate{Title: stringPtr("x")})
		assert.ErrorIs(t, err, domain.ErrTaskLocked)
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		tasks := mocks.NewMockTaskStore()
		boom := errors.New("connection reset")
		tasks.UpdateFn = func(context.Context, *domain.Task) error { return boom }
		svc := newTaskService(t, tasks)
		task := seedTask(t, tasks, userID, domain.TaskStatusActive, fixedNow.Add(time.Hour))

		_, err := svc.Update(ctx, userID, task.ID, domain.TaskUpdate{Title: stringPtr("x")})
		assert.ErrorIs(t, err, boom)
	})
}

func TestTaskService_Delete(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	tests := []struct {
		name     string
		status   domain.TaskStatus
		deadline time.Time
		wantErr  error
	}{
		{"before deadline", domain.TaskStatusActive, fixedNow.Add(time.Minute), nil},
		{"complete before deadline", domain.TaskStatusComplete, fixedNow.Add(time.Minute), nil},
		{"exactly at deadline", domain.TaskStatusActive, fixedNow, domain.ErrDeadlinePassed},
		{"after deadline", domain.TaskStatusComplete, fixedNow.Add(-time.Minute), domain.ErrDeadlinePassed},
		{"expired after deadline reports deadline", domain.TaskStatusExpired, fixedNow.Add(-time.Minute), domain.ErrDeadlinePassed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tasks := mocks.NewMockTaskStore()
			svc := newTaskService(t, tasks)
			task := seedTask(t, tasks, userID, tc.status, tc.deadline)

			err := svc.Delete(ctx, userID, task.ID)
			_, stillThere := tasks.Snapshot(task.ID)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.True(t, stillThere)
				return
			}
			require.NoError(t, err)
			assert.False(t, stillThere)
		})
	}

	t.Run("another user's task is not found", func(t *testing.T) {
		tasks := mocks.NewMockTaskStore()
		svc := newTaskService(t, tasks)
		task := seedTask(t, tasks, userID, domain.TaskStatusActive, fixedNow.Add(time.Hour))

		err := svc.Delete(ctx, uuid.New(), task.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}
