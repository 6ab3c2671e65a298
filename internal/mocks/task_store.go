package mocks

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/store"
)

// MockTaskStore is an in-memory store.TaskStore that follows the same
// ownership, filter and conditional-write rules as the Postgres store.
type MockTaskStore struct {
	// Function fields for customizable behavior
	CreateFn        func(ctx context.Context, task *domain.Task) error
	ListFn          func(ctx context.Context, userID uuid.UUID, filter store.TaskFilter) ([]*domain.Task, error)
	ListFinishedFn  func(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)
	UpdateFn        func(ctx context.Context, task *domain.Task) error
	ExpireOverdueFn func(ctx context.Context, now time.Time) (int64, error)
	ClaimDueSoonFn  func(ctx context.Context, now, until time.Time) ([]store.DueTask, error)

	mu       sync.Mutex
	tasks    map[uuid.UUID]domain.Task
	contacts map[uuid.UUID][2]string
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore creates an empty MockTaskStore
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		tasks:    make(map[uuid.UUID]domain.Task),
		contacts: make(map[uuid.UUID][2]string),
	}
}

// Seed stores tasks directly, bypassing validation.
func (m *MockTaskStore) Seed(tasks ...*domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tasks {
		m.tasks[t.ID] = *t
	}
}

// SetContact registers the email and first name ClaimDueSoon reports for
// userID's tasks.
func (m *MockTaskStore) SetContact(userID uuid.UUID, email, firstName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contacts[userID] = [2]string{email, firstName}
}

// Snapshot returns a copy of a stored task regardless of owner.
func (m *MockTaskStore) Snapshot(id uuid.UUID) (domain.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	return t, ok
}

// Create implements store.TaskStore.Create
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	if err := task.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[task.ID]; ok {
		return store.ErrDuplicate
	}
	m.tasks[task.ID] = *task
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (m *MockTaskStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.UserID != userID {
		return nil, store.ErrTaskNotFound
	}
	return &t, nil
}

// List implements store.TaskStore.List
func (m *MockTaskStore) List(ctx context.Context, userID uuid.UUID, filter store.TaskFilter) ([]*domain.Task, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, userID, filter)
	}

	var start, end time.Time
	if filter.Day != nil {
		start, end = domain.DayBounds(*filter.Day)
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	return m.collect(userID, func(t domain.Task) bool {
		if filter.Status != nil {
			if t.Status != *filter.Status {
				return false
			}
		} else if t.Status == domain.TaskStatusExpired {
			return false
		}
		if filter.Day != nil && (t.Deadline.Before(start) || !t.Deadline.Before(end)) {
			return false
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			return false
		}
		return true
	}), nil
}

// ListFinished implements store.TaskStore.ListFinished
func (m *MockTaskStore) ListFinished(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	if m.ListFinishedFn != nil {
		return m.ListFinishedFn(ctx, userID)
	}
	return m.collect(userID, func(t domain.Task) bool {
		return t.Status == domain.TaskStatusComplete || t.Status == domain.TaskStatusExpired
	}), nil
}

func (m *MockTaskStore) collect(userID uuid.UUID, keep func(domain.Task) bool) []*domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := []*domain.Task{}
	for _, t := range m.tasks {
		if t.UserID == userID && keep(t) {
			t := t
			result = append(result, &t)
		}
	}
	// ORDER BY deadline, created_at; the ID only makes equal rows stable.
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.Deadline.Equal(b.Deadline) {
			return a.Deadline.Before(b.Deadline)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return result
}

// Update implements store.TaskStore.Update
func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, task)
	}
	if err := task.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tasks[task.ID]
	if !ok || stored.UserID != task.UserID {
		return store.ErrTaskNotFound
	}
	if stored.Status == domain.TaskStatusExpired {
		return store.ErrTaskLocked
	}

	next := *task
	next.CreatedAt = stored.CreatedAt
	next.ReminderSentAt = stored.ReminderSentAt
	if !next.Deadline.Equal(stored.Deadline) {
		next.ReminderSentAt = nil
	}
	m.tasks[task.ID] = next
	return nil
}

// Delete implements store.TaskStore.Delete
func (m *MockTaskStore) Delete(ctx context.Context, userID, id uuid.UUID, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tasks[id]
	if !ok || stored.UserID != userID {
		return store.ErrTaskNotFound
	}
	if !now.Before(stored.Deadline) || stored.Status == domain.TaskStatusExpired {
		return store.ErrTaskLocked
	}
	delete(m.tasks, id)
	return nil
}

// ExpireOverdue implements store.TaskStore.ExpireOverdue
func (m *MockTaskStore) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	if m.ExpireOverdueFn != nil {
		return m.ExpireOverdueFn(ctx, now)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, t := range m.tasks {
		if t.Expire(now) {
			m.tasks[id] = t
			n++
		}
	}
	return n, nil
}

// ClaimDueSoon implements store.TaskStore.ClaimDueSoon
func (m *MockTaskStore) ClaimDueSoon(ctx context.Context, now, until time.Time) ([]store.DueTask, error) {
	if m.ClaimDueSoonFn != nil {
		return m.ClaimDueSoonFn(ctx, now, until)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	claimed := []store.DueTask{}
	for id, t := range m.tasks {
		if t.ReminderSentAt != nil || !t.IsDueSoon(now, until.Sub(now)) {
			continue
		}
		sentAt := now.UTC()
		t.ReminderSentAt = &sentAt
		m.tasks[id] = t

		t := t
		contact := m.contacts[t.UserID]
		claimed = append(claimed, store.DueTask{Task: &t, Email: contact[0], FirstName: contact[1]})
	}
	sort.Slice(claimed, func(i, j int) bool {
		return claimed[i].Task.Deadline.Before(claimed[j].Task.Deadline)
	})
	return claimed, nil
}

// WithTx returns the same store; the mock has no transactional state.
func (m *MockTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return m
}
