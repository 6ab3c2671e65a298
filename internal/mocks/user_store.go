package mocks

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/store"
)

// MockUserStore is an in-memory store.UserStore. Email and username
// uniqueness are case-insensitive, as in the database. Returned users are
// copies, so callers can mutate them freely before calling Update.
type MockUserStore struct {
	// Function fields for customizable behavior
	CreateFn        func(ctx context.Context, user *domain.User) error
	GetByIDFn       func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmailFn    func(ctx context.Context, email string) (*domain.User, error)
	GetByUsernameFn func(ctx context.Context, username string) (*domain.User, error)
	UpdateFn        func(ctx context.Context, user *domain.User) error

	mu    sync.Mutex
	users map[uuid.UUID]domain.User
}

var _ store.UserStore = (*MockUserStore)(nil)

// NewMockUserStore creates a new mock store with initialized defaults
func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		users: make(map[uuid.UUID]domain.User),
	}
}

// Seed stores users directly, bypassing validation.
func (m *MockUserStore) Seed(users ...*domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range users {
		m.users[u.ID] = *u
	}
}

// Len returns how many users are stored.
func (m *MockUserStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// conflict reports a uniqueness collision with a user other than self.
// Callers hold m.mu.
func (m *MockUserStore) conflict(u *domain.User) error {
	for id, other := range m.users {
		if id == u.ID {
			continue
		}
		if strings.EqualFold(other.Email, u.Email) {
			return store.ErrEmailExists
		}
		if strings.EqualFold(other.Username, u.Username) {
			return store.ErrUsernameExists
		}
	}
	return nil
}

// Create implements store.UserStore.Create
func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}
	if err := user.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.conflict(user); err != nil {
		return err
	}
	m.users[user.ID] = *user
	return nil
}

// GetByID implements store.UserStore.GetByID
func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return &u, nil
}

// GetByEmail implements store.UserStore.GetByEmail
func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}
	return m.find(func(u domain.User) bool { return strings.EqualFold(u.Email, strings.TrimSpace(email)) })
}

// GetByUsername implements store.UserStore.GetByUsername
func (m *MockUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.GetByUsernameFn != nil {
		return m.GetByUsernameFn(ctx, username)
	}
	return m.find(func(u domain.User) bool { return strings.EqualFold(u.Username, username) })
}

func (m *MockUserStore) find(match func(domain.User) bool) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

// Update implements store.UserStore.Update
func (m *MockUserStore) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, user)
	}
	if err := user.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	if err := m.conflict(user); err != nil {
		return err
	}
	m.users[user.ID] = *user
	return nil
}

// WithTx returns the same store; the mock has no transactional state.
func (m *MockUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return m
}
