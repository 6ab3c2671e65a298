package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name"  validate:"required,max=100"`
	Email     string `json:"email"      validate:"required,email"`
	Username  string `json:"username"   validate:"required,min=3,max=32"`
	Password  string `json:"password"   validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse defines the successful response for authentication endpoints.
// The session token itself travels only in the HttpOnly cookie.
type AuthResponse struct {
	Message string    `json:"message"`
	UserID  uuid.UUID `json:"user_id"`

	// ExpiresAt is the RFC 3339 timestamp when the session cookie expires.
	ExpiresAt string `json:"expires_at,omitempty"`
}

// CreateTaskRequest defines the payload for creating a task.
type CreateTaskRequest struct {
	Title       string    `json:"title"       validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	Deadline    time.Time `json:"deadline"    validate:"required"`
}

// UpdateTaskRequest defines the payload for editing a task. Omitted fields
// keep their current value. ID is only read by PUT /tasks; PUT /tasks/{id}
// takes it from the path. Field lengths are checked by the domain after the
// expired lock, so an EXPIRED task always answers 403.
type UpdateTaskRequest struct {
	ID          string     `json:"id,omitempty"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// DeleteTaskRequest defines the payload for DELETE /tasks.
type DeleteTaskRequest struct {
	ID string `json:"id" validate:"required,uuid"`
}

// TaskResponse is the public representation of a task.
type TaskResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Deadline    time.Time `json:"deadline"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StatsResponse holds the daily and monthly finished-task counts.
type StatsResponse struct {
	Daily   []domain.StatsBucket `json:"daily_stats"`
	Monthly []domain.StatsBucket `json:"monthly_stats"`
}

// ProfileResponse is the public representation of a user. The password hash
// is never included.
type ProfileResponse struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// UpdateProfileRequest defines the payload for PUT /user/profile. Empty
// fields keep their current value.
type UpdateProfileRequest struct {
	FirstName string `json:"first_name" validate:"omitempty,max=100"`
	LastName  string `json:"last_name"  validate:"omitempty,max=100"`
	Email     string `json:"email"      validate:"omitempty,email"`
	Username  string `json:"username"   validate:"omitempty,min=3,max=32"`
}

// ChangePasswordRequest defines the payload for POST /user/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=8,max=72"`
}

// SchedulerResponse reports the outcome of a manual sweep.
type SchedulerResponse struct {
	Message string `json:"message"`
	Expired int64  `json:"expired"`
}

func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Deadline:    t.Deadline.UTC(),
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

func tasksToResponse(tasks []*domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskToResponse(t))
	}
	return out
}

func userToProfileResponse(u *domain.User) ProfileResponse {
	return ProfileResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Username:  u.Username,
		CreatedAt: u.CreatedAt.UTC(),
	}
}
