package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/api/shared"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/service/auth"
	"github.com/phrazzld/tasker-api/internal/store"
)

// filterDateLayout is the format of the ?date= list filter.
const filterDateLayout = "2006-01-02"

// statusAll is the list filter value meaning "every status but EXPIRED".
const statusAll = "ALL"

// getPathUUID extracts a UUID from the URL path parameters.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", domain.ErrValidation, paramName)
	}
	return parseID(pathParam)
}

// parseID parses a task or user ID supplied by the client.
func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, domain.ErrInvalidID
	}
	return id, nil
}

// requireUserID returns the authenticated user's ID, writing a 401 when the
// auth middleware did not run or placed no user in the context.
func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			Warn("user ID not found or invalid in request context")
		HandleAPIError(w, r, auth.ErrMissingToken, "")
		return uuid.Nil, false
	}
	return userID, true
}

// handleUserIDAndPathUUID extracts both the user ID from context and a UUID
// from the path. It writes an error response if either extraction fails.
func handleUserIDAndPathUUID(w http.ResponseWriter, r *http.Request, paramName string) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	pathID, err := getPathUUID(r, paramName)
	if err != nil {
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			Debug("invalid path parameter", slog.String("param_name", paramName))
		HandleAPIError(w, r, err, "")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, pathID, true
}

// parseTaskFilter reads ?status=, ?date= and ?search= into a TaskFilter.
// An empty status or "ALL" lists everything except EXPIRED tasks.
func parseTaskFilter(r *http.Request) (store.TaskFilter, error) {
	q := r.URL.Query()
	var filter store.TaskFilter

	if raw := strings.ToUpper(strings.TrimSpace(q.Get("status"))); raw != "" && raw != statusAll {
		status := domain.TaskStatus(raw)
		if !status.IsValid() {
			return store.TaskFilter{}, fmt.Errorf("%w: %v", domain.ErrValidation, domain.ErrInvalidTaskStatus)
		}
		filter.Status = &status
	}

	if raw := strings.TrimSpace(q.Get("date")); raw != "" {
		day, err := time.Parse(filterDateLayout, raw)
		if err != nil {
			return store.TaskFilter{}, fmt.Errorf("%w: date must be formatted YYYY-MM-DD", domain.ErrValidation)
		}
		filter.Day = &day
	}

	filter.Search = strings.TrimSpace(q.Get("search"))
	return filter, nil
}

// toTaskUpdate converts the request into a domain update. Status strings
// are upper-cased; validity is left to the state machine.
func toTaskUpdate(req UpdateTaskRequest) domain.TaskUpdate {
	update := domain.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
	}
	if req.Status != nil {
		status := domain.TaskStatus(strings.ToUpper(strings.TrimSpace(*req.Status)))
		update.Status = &status
	}
	return update
}
