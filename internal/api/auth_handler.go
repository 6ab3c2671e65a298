package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/tasker-api/internal/api/shared"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/service"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	users  service.UserService
	cookie CookieConfig
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(users service.UserService, cookie CookieConfig, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		users:  users,
		cookie: cookie,
		logger: logger.With(slog.String("component", "auth_handler")),
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, AuthResponse{
		Message: "User registered successfully",
		UserID:  user.ID,
	})
}

// Login handles POST /auth/login. On success the session token is set as
// an HttpOnly cookie; on failure no cookie is written.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	session, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}

	setSessionCookie(w, h.cookie, session.Token)

	expiresAt := time.Now().UTC().Add(h.cookie.maxAge())
	logger.FromContextOrDefault(r.Context(), h.logger).
		Debug("session cookie issued", slog.String("user_id", session.User.ID.String()))

	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{
		Message:   "Login successful",
		UserID:    session.User.ID,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	})
}

// Logout handles POST /auth/logout by clearing the session cookie. Tokens
// are stateless, so there is nothing to revoke server side.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, h.cookie)
	shared.RespondWithMessage(w, r, http.StatusOK, "Logged out")
}
