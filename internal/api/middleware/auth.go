package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/api/shared"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/redact"
	"github.com/phrazzld/tasker-api/internal/service/auth"
)

// SessionCookieName is the cookie the login endpoint stores the token in.
const SessionCookieName = "token"

// AuthMiddleware verifies session tokens for protected routes.
type AuthMiddleware struct {
	jwtService auth.JWTService
	logger     *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(jwtService auth.JWTService, logger *slog.Logger) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{
		jwtService: jwtService,
		logger:     logger.With(slog.String("component", "auth_middleware")),
	}
}

// Authenticate reads the session token from the `token` cookie, falling
// back to an `Authorization: Bearer` header, and adds the user ID to the
// request context. Every failure is answered with 401 Unauthenticated.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContextOrDefault(r.Context(), m.logger)

		token, err := extractToken(r)
		if err != nil {
			log.Debug("request without session token", slog.String("path", r.URL.Path))
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthenticated")
			return
		}

		claims, err := m.jwtService.ValidateToken(r.Context(), token)
		if err != nil {
			if !auth.IsAuthenticationError(err) {
				log.Error("failed to validate token", slog.String("error", redact.Error(err)))
			}
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Unauthenticated", err,
				shared.WithElevatedLogLevel())
			return
		}
		if claims.UserID == uuid.Nil {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthenticated")
			return
		}

		ctx := shared.WithUserID(r.Context(), claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken prefers the session cookie, then a Bearer header.
func extractToken(r *http.Request) (string, error) {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return "", auth.ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.Join(auth.ErrMissingToken, errors.New("malformed authorization header"))
	}
	return strings.TrimSpace(parts[1]), nil
}

// GetUserID extracts the user ID from the request context.
// Returns the user ID and a boolean indicating if it was found.
func GetUserID(r *http.Request) (uuid.UUID, bool) {
	return shared.UserIDFromContext(r.Context())
}
