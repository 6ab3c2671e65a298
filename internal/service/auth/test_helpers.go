package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/config"
	"github.com/stretchr/testify/require"
)

// DefaultJWTConfig returns a standard configuration for JWT authentication suitable for testing.
func DefaultJWTConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:          "test-jwt-secret-that-is-32-chars-long",
		TokenLifetimeHours: 168,
		BCryptCost:         4,
	}
}

// RequireTestJWTService creates a test JWT service and uses require to handle errors.
func RequireTestJWTService(t *testing.T) JWTService {
	t.Helper()
	service, err := NewJWTService(DefaultJWTConfig())
	require.NoError(t, err, "Failed to create test JWT service")
	return service
}

// NewTestJWTService creates a service with an injectable clock.
func NewTestJWTService(t *testing.T, lifetime time.Duration, now func() time.Time) JWTService {
	t.Helper()
	svc, err := newHMACJWTService(DefaultJWTConfig().JWTSecret, lifetime, now)
	require.NoError(t, err)
	return svc
}

// GenerateTokenForTestingT creates a valid session token for userID and
// fails the test if token generation fails.
func GenerateTokenForTestingT(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := RequireTestJWTService(t).GenerateToken(context.Background(), userID)
	require.NoError(t, err, "Failed to generate token")
	return token
}
