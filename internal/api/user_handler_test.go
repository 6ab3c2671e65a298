package api_test

import (
	"net/http"
	"testing"

	"github.com/phrazzld/tasker-api/internal/api"
	"github.com/phrazzld/tasker-api/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProfile(t *testing.T) {
	s := newTestServer(t, api.CookieConfig{})
	user, token := s.seedUser(t, "ada", "correct horse")

	rec := s.do(t, http.MethodGet, "/user/profile", nil, token)

	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[api.ProfileResponse](t, rec)
	assert.Equal(t, user.ID, profile.ID)
	assert.Equal(t, "ada", profile.Username)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.NotContains(t, rec.Body.String(), mocks.HashPrefix)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestUpdateProfile(t *testing.T) {
	t.Run("partial update keeps other fields", func(t *testing.T) {
		s := newTestServer(t, api.CookieConfig{})
		_, token := s.seedUser(t, "ada", "correct horse")
		s.expectTx(true)

		rec := s.do(t, http.MethodPut, "/user/profile", api.UpdateProfileRequest{FirstName: "Augusta"}, token)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		profile := decode[api.ProfileResponse](t, rec)
		assert.Equal(t, "Augusta", profile.FirstName)
		assert.Equal(t, "User", profile.LastName)
		assert.Equal(t, "ada", profile.Username)
	})

	t.Run("taken email is a 400 conflict", func(t *testing.T) {
		s := newTestServer(t, api.CookieConfig{})
		_, token := s.seedUser(t, "ada", "correct horse")
		s.seedUser(t, "grace", "password-g")
		s.expectTx(false)

		rec := s.do(t, http.MethodPut, "/user/profile", api.UpdateProfileRequest{Email: "GRACE@example.com"}, token)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Email already exists", errorMessage(t, rec))
	})

	t.Run("keeping own username is not a conflict", func(t *testing.T) {
		s := newTestServer(t, api.CookieConfig{})
		_, token := s.seedUser(t, "ada", "correct horse")
		s.expectTx(true)

		rec := s.do(t, http.MethodPut, "/user/profile", api.UpdateProfileRequest{Username: "ada"}, token)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid email", func(t *testing.T) {
		s := newTestServer(t, api.CookieConfig{})
		_, token := s.seedUser(t, "ada", "correct horse")

		rec := s.do(t, http.MethodPut, "/user/profile", api.UpdateProfileRequest{Email: "nope"}, token)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestChangePassword(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s := newTestServer(t, api.CookieConfig{})
		_, token := s.seedUser(t, "ada", "correct horse")
		s.expectTx(true)

		rec := s.do(t, http.MethodPost, "/user/change-password", api.ChangePasswordRequest{
			CurrentPassword: "correct horse",
			NewPassword:     "battery staple",
		}, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = s.do(t, http.MethodPost, "/auth/login",
			api.LoginRequest{Username: "ada", Password: "battery staple"}, "")
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = s.do(t, http.MethodPost, "/auth/login",
			api.LoginRequest{Username: "ada", Password: "correct horse"}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong current password is a 400", func(t *testing.T) {
		s := newTestServer(t, api.CookieConfig{})
		_, token := s.seedUser(t, "ada", "correct horse")
		s.expectTx(false)

		rec := s.do(t, http.MethodPost, "/user/change-password", api.ChangePasswordRequest{
			CurrentPassword: "wrong",
			NewPassword:     "battery staple",
		}, token)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Current password is incorrect", errorMessage(t, rec))
	})

	t.Run("new password too short", func(t *testing.T) {
		s := newTestServer(t, api.CookieConfig{})
		_, token := s.seedUser(t, "ada", "correct horse")

		rec := s.do(t, http.MethodPost, "/user/change-password", api.ChangePasswordRequest{
			CurrentPassword: "correct horse",
			NewPassword:     "short",
		}, token)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid new_password: too short", errorMessage(t, rec))
	})
}
