package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/api"
	"github.com/phrazzld/tasker-api/internal/api/middleware"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/mocks"
	"github.com/phrazzld/tasker-api/internal/service"
	"github.com/phrazzld/tasker-api/internal/service/auth"
	"github.com/phrazzld/tasker-api/internal/sweeper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow is the starting instant of every test clock.
var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testServer is the real router with real services over in-memory stores.
// The sqlmock database only sees transaction boundaries from UserService.
type testServer struct {
	handler http.Handler
	users   *mocks.MockUserStore
	tasks   *mocks.MockTaskStore
	dbMock  sqlmock.Sqlmock
	jwt     auth.JWTService
	clock   *testClock
}

func newTestServer(t *testing.T, cookie api.CookieConfig) *testServer {
	t.Helper()

	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, dbMock.ExpectationsWereMet())
		_ = db.Close()
	})

	clock := &testClock{now: fixedNow}
	users := mocks.NewMockUserStore()
	tasks := mocks.NewMockTaskStore()
	jwtService := auth.RequireTestJWTService(t)

	userSvc, err := service.NewUserService(users, db, &mocks.MockPasswordVerifier{}, jwtService, nil)
	require.NoError(t, err)
	taskSvc, err := service.NewTaskService(tasks, nil, service.WithClock(clock.Now))
	require.NoError(t, err)
	statsSvc, err := service.NewStatsService(tasks, nil)
	require.NoError(t, err)
	sw := sweeper.New(tasks, nil, sweeper.Config{}, nil, sweeper.WithClock(clock.Now))

	r := chi.NewRouter()
	r.Use(middleware.NewTraceMiddleware(nil))
	api.MountRoutes(r, api.Handlers{
		Auth:         api.NewAuthHandler(userSvc, cookie, nil),
		Tasks:        api.NewTaskHandler(taskSvc, statsSvc, testLogger()),
		Users:        api.NewUserHandler(userSvc, testLogger()),
		Scheduler:    api.NewSchedulerHandler(sw, nil),
		Authenticate: middleware.NewAuthMiddleware(jwtService, nil).Authenticate,
	})

	return &testServer{
		handler: r,
		users:   users,
		tasks:   tasks,
		dbMock:  dbMock,
		jwt:     jwtService,
		clock:   clock,
	}
}

// expectTx registers one BEGIN followed by COMMIT or ROLLBACK.
func (s *testServer) expectTx(commit bool) {
	s.dbMock.ExpectBegin()
	if commit {
		s.dbMock.ExpectCommit()
	} else {
		s.dbMock.ExpectRollback()
	}
}

// seedUser stores a user whose password is password and returns it with a
// valid session token.
func (s *testServer) seedUser(t *testing.T, username, password string) (*domain.User, string) {
	t.Helper()
	u, err := domain.NewUser("Test", "User", username+"@example.com", username, mocks.HashPrefix+password)
	require.NoError(t, err)
	s.users.Seed(u)

	token, err := s.jwt.GenerateToken(context.Background(), u.ID)
	require.NoError(t, err)
	return u, token
}

// seedTask stores a task for owner with the given status and deadline.
func (s *testServer) seedTask(t *testing.T, owner uuid.UUID, title string, status domain.TaskStatus, deadline time.Time) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(owner, title, "", deadline)
	require.NoError(t, err)
	task.Status = status
	s.tasks.Seed(task)
	return task
}

// do sends a request with an optional JSON body and session cookie.
func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: api.SessionCookieName, Value: token})
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[struct {
		Error string `json:"error"`
	}](t, rec).Error
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == api.SessionCookieName {
			return c
		}
	}
	return nil
}
