package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phrazzld/tasker-api/internal/api/shared"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceMiddleware_StoresTraceIDAndLogger(t *testing.T) {
	base, buf := logger.GetTestLogger(t)

	var traceID string
	handler := NewTraceMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusNoContent)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/tasks", nil))

	require.Equal(t, http.StatusNoContent, recorder.Code)
	require.NotEmpty(t, traceID)

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	var found bool
	for _, e := range entries {
		if e["msg"] == "inside handler" {
			found = true
			assert.Equal(t, traceID, e["trace_id"])
		}
	}
	assert.True(t, found, "handler log entry carries the trace id")
}

func TestTraceMiddleware_DistinctPerRequest(t *testing.T) {
	var ids []string
	handler := NewTraceMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, shared.GetTraceID(r.Context()))
	}))

	for i := 0; i < 3; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	require.Len(t, ids, 3)
	assert.NotEqual(t, ids[0], ids[1])
	assert.NotEqual(t, ids[1], ids[2])
}

func TestTraceMiddleware_ErrorResponseLogsTraceIDOnce(t *testing.T) {
	base, buf := logger.GetTestLogger(t)

	handler := NewTraceMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed", errors.New("boom"))
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/tasks", nil))
	require.Equal(t, http.StatusInternalServerError, recorder.Code)

	var line string
	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.Contains(l, "API error response") {
			line = l
		}
	}
	require.NotEmpty(t, line)
	assert.Equal(t, 1, strings.Count(line, `"trace_id"`), line)
}
