package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"talent-shortlist/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	router := NewRouter(nil, nil, logger.NewTestLogger(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "not_found", payload["error"])

	env := newTestEnv(t)
	rec = env.do(t, http.MethodPut, "/api/v1/shortlist", "{}")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthAndReady(t *testing.T) {
	var failing bool
	health := NewHealthHandlers(map[string]Pinger{
		"store": pingFunc(func(context.Context) error {
			if failing {
				return errors.New("connection refused")
			}
			return nil
		}),
	})
	router := NewRouter(nil, health, logger.NewTestLogger(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	failing = true
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestMetricsEndpoint(t *testing.T) {
	router := NewRouter(nil, nil, logger.NewTestLogger(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor("PARSE_ERROR"))
	assert.Equal(t, http.StatusConflict, statusFor("SHORTLIST_WRITE_CONFLICT"))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor("SHORTLIST_READ_FAILED"))
	assert.Equal(t, http.StatusInternalServerError, statusFor("INTERNAL_ERROR"))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "a b", sanitize(" a\nb ", 10))
	assert.Equal(t, "abc", sanitize("abcdef", 3))
}
