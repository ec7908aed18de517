package http_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_Health(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/health", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]interface{}](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.NotContains(t, body, "database")
	assert.NotContains(t, body, "redis")
}

func TestRouter_Metrics(t *testing.T) {
	app := newTestApp(t)
	token := app.signup(t, "metrics@example.com")
	app.do(t, http.MethodPost, "/api/v1/goals", token, map[string]string{"title": "Observe"})

	w := app.do(t, http.MethodGet, "/metrics", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `levelup_reward_events_total{event="goal_created"} 1`)
}

func TestRouter_ProtectedRoutes(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/api/v1/habits", "/api/v1/goals", "/api/v1/dashboard", "/api/v1/xp/me"} {
		w := app.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := app.do(t, http.MethodGet, "/api/v1/xp/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	app := newTestApp(t)

	req, _ := http.NewRequest(http.MethodOptions, "/api/v1/habits", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")

	w := serve(app, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
