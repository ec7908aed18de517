package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/comitanigiacomo/kanso-levelup/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-levelup/internal/adapters/metrics"
	"github.com/comitanigiacomo/kanso-levelup/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
	"github.com/comitanigiacomo/kanso-levelup/internal/core/services"
)

const tokenTTL = time.Hour

var today = time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)

type testApp struct {
	router *gin.Engine
	store  *repository.InMemoryStore
	tokens *services.TokenService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	store := repository.NewInMemoryStore()
	calendar := services.Calendar{Now: func() time.Time { return today }, Location: time.UTC}
	observer := metrics.NewRewardMetrics()

	badges := services.NewBadgeRegistry(store.Badges())
	require.NoError(t, badges.Seed(ctx, domain.DefaultBadges()))

	ledger := services.NewXpLedger(store.Users(), nil)
	engine := services.NewEngine(ledger, badges, store.Stats(), store.HabitLogs(), store.Milestones(),
		services.WithCalendar(calendar),
		services.WithRewardObserver(observer),
	)
	rewards := services.NewRewardBoundary(engine, observer)

	tokens := services.NewTokenService("handler-test-secret", "kanso-levelup", tokenTTL, store.Users())

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler: adapterHTTP.NewAuthHandler(services.NewAuthService(store.Users()), tokens, tokenTTL),
		HabitHandler: adapterHTTP.NewHabitHandler(
			services.NewHabitService(store.Habits(), rewards, calendar),
			services.NewHabitLogService(store.Habits(), store.HabitLogs(), rewards, calendar),
		),
		GoalHandler: adapterHTTP.NewGoalHandler(
			services.NewGoalService(store.Goals(), rewards),
			services.NewStepService(store.Goals(), store.Steps(), rewards),
		),
		StatsHandler: adapterHTTP.NewStatsHandler(
			services.NewStatsService(store.Stats(), store.Users(), ledger.Levels()),
			services.NewHabitStatsService(store.Habits(), store.HabitLogs(), calendar),
			badges,
		),
		Tokens:    tokens,
		Metrics:   observer.Handler(),
		StartTime: time.Now(),
	})

	return &testApp{router: router, store: store, tokens: tokens}
}

// signup creates a user and returns a bearer token for it.
func (a *testApp) signup(t *testing.T, email string) string {
	t.Helper()

	w := a.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": email, "password": "password123"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))

	token, err := a.tokens.GenerateToken(user.ID)
	require.NoError(t, err)
	return token
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type rewardBody struct {
	Event          string   `json:"event"`
	XPAwarded      int      `json:"xp_awarded"`
	Level          int      `json:"level"`
	LeveledUp      bool     `json:"leveled_up"`
	BadgesUnlocked []string `json:"badges_unlocked"`
	Streak         *int     `json:"streak"`
	Warning        string   `json:"warning"`
}

type idWithReward struct {
	ID     string      `json:"id"`
	Status string      `json:"status"`
	Reward *rewardBody `json:"reward"`
}

func serve(a *testApp, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}
