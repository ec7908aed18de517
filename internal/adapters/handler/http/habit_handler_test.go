package http_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHabitHandler_Create(t *testing.T) {
	app := newTestApp(t)
	token := app.signup(t, "habits@example.com")

	t.Run("Success: Returns the habit with its reward", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/api/v1/habits", token, gin.H{"name": "Meditate", "frequency": "daily"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		body := decode[struct {
			ID        string      `json:"id"`
			Name      string      `json:"name"`
			Frequency string      `json:"frequency"`
			Reward    *rewardBody `json:"reward"`
		}](t, w)
		assert.NotEmpty(t, body.ID)
		assert.Equal(t, "Meditate", body.Name)
		require.NotNil(t, body.Reward)
		assert.Equal(t, "habit_created", body.Reward.Event)
		assert.Zero(t, body.Reward.XPAwarded)
	})

	t.Run("Success: Third active habit unlocks create_3_habits", func(t *testing.T) {
		app.do(t, http.MethodPost, "/api/v1/habits", token, gin.H{"name": "Read"})
		w := app.do(t, http.MethodPost, "/api/v1/habits", token, gin.H{"name": "Gym", "frequency": "weekly", "weekly_target": 3})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		body := decode[idWithReward](t, w)
		require.NotNil(t, body.Reward)
		assert.Equal(t, []string{"create_3_habits"}, body.Reward.BadgesUnlocked)
	})

	t.Run("Fail: Weekly habit without target", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/api/v1/habits", token, gin.H{"name": "Swim", "frequency": "weekly"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Fail: Missing name", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/api/v1/habits", token, gin.H{"frequency": "daily"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Fail: Malformed start date", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/api/v1/habits", token, gin.H{"name": "Swim", "start_date": "10/04/2024"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHabitHandler_ArchiveAndList(t *testing.T) {
	app := newTestApp(t)
	token := app.signup(t, "archive@example.com")

	created := decode[idWithReward](t, app.do(t, http.MethodPost, "/api/v1/habits", token, gin.H{"name": "Journal"}))
	app.do(t, http.MethodPost, "/api/v1/habits", token, gin.H{"name": "Stretch"})

	w := app.do(t, http.MethodPost, "/api/v1/habits/"+created.ID+"/archive", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[map[string]interface{}](t, w)["is_archived"].(bool))

	active := decode[[]map[string]interface{}](t, app.do(t, http.MethodGet, "/api/v1/habits", token, nil))
	assert.Len(t, active, 1)

	all := decode[[]map[string]interface{}](t, app.do(t, http.MethodGet, "/api/v1/habits?archived=true", token, nil))
	assert.Len(t, all, 2)

	w = app.do(t, http.MethodPut, "/api/v1/habits/"+created.ID, token, gin.H{"name": "Journal more"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(t, http.MethodPost, "/api/v1/habits/"+created.ID+"/logs", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHabitHandler_Logs(t *testing.T) {
	app := newTestApp(t)
	token := app.signup(t, "logs@example.com")

	habit := decode[idWithReward](t, app.do(t, http.MethodPost, "/api/v1/habits", token, gin.H{
		"name":       "Walk",
		"start_date": "2024-04-01",
	}))
	logsURL := "/api/v1/habits/" + habit.ID + "/logs"

	t.Run("Success: Logging today pays xp and reports the streak", func(t *testing.T) {
		w := app.do(t, http.MethodPost, logsURL, token, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		body := decode[struct {
			Date   string      `json:"date"`
			Reward *rewardBody `json:"reward"`
		}](t, w)
		assert.Contains(t, body.Date, "2024-04-10")
		require.NotNil(t, body.Reward)
		assert.Equal(t, 5, body.Reward.XPAwarded)
		require.NotNil(t, body.Reward.Streak)
		assert.Equal(t, 1, *body.Reward.Streak)
	})

	t.Run("Success: Back-filling extends the streak without a reward", func(t *testing.T) {
		w := app.do(t, http.MethodPost, logsURL, token, gin.H{"date": "2024-04-09", "notes": "late entry"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		body := decode[idWithReward](t, w)
		assert.NotEmpty(t, body.ID)
		assert.Nil(t, body.Reward)

		stats := decode[map[string]interface{}](t, app.do(t, http.MethodGet, "/api/v1/habits/"+habit.ID+"/stats", token, nil))
		assert.Equal(t, float64(2), stats["streak"])
	})

	t.Run("Fail: Date before the habit started", func(t *testing.T) {
		w := app.do(t, http.MethodPost, logsURL, token, gin.H{"date": "2024-03-31"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Fail: Same day twice", func(t *testing.T) {
		w := app.do(t, http.MethodPost, logsURL, token, gin.H{"date": "2024-04-09"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Fail: Future date", func(t *testing.T) {
		w := app.do(t, http.MethodPost, logsURL, token, gin.H{"date": "2024-04-11"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Fail: Unparseable date", func(t *testing.T) {
		w := app.do(t, http.MethodPost, logsURL, token, gin.H{"date": "yesterday"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Success: List within a range", func(t *testing.T) {
		all := decode[[]map[string]interface{}](t, app.do(t, http.MethodGet, logsURL, token, nil))
		assert.Len(t, all, 2)

		ranged := decode[[]map[string]interface{}](t, app.do(t, http.MethodGet, logsURL+"?start_date=2024-04-10&end_date=2024-04-10", token, nil))
		assert.Len(t, ranged, 1)

		w := app.do(t, http.MethodGet, logsURL+"?start_date=2024-04-10&end_date=2024-04-01", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Success: Delete a log, xp stays", func(t *testing.T) {
		w := app.do(t, http.MethodDelete, logsURL+"/2024-04-09", token, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = app.do(t, http.MethodDelete, logsURL+"/2024-04-09", token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		xp := decode[struct {
			XP int `json:"xp"`
		}](t, app.do(t, http.MethodGet, "/api/v1/xp/me", token, nil))
		assert.Equal(t, 5, xp.XP)
	})

	t.Run("Fail: Another user cannot see the habit", func(t *testing.T) {
		other := app.signup(t, "intruder@example.com")

		assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodGet, "/api/v1/habits/"+habit.ID, other, nil).Code)
		assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodPost, logsURL, other, nil).Code)
		assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodGet, logsURL, other, nil).Code)
	})
}
