package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
)

func TestRewardMetrics_ObserveReward(t *testing.T) {
	m := NewRewardMetrics()

	m.ObserveReward(&domain.Reward{
		Event:          domain.EventHabitLogged,
		XPAwarded:      35,
		LevelBefore:    1,
		Level:          2,
		LeveledUp:      true,
		BadgesUnlocked: []string{domain.BadgeStreak7},
	})
	m.ObserveReward(&domain.Reward{Event: domain.EventHabitLogged, XPAwarded: 5, LevelBefore: 2, Level: 2})
	m.ObserveReward(&domain.Reward{Event: domain.EventGoalCreated})
	m.ObserveReward(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues(domain.EventHabitLogged)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues(domain.EventGoalCreated)))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.xp.WithLabelValues(domain.EventHabitLogged)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.badges.WithLabelValues(domain.BadgeStreak7)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.levelUps))
}

func TestRewardMetrics_ObserveFailure(t *testing.T) {
	m := NewRewardMetrics()

	m.ObserveFailure(domain.EventGoalCompleted)
	m.ObserveFailure(domain.EventGoalCompleted)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.failures.WithLabelValues(domain.EventGoalCompleted)))
}

func TestRewardMetrics_Handler(t *testing.T) {
	m := NewRewardMetrics()
	m.ObserveReward(&domain.Reward{Event: domain.EventStepCompleted, XPAwarded: 10, Level: 1})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `levelup_xp_awarded_total{event="step_completed"} 10`)
	assert.Contains(t, string(body), "go_goroutines")
}
