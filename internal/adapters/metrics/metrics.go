package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
	"github.com/comitanigiacomo/kanso-levelup/internal/core/services"
)

const namespace = "levelup"

var _ services.RewardObserver = (*RewardMetrics)(nil)

// RewardMetrics exports gamification outcomes. It owns its registry so that
// several instances can coexist in tests.
type RewardMetrics struct {
	registry *prometheus.Registry

	events   *prometheus.CounterVec
	xp       *prometheus.CounterVec
	badges   *prometheus.CounterVec
	levelUps prometheus.Counter
	failures *prometheus.CounterVec
}

func NewRewardMetrics() *RewardMetrics {
	m := &RewardMetrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reward_events_total",
			Help:      "Gamification events processed, by event.",
		}, []string{"event"}),
		xp: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "xp_awarded_total",
			Help:      "Experience points awarded, by event.",
		}, []string{"event"}),
		badges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "badges_unlocked_total",
			Help:      "Badges unlocked, by badge code.",
		}, []string{"badge"}),
		levelUps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "level_ups_total",
			Help:      "Levels gained across all users.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reward_failures_total",
			Help:      "Gamification side effects that could not be applied, by event.",
		}, []string{"event"}),
	}

	m.registry.MustRegister(
		m.events,
		m.xp,
		m.badges,
		m.levelUps,
		m.failures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *RewardMetrics) ObserveReward(r *domain.Reward) {
	if r == nil {
		return
	}

	m.events.WithLabelValues(r.Event).Inc()
	if r.XPAwarded > 0 {
		m.xp.WithLabelValues(r.Event).Add(float64(r.XPAwarded))
	}
	for _, code := range r.BadgesUnlocked {
		m.badges.WithLabelValues(code).Inc()
	}
	if r.LeveledUp && r.Level > r.LevelBefore {
		m.levelUps.Add(float64(r.Level - r.LevelBefore))
	}
}

func (m *RewardMetrics) ObserveFailure(event string) {
	m.failures.WithLabelValues(event).Inc()
}

// Registry exposes the underlying registry for additional collectors.
func (m *RewardMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *RewardMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
