package services

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
)

const (
	XPStepCompleted = 10
	XPHabitLogged   = 5
	XPGoalCompleted = 50
	XPStreak7       = 30
	XPStreak30      = 100

	CompletedGoalsForBadge = 5
	ActiveHabitsForBadge   = 3
)

type streakMilestone struct {
	days  int
	xp    int
	badge string
}

var streakMilestones = []streakMilestone{
	{days: 7, xp: XPStreak7, badge: domain.BadgeStreak7},
	{days: 30, xp: XPStreak30, badge: domain.BadgeStreak30},
}

// GamificationEngine turns domain events into xp, levels and badges. Every
// hook returns the reward earned so far; on failure the error is an
// *domain.AuxiliaryFailure and the reward is partial.
type GamificationEngine interface {
	OnGoalCreated(ctx context.Context, userID string) (*domain.Reward, error)
	OnGoalCompleted(ctx context.Context, userID string) (*domain.Reward, error)
	OnHabitCreated(ctx context.Context, userID string) (*domain.Reward, error)
	OnHabitLogged(ctx context.Context, userID, habitID string) (*domain.Reward, error)
	OnStepCompleted(ctx context.Context, userID string) (*domain.Reward, error)
}

// RewardObserver is notified of applied rewards and of gamification failures.
type RewardObserver interface {
	ObserveReward(reward *domain.Reward)
	ObserveFailure(event string)
}

type Engine struct {
	ledger     *XpLedger
	badges     *BadgeRegistry
	counts     domain.StatsRepository
	logs       domain.HabitLogRepository
	milestones domain.MilestoneRepository
	calendar   Calendar
	observer   RewardObserver
}

type EngineOption func(*Engine)

func WithCalendar(c Calendar) EngineOption {
	return func(e *Engine) {
		e.calendar = c
	}
}

func WithRewardObserver(o RewardObserver) EngineOption {
	return func(e *Engine) {
		e.observer = o
	}
}

func NewEngine(
	ledger *XpLedger,
	badges *BadgeRegistry,
	counts domain.StatsRepository,
	logs domain.HabitLogRepository,
	milestones domain.MilestoneRepository,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		ledger:     ledger,
		badges:     badges,
		counts:     counts,
		logs:       logs,
		milestones: milestones,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) fail(reward *domain.Reward, userID string, err error) (*domain.Reward, error) {
	return reward, &domain.AuxiliaryFailure{Event: reward.Event, UserID: userID, Err: err}
}

func (e *Engine) done(reward *domain.Reward) (*domain.Reward, error) {
	if e.observer != nil {
		e.observer.ObserveReward(reward)
	}
	return reward, nil
}

func (e *Engine) addXP(ctx context.Context, reward *domain.Reward, userID string, amount int) error {
	change, err := e.ledger.AddXp(ctx, userID, amount)
	if err != nil {
		return err
	}
	reward.AddXP(change)

	if change.LeveledUp() {
		log.WithFields(log.Fields{
			"user_id": userID,
			"from":    change.PreviousLevel,
			"to":      change.Level,
		}).Info("user leveled up")
	}
	return nil
}

func (e *Engine) unlock(ctx context.Context, reward *domain.Reward, userID, code string) error {
	unlocked, err := e.badges.Unlock(ctx, userID, code)
	if err != nil {
		return err
	}
	if unlocked {
		reward.AddBadge(code)
	}
	return nil
}

func (e *Engine) OnGoalCreated(ctx context.Context, userID string) (*domain.Reward, error) {
	reward := domain.NewReward(domain.EventGoalCreated)

	total, err := e.counts.CountGoals(ctx, userID, "")
	if err != nil {
		return e.fail(reward, userID, err)
	}

	if total == 1 {
		if err := e.unlock(ctx, reward, userID, domain.BadgeFirstGoal); err != nil {
			return e.fail(reward, userID, err)
		}
	}

	return e.done(reward)
}

func (e *Engine) OnGoalCompleted(ctx context.Context, userID string) (*domain.Reward, error) {
	reward := domain.NewReward(domain.EventGoalCompleted)

	if err := e.addXP(ctx, reward, userID, XPGoalCompleted); err != nil {
		return e.fail(reward, userID, err)
	}

	completed, err := e.counts.CountGoals(ctx, userID, domain.GoalStatusCompleted)
	if err != nil {
		return e.fail(reward, userID, err)
	}

	if completed >= CompletedGoalsForBadge {
		if err := e.unlock(ctx, reward, userID, domain.BadgeComplete5Goals); err != nil {
			return e.fail(reward, userID, err)
		}
	}

	return e.done(reward)
}

func (e *Engine) OnHabitCreated(ctx context.Context, userID string) (*domain.Reward, error) {
	reward := domain.NewReward(domain.EventHabitCreated)

	active, err := e.counts.CountHabits(ctx, userID, true)
	if err != nil {
		return e.fail(reward, userID, err)
	}

	if active >= ActiveHabitsForBadge {
		if err := e.unlock(ctx, reward, userID, domain.BadgeCreate3Habits); err != nil {
			return e.fail(reward, userID, err)
		}
	}

	return e.done(reward)
}

// OnHabitLogged awards the log xp, then recomputes the streak from the
// stored history. Reaching exactly 7 or 30 days pays the milestone bonus
// once per streak run.
func (e *Engine) OnHabitLogged(ctx context.Context, userID, habitID string) (*domain.Reward, error) {
	reward := domain.NewReward(domain.EventHabitLogged)

	if err := e.addXP(ctx, reward, userID, XPHabitLogged); err != nil {
		return e.fail(reward, userID, err)
	}

	today := e.calendar.Today()
	logs, err := e.logs.ListByHabitID(ctx, habitID, nil, &today)
	if err != nil {
		return e.fail(reward, userID, err)
	}

	streak, err := domain.CurrentStreak(logs, today)
	if err != nil {
		return e.fail(reward, userID, err)
	}
	reward.Streak = &streak

	for _, m := range streakMilestones {
		if streak != m.days {
			continue
		}

		runStart := today.AddDate(0, 0, -(streak - 1))
		claimed, err := e.milestones.ClaimStreakMilestone(ctx, habitID, m.days, runStart)
		if err != nil {
			return e.fail(reward, userID, err)
		}
		if !claimed {
			continue
		}

		if err := e.addXP(ctx, reward, userID, m.xp); err != nil {
			return e.fail(reward, userID, err)
		}
		if err := e.unlock(ctx, reward, userID, m.badge); err != nil {
			return e.fail(reward, userID, err)
		}
	}

	return e.done(reward)
}

func (e *Engine) OnStepCompleted(ctx context.Context, userID string) (*domain.Reward, error) {
	reward := domain.NewReward(domain.EventStepCompleted)

	if err := e.addXP(ctx, reward, userID, XPStepCompleted); err != nil {
		return e.fail(reward, userID, err)
	}

	return e.done(reward)
}
