package services

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
)

const rewardWarning = "rewards could not be fully applied"

// RewardBoundary calls the engine after the triggering action has been
// committed. Nothing that happens inside the engine, panics included, reaches
// the caller as an error. A nil boundary or engine disables rewards.
type RewardBoundary struct {
	engine   GamificationEngine
	observer RewardObserver
}

func NewRewardBoundary(engine GamificationEngine, observer RewardObserver) *RewardBoundary {
	return &RewardBoundary{
		engine:   engine,
		observer: observer,
	}
}

func (b *RewardBoundary) fire(ctx context.Context, event, userID string, call func(GamificationEngine) (*domain.Reward, error)) (reward *domain.Reward) {
	if b == nil || b.engine == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			reward = b.degrade(nil, &domain.AuxiliaryFailure{
				Event:  event,
				UserID: userID,
				Err:    fmt.Errorf("panic: %v", r),
			}, event)
		}
	}()

	res, err := call(b.engine)
	if err != nil {
		return b.degrade(res, err, event)
	}
	return res
}

func (b *RewardBoundary) degrade(res *domain.Reward, err error, event string) *domain.Reward {
	log.WithError(err).WithField("event", event).Error("gamification failed, action kept")

	if b.observer != nil {
		b.observer.ObserveFailure(event)
	}

	if res == nil {
		res = domain.NewReward(event)
	}
	res.Warning = rewardWarning
	return res
}

func (b *RewardBoundary) GoalCreated(ctx context.Context, userID string) *domain.Reward {
	return b.fire(ctx, domain.EventGoalCreated, userID, func(e GamificationEngine) (*domain.Reward, error) {
		return e.OnGoalCreated(ctx, userID)
	})
}

func (b *RewardBoundary) GoalCompleted(ctx context.Context, userID string) *domain.Reward {
	return b.fire(ctx, domain.EventGoalCompleted, userID, func(e GamificationEngine) (*domain.Reward, error) {
		return e.OnGoalCompleted(ctx, userID)
	})
}

func (b *RewardBoundary) HabitCreated(ctx context.Context, userID string) *domain.Reward {
	return b.fire(ctx, domain.EventHabitCreated, userID, func(e GamificationEngine) (*domain.Reward, error) {
		return e.OnHabitCreated(ctx, userID)
	})
}

func (b *RewardBoundary) HabitLogged(ctx context.Context, userID, habitID string) *domain.Reward {
	return b.fire(ctx, domain.EventHabitLogged, userID, func(e GamificationEngine) (*domain.Reward, error) {
		return e.OnHabitLogged(ctx, userID, habitID)
	})
}

func (b *RewardBoundary) StepCompleted(ctx context.Context, userID string) *domain.Reward {
	return b.fire(ctx, domain.EventStepCompleted, userID, func(e GamificationEngine) (*domain.Reward, error) {
		return e.OnStepCompleted(ctx, userID)
	})
}
