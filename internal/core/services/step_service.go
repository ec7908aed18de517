package services

import (
	"context"
	"errors"
	"time"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
)

type StepService struct {
	goals   domain.GoalRepository
	steps   domain.StepRepository
	rewards *RewardBoundary
}

func NewStepService(goals domain.GoalRepository, steps domain.StepRepository, rewards *RewardBoundary) *StepService {
	return &StepService{
		goals:   goals,
		steps:   steps,
		rewards: rewards,
	}
}

type CreateStepInput struct {
	GoalID   string
	UserID   string
	Title    string
	Order    int
	Deadline *time.Time
}

type UpdateStepInput struct {
	ID       string
	UserID   string
	Title    string
	Order    *int
	Deadline *time.Time
}

func (s *StepService) ownedGoal(ctx context.Context, goalID, userID string) (*domain.Goal, error) {
	goal, err := s.goals.GetByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if goal.UserID != userID {
		return nil, domain.ErrGoalNotFound
	}
	return goal, nil
}

func (s *StepService) ownedStep(ctx context.Context, id, userID string) (*domain.Step, *domain.Goal, error) {
	step, err := s.steps.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	goal, err := s.ownedGoal(ctx, step.GoalID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrStepNotFound
		}
		return nil, nil, err
	}

	return step, goal, nil
}

func (s *StepService) Create(ctx context.Context, input CreateStepInput) (*domain.Step, error) {
	goal, err := s.ownedGoal(ctx, input.GoalID, input.UserID)
	if err != nil {
		return nil, err
	}
	if goal.IsClosed() {
		return nil, domain.ErrGoalClosed
	}

	step, err := domain.NewStep(goal.ID, input.Title, input.Order, input.Deadline)
	if err != nil {
		return nil, err
	}

	if err := s.steps.Create(ctx, step); err != nil {
		return nil, err
	}

	return step, nil
}

func (s *StepService) Update(ctx context.Context, input UpdateStepInput) (*domain.Step, error) {
	step, _, err := s.ownedStep(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Title != "" {
		updated, err := domain.NewStep(step.GoalID, input.Title, step.Order, nil)
		if err != nil {
			return nil, err
		}
		step.Title = updated.Title
	}
	if input.Order != nil {
		step.Order = *input.Order
	}
	if input.Deadline != nil {
		step.Deadline = input.Deadline
	}

	if err := s.steps.Update(ctx, step); err != nil {
		return nil, err
	}

	return step, nil
}

// Complete checks a step off. Completing an already completed step is a
// no-op that returns a nil reward, so xp is paid once per step.
func (s *StepService) Complete(ctx context.Context, id, userID string) (*domain.Step, *domain.Reward, error) {
	step, _, err := s.ownedStep(ctx, id, userID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	changed, err := s.steps.Complete(ctx, id, now)
	if err != nil {
		return nil, nil, err
	}

	step.MarkCompleted(now)
	if !changed {
		return step, nil, nil
	}

	return step, s.rewards.StepCompleted(ctx, userID), nil
}

func (s *StepService) Delete(ctx context.Context, id, userID string) error {
	if _, _, err := s.ownedStep(ctx, id, userID); err != nil {
		return err
	}

	return s.steps.Delete(ctx, id)
}
