package services

import (
	"context"
	"fmt"
	"time"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
)

type GoalService struct {
	repo    domain.GoalRepository
	rewards *RewardBoundary
}

func NewGoalService(repo domain.GoalRepository, rewards *RewardBoundary) *GoalService {
	return &GoalService{
		repo:    repo,
		rewards: rewards,
	}
}

type CreateGoalInput struct {
	UserID      string
	Title       string
	Description string
	Category    string
	Priority    string
	Deadline    *time.Time
	Steps       []domain.StepDraft
}

// UpdateGoalInput replaces the goal fields. Steps == nil keeps the stored
// steps; a non-nil slice, even empty, replaces them.
type UpdateGoalInput struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Category    string
	Priority    string
	Deadline    *time.Time
	Steps       []domain.StepDraft
}

func (s *GoalService) Create(ctx context.Context, input CreateGoalInput) (*domain.Goal, *domain.Reward, error) {
	goal, err := domain.NewGoal(
		input.UserID,
		input.Title,
		input.Description,
		input.Category,
		input.Priority,
		input.Deadline,
		input.Steps,
	)
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.Create(ctx, goal); err != nil {
		return nil, nil, err
	}

	return goal, s.rewards.GoalCreated(ctx, input.UserID), nil
}

func (s *GoalService) List(ctx context.Context, userID string, filter domain.GoalFilter) ([]*domain.Goal, error) {
	if filter.Status != "" && !domain.IsValidGoalStatus(filter.Status) {
		return nil, domain.ErrInvalidGoalStatus
	}
	if filter.Priority != "" && !domain.IsValidPriority(filter.Priority) {
		return nil, domain.ErrInvalidPriority
	}

	return s.repo.List(ctx, userID, filter)
}

func (s *GoalService) Get(ctx context.Context, id, userID string) (*domain.Goal, error) {
	goal, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if goal.UserID != userID {
		return nil, domain.ErrGoalNotFound
	}

	return goal, nil
}

func (s *GoalService) Update(ctx context.Context, input UpdateGoalInput) (*domain.Goal, error) {
	goal, err := s.Get(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	err = goal.Update(
		mergeString(input.Title, goal.Title),
		input.Description,
		mergeString(input.Category, goal.Category),
		mergeString(input.Priority, goal.Priority),
		input.Deadline,
	)
	if err != nil {
		return nil, err
	}

	withSteps := input.Steps != nil
	if withSteps {
		if err := goal.ReplaceSteps(input.Steps); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, goal, withSteps); err != nil {
		return nil, err
	}

	return goal, nil
}

// Complete closes an active goal. The store transition is conditional, so
// concurrent requests complete the goal, and pay its xp, at most once.
func (s *GoalService) Complete(ctx context.Context, id, userID string) (*domain.Goal, *domain.Reward, error) {
	goal, err := s.transition(ctx, id, userID, (*domain.Goal).Complete)
	if err != nil {
		return nil, nil, err
	}

	return goal, s.rewards.GoalCompleted(ctx, userID), nil
}

func (s *GoalService) Abandon(ctx context.Context, id, userID string) (*domain.Goal, error) {
	return s.transition(ctx, id, userID, (*domain.Goal).Abandon)
}

func (s *GoalService) transition(ctx context.Context, id, userID string, apply func(*domain.Goal) error) (*domain.Goal, error) {
	goal, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if err := apply(goal); err != nil {
		return nil, err
	}

	if err := s.repo.TransitionStatus(ctx, id, goal.Status); err != nil {
		return nil, fmt.Errorf("goal %s -> %s: %w", id, goal.Status, err)
	}

	return goal, nil
}

func (s *GoalService) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}

	return s.repo.Delete(ctx, id)
}
