package services

import (
	"context"
	"time"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
)

type HabitService struct {
	repo     domain.HabitRepository
	rewards  *RewardBoundary
	calendar Calendar
}

func NewHabitService(repo domain.HabitRepository, rewards *RewardBoundary, calendar Calendar) *HabitService {
	return &HabitService{
		repo:     repo,
		rewards:  rewards,
		calendar: calendar,
	}
}

type CreateHabitInput struct {
	UserID       string
	Name         string
	Description  string
	Frequency    string
	WeeklyTarget *int
	StartDate    *time.Time
}

type UpdateHabitInput struct {
	ID           string
	UserID       string
	Name         string
	Description  string
	Frequency    string
	WeeklyTarget *int
}

func mergeString(newVal, oldVal string) string {
	if newVal == "" {
		return oldVal
	}
	return newVal
}

func (s *HabitService) Create(ctx context.Context, input CreateHabitInput) (*domain.Habit, *domain.Reward, error) {
	start := s.calendar.Today()
	if input.StartDate != nil {
		start = domain.Day(*input.StartDate, time.UTC)
	}

	habit, err := domain.NewHabit(input.UserID, input.Name, input.Description, input.Frequency, input.WeeklyTarget, start)
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.Create(ctx, habit); err != nil {
		return nil, nil, err
	}

	return habit, s.rewards.HabitCreated(ctx, input.UserID), nil
}

func (s *HabitService) ListByUserID(ctx context.Context, userID string, includeArchived bool) ([]*domain.Habit, error) {
	return s.repo.ListByUserID(ctx, userID, includeArchived)
}

// Get returns the habit only to its owner; any other caller sees ErrHabitNotFound.
func (s *HabitService) Get(ctx context.Context, id, userID string) (*domain.Habit, error) {
	habit, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if habit.UserID != userID {
		return nil, domain.ErrHabitNotFound
	}

	return habit, nil
}

func (s *HabitService) Update(ctx context.Context, input UpdateHabitInput) (*domain.Habit, error) {
	habit, err := s.Get(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	frequency := mergeString(input.Frequency, habit.Frequency)

	target := habit.WeeklyTarget
	if input.WeeklyTarget != nil {
		target = input.WeeklyTarget
	}

	err = habit.Update(
		mergeString(input.Name, habit.Name),
		mergeString(input.Description, habit.Description),
		frequency,
		target,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, err
	}

	return habit, nil
}

func (s *HabitService) Archive(ctx context.Context, id, userID string) (*domain.Habit, error) {
	habit, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if habit.IsArchived {
		return habit, nil
	}

	habit.Archive()
	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, err
	}

	return habit, nil
}
