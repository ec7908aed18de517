package services

import (
	"context"
	"time"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
)

type HabitLogService struct {
	habits   domain.HabitRepository
	logs     domain.HabitLogRepository
	rewards  *RewardBoundary
	calendar Calendar
}

func NewHabitLogService(habits domain.HabitRepository, logs domain.HabitLogRepository, rewards *RewardBoundary, calendar Calendar) *HabitLogService {
	return &HabitLogService{
		habits:   habits,
		logs:     logs,
		rewards:  rewards,
		calendar: calendar,
	}
}

type LogHabitInput struct {
	HabitID string
	UserID  string
	// Date defaults to today. Past days since the habit's start may be
	// back-filled; only a log for today earns a reward.
	Date  *time.Time
	Notes string
}

func (s *HabitLogService) ownedHabit(ctx context.Context, habitID, userID string) (*domain.Habit, error) {
	habit, err := s.habits.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, domain.ErrHabitNotFound
	}
	return habit, nil
}

func (s *HabitLogService) Log(ctx context.Context, input LogHabitInput) (*domain.HabitLog, *domain.Reward, error) {
	habit, err := s.ownedHabit(ctx, input.HabitID, input.UserID)
	if err != nil {
		return nil, nil, err
	}

	if habit.IsArchived {
		return nil, nil, domain.ErrHabitArchived
	}

	today := s.calendar.Today()
	day := today
	if input.Date != nil {
		day = domain.Day(*input.Date, time.UTC)
	}
	if day.After(today) {
		return nil, nil, domain.ErrFutureLog
	}
	if day.Before(domain.Day(habit.StartDate, time.UTC)) {
		return nil, nil, domain.ErrLogBeforeStart
	}

	entry, err := domain.NewHabitLog(habit.ID, day, input.Notes)
	if err != nil {
		return nil, nil, err
	}

	if err := s.logs.Create(ctx, entry); err != nil {
		return nil, nil, err
	}

	if !day.Equal(today) {
		return entry, nil, nil
	}

	return entry, s.rewards.HabitLogged(ctx, input.UserID, habit.ID), nil
}

// List returns the habit's logs newest first, optionally bounded by civil days.
func (s *HabitLogService) List(ctx context.Context, habitID, userID string, from, to *time.Time) ([]*domain.HabitLog, error) {
	if _, err := s.ownedHabit(ctx, habitID, userID); err != nil {
		return nil, err
	}

	if from != nil && to != nil && from.After(*to) {
		return nil, domain.ErrInvalidDate
	}

	return s.logs.ListByHabitID(ctx, habitID, from, to)
}

// Delete removes the log of day. XP already awarded for it is kept.
func (s *HabitLogService) Delete(ctx context.Context, habitID, userID string, day time.Time) error {
	if _, err := s.ownedHabit(ctx, habitID, userID); err != nil {
		return err
	}

	return s.logs.DeleteByDate(ctx, habitID, domain.Day(day, time.UTC))
}
