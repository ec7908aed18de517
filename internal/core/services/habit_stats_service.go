package services

import (
	"context"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
)

type HabitStatsService struct {
	habits   domain.HabitRepository
	logs     domain.HabitLogRepository
	calendar Calendar
}

func NewHabitStatsService(habits domain.HabitRepository, logs domain.HabitLogRepository, calendar Calendar) *HabitStatsService {
	return &HabitStatsService{
		habits:   habits,
		logs:     logs,
		calendar: calendar,
	}
}

// HabitStats computes streak and completion rate of an active habit owned by
// userID. Archived and foreign habits are reported as not found.
func (s *HabitStatsService) HabitStats(ctx context.Context, habitID, userID string) (*domain.HabitStats, error) {
	habit, err := s.habits.GetByID(ctx, habitID)
	if err != nil {
		return nil, err
	}

	if habit.UserID != userID || habit.IsArchived {
		return nil, domain.ErrHabitNotFound
	}

	today := s.calendar.Today()
	logs, err := s.logs.ListByHabitID(ctx, habitID, nil, &today)
	if err != nil {
		return nil, err
	}

	stats, err := domain.ComputeHabitStats(habit.ID, logs, habit.StartDate, today)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}
