package services

import (
	"context"
	"math"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
)

type StatsService struct {
	repo   domain.StatsRepository
	users  domain.UserRepository
	levels *domain.LevelTable
}

func NewStatsService(repo domain.StatsRepository, users domain.UserRepository, levels *domain.LevelTable) *StatsService {
	if levels == nil {
		levels = domain.DefaultLevelTable()
	}
	return &StatsService{
		repo:   repo,
		users:  users,
		levels: levels,
	}
}

func (s *StatsService) GlobalStats(ctx context.Context, userID string) (*domain.GlobalStats, error) {
	total, err := s.repo.CountGoals(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	completed, err := s.repo.CountGoals(ctx, userID, domain.GoalStatusCompleted)
	if err != nil {
		return nil, err
	}

	habits, err := s.repo.CountHabits(ctx, userID, false)
	if err != nil {
		return nil, err
	}

	logs, err := s.repo.CountHabitLogs(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &domain.GlobalStats{
		TotalGoals:     total,
		CompletedGoals: completed,
		HabitsTracked:  habits,
		HabitLogs:      logs,
	}
	if total > 0 {
		stats.GoalsCompletionRate = int(math.Round(float64(completed) / float64(total) * 100))
	}

	return stats, nil
}

func (s *StatsService) GoalStatsByCategory(ctx context.Context, userID string) ([]domain.GoalCategoryStat, error) {
	return s.repo.GoalStatsByCategory(ctx, userID)
}

func (s *StatsService) PerHabitStats(ctx context.Context, userID string) ([]domain.PerHabitStat, error) {
	return s.repo.PerHabitStats(ctx, userID)
}

func (s *StatsService) Dashboard(ctx context.Context, userID string) (*domain.Dashboard, error) {
	var d domain.Dashboard
	var err error

	if d.Goals.Total, err = s.repo.CountGoals(ctx, userID, ""); err != nil {
		return nil, err
	}
	if d.Goals.Completed, err = s.repo.CountGoals(ctx, userID, domain.GoalStatusCompleted); err != nil {
		return nil, err
	}
	if d.Goals.Active, err = s.repo.CountGoals(ctx, userID, domain.GoalStatusActive); err != nil {
		return nil, err
	}
	if d.Habits.Active, err = s.repo.CountHabits(ctx, userID, true); err != nil {
		return nil, err
	}
	if d.Habits.Logs, err = s.repo.CountHabitLogs(ctx, userID); err != nil {
		return nil, err
	}

	return &d, nil
}

// UserXP reports the level derived from the stored xp, not the cached column.
func (s *StatsService) UserXP(ctx context.Context, userID string) (*domain.UserXP, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	level := s.levels.LevelFor(user.XP)
	out := &domain.UserXP{
		XP:    user.XP,
		Level: level.Level,
		Title: level.Title,
	}
	if next, ok := s.levels.NextThreshold(level.Level); ok {
		out.NextLevelXP = &next
	}

	return out, nil
}
