package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
)

type PostgresStatsRepository struct {
	db *sqlx.DB
}

func NewPostgresStatsRepository(db *sqlx.DB) *PostgresStatsRepository {
	return &PostgresStatsRepository{db: db}
}

func (r *PostgresStatsRepository) count(ctx context.Context, op, query string, args ...interface{}) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, domain.Persistence(op, err)
	}
	return n, nil
}

func (r *PostgresStatsRepository) CountGoals(ctx context.Context, userID string, status string) (int, error) {
	if status == "" {
		return r.count(ctx, "count goals", `SELECT COUNT(*) FROM goals WHERE user_id = $1`, userID)
	}
	return r.count(ctx, "count goals", `SELECT COUNT(*) FROM goals WHERE user_id = $1 AND status = $2`, userID, status)
}

func (r *PostgresStatsRepository) CountHabits(ctx context.Context, userID string, activeOnly bool) (int, error) {
	if activeOnly {
		return r.count(ctx, "count habits", `SELECT COUNT(*) FROM habits WHERE user_id = $1 AND NOT is_archived`, userID)
	}
	return r.count(ctx, "count habits", `SELECT COUNT(*) FROM habits WHERE user_id = $1`, userID)
}

func (r *PostgresStatsRepository) CountHabitLogs(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM habit_logs l
		JOIN habits h ON h.id = l.habit_id
		WHERE h.user_id = $1`
	return r.count(ctx, "count habit logs", query, userID)
}

func (r *PostgresStatsRepository) GoalStatsByCategory(ctx context.Context, userID string) ([]domain.GoalCategoryStat, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT category, status, COUNT(*) AS count
		FROM goals
		WHERE user_id = $1
		GROUP BY category, status
		ORDER BY category, status`

	out := []domain.GoalCategoryStat{}
	if err := r.db.SelectContext(ctx, &out, query, userID); err != nil {
		return nil, domain.Persistence("goal stats by category", err)
	}
	return out, nil
}

func (r *PostgresStatsRepository) PerHabitStats(ctx context.Context, userID string) ([]domain.PerHabitStat, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT h.id AS habit_id, h.name, h.frequency, COUNT(l.id) AS total_logs
		FROM habits h
		LEFT JOIN habit_logs l ON l.habit_id = h.id
		WHERE h.user_id = $1 AND NOT h.is_archived
		GROUP BY h.id, h.name, h.frequency
		ORDER BY h.name`

	out := []domain.PerHabitStat{}
	if err := r.db.SelectContext(ctx, &out, query, userID); err != nil {
		return nil, domain.Persistence("per habit stats", err)
	}
	return out, nil
}
