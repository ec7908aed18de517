package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
)

type PostgresMilestoneRepository struct {
	db *sqlx.DB
}

func NewPostgresMilestoneRepository(db *sqlx.DB) *PostgresMilestoneRepository {
	return &PostgresMilestoneRepository{db: db}
}

// ClaimStreakMilestone relies on the primary key: only the first insert for a
// (habit, milestone, run) triple affects a row.
func (r *PostgresMilestoneRepository) ClaimStreakMilestone(ctx context.Context, habitID string, milestone int, runStart time.Time) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO streak_milestones (habit_id, milestone, run_start)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, habitID, milestone, runStart.Format(domain.DayLayout))
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, domain.ErrHabitNotFound
		}
		return false, domain.Persistence("claim milestone", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, domain.Persistence("claim milestone", err)
	}
	return rows == 1, nil
}
