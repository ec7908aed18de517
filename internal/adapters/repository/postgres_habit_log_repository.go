package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
)

type PostgresHabitLogRepository struct {
	db *sqlx.DB
}

func NewPostgresHabitLogRepository(db *sqlx.DB) *PostgresHabitLogRepository {
	return &PostgresHabitLogRepository{db: db}
}

func (r *PostgresHabitLogRepository) Create(ctx context.Context, l *domain.HabitLog) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO habit_logs (id, habit_id, date, notes, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, l.ID, l.HabitID, l.Date.Format(domain.DayLayout), l.Notes, l.CreatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrAlreadyLogged
		case isForeignKeyViolation(err):
			return domain.ErrHabitNotFound
		}
		return domain.Persistence("insert habit log", err)
	}

	return nil
}

func (r *PostgresHabitLogRepository) ListByHabitID(ctx context.Context, habitID string, from, to *time.Time) ([]*domain.HabitLog, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT id, habit_id, date, notes, created_at FROM habit_logs WHERE habit_id = $1`
	args := []interface{}{habitID}

	if from != nil {
		args = append(args, from.Format(domain.DayLayout))
		query += fmt.Sprintf(` AND date >= $%d`, len(args))
	}
	if to != nil {
		args = append(args, to.Format(domain.DayLayout))
		query += fmt.Sprintf(` AND date <= $%d`, len(args))
	}
	query += ` ORDER BY date DESC`

	logs := []*domain.HabitLog{}
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, domain.Persistence("list habit logs", err)
	}

	for _, l := range logs {
		l.Date = domain.Day(l.Date, time.UTC)
	}

	return logs, nil
}

func (r *PostgresHabitLogRepository) DeleteByDate(ctx context.Context, habitID string, day time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM habit_logs WHERE habit_id = $1 AND date = $2`, habitID, day.Format(domain.DayLayout))
	if err != nil {
		return domain.Persistence("delete habit log", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return domain.Persistence("delete habit log", err)
	}
	if rows == 0 {
		return domain.ErrHabitLogNotFound
	}

	return nil
}
