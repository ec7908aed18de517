package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
)

type PostgresHabitRepository struct {
	db *sqlx.DB
}

func NewPostgresHabitRepository(db *sqlx.DB) *PostgresHabitRepository {
	return &PostgresHabitRepository{db: db}
}

const habitColumns = `id, user_id, name, description, frequency, weekly_target, is_archived, start_date, created_at, updated_at`

func (r *PostgresHabitRepository) Create(ctx context.Context, h *domain.Habit) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
        INSERT INTO habits (` + habitColumns + `)
        VALUES (:id, :user_id, :name, :description, :frequency, :weekly_target, :is_archived, :start_date, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, query, h); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrUserNotFound
		}
		return domain.Persistence("insert habit", err)
	}

	return nil
}

func (r *PostgresHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var h domain.Habit
	err := r.db.GetContext(ctx, &h, `SELECT `+habitColumns+` FROM habits WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrHabitNotFound
		}
		return nil, domain.Persistence("get habit", err)
	}

	return &h, nil
}

func (r *PostgresHabitRepository) ListByUserID(ctx context.Context, userID string, includeArchived bool) ([]*domain.Habit, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + habitColumns + ` FROM habits WHERE user_id = $1`
	if !includeArchived {
		query += ` AND NOT is_archived`
	}
	query += ` ORDER BY created_at DESC`

	habits := []*domain.Habit{}
	if err := r.db.SelectContext(ctx, &habits, query, userID); err != nil {
		return nil, domain.Persistence("list habits", err)
	}

	return habits, nil
}

func (r *PostgresHabitRepository) Update(ctx context.Context, h *domain.Habit) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
        UPDATE habits SET
            name = :name, description = :description, frequency = :frequency,
            weekly_target = :weekly_target, is_archived = :is_archived, updated_at = :updated_at
        WHERE id = :id`

	res, err := r.db.NamedExecContext(ctx, query, h)
	if err != nil {
		return domain.Persistence("update habit", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return domain.Persistence("update habit", err)
	}
	if rows == 0 {
		return domain.ErrHabitNotFound
	}

	return nil
}
