package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
)

const (
	goalColumns = `id, user_id, title, description, category, priority, status, deadline, created_at, updated_at`
	stepColumns = `id, goal_id, title, is_completed, completed_at, sort_order, deadline, created_at`
)

type PostgresGoalRepository struct {
	db *sqlx.DB
}

func NewPostgresGoalRepository(db *sqlx.DB) *PostgresGoalRepository {
	return &PostgresGoalRepository{db: db}
}

func insertSteps(ctx context.Context, tx *sqlx.Tx, steps []*domain.Step) error {
	query := `
		INSERT INTO steps (` + stepColumns + `)
		VALUES (:id, :goal_id, :title, :is_completed, :completed_at, :sort_order, :deadline, :created_at)`

	for _, s := range steps {
		if _, err := tx.NamedExecContext(ctx, query, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresGoalRepository) Create(ctx context.Context, g *domain.Goal) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Persistence("begin create goal", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO goals (` + goalColumns + `)
		VALUES (:id, :user_id, :title, :description, :category, :priority, :status, :deadline, :created_at, :updated_at)`

	if _, err := tx.NamedExecContext(ctx, query, g); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrUserNotFound
		}
		return domain.Persistence("insert goal", err)
	}

	if err := insertSteps(ctx, tx, g.Steps); err != nil {
		return domain.Persistence("insert steps", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Persistence("commit create goal", err)
	}
	return nil
}

func (r *PostgresGoalRepository) GetByID(ctx context.Context, id string) (*domain.Goal, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var g domain.Goal
	if err := r.db.GetContext(ctx, &g, `SELECT `+goalColumns+` FROM goals WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrGoalNotFound
		}
		return nil, domain.Persistence("get goal", err)
	}

	if err := r.attachSteps(ctx, []*domain.Goal{&g}); err != nil {
		return nil, err
	}
	return &g, nil
}

// attachSteps loads the steps of all goals with one query.
func (r *PostgresGoalRepository) attachSteps(ctx context.Context, goals []*domain.Goal) error {
	if len(goals) == 0 {
		return nil
	}

	ids := make([]string, 0, len(goals))
	byID := make(map[string]*domain.Goal, len(goals))
	for _, g := range goals {
		g.Steps = []*domain.Step{}
		ids = append(ids, g.ID)
		byID[g.ID] = g
	}

	query, args, err := sqlx.In(`SELECT `+stepColumns+` FROM steps WHERE goal_id IN (?) ORDER BY sort_order, created_at`, ids)
	if err != nil {
		return domain.Persistence("build steps query", err)
	}

	var steps []*domain.Step
	if err := r.db.SelectContext(ctx, &steps, r.db.Rebind(query), args...); err != nil {
		return domain.Persistence("list steps", err)
	}

	for _, s := range steps {
		if g, ok := byID[s.GoalID]; ok {
			g.Steps = append(g.Steps, s)
		}
	}
	return nil
}

func (r *PostgresGoalRepository) List(ctx context.Context, userID string, filter domain.GoalFilter) ([]*domain.Goal, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = $1`
	args := []interface{}{userID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		query += fmt.Sprintf(` AND priority = $%d`, len(args))
	}

	if filter.ByDeadline {
		query += ` ORDER BY deadline ASC NULLS LAST, created_at DESC`
	} else {
		query += ` ORDER BY created_at DESC`
	}

	goals := []*domain.Goal{}
	if err := r.db.SelectContext(ctx, &goals, query, args...); err != nil {
		return nil, domain.Persistence("list goals", err)
	}

	if err := r.attachSteps(ctx, goals); err != nil {
		return nil, err
	}
	return goals, nil
}

func (r *PostgresGoalRepository) Update(ctx context.Context, g *domain.Goal, withSteps bool) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Persistence("begin update goal", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE goals SET
			title = :title, description = :description, category = :category,
			priority = :priority, deadline = :deadline, updated_at = :updated_at
		WHERE id = :id`

	res, err := tx.NamedExecContext(ctx, query, g)
	if err != nil {
		return domain.Persistence("update goal", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return domain.Persistence("update goal", err)
	}
	if rows == 0 {
		return domain.ErrGoalNotFound
	}

	if withSteps {
		if _, err := tx.ExecContext(ctx, `DELETE FROM steps WHERE goal_id = $1`, g.ID); err != nil {
			return domain.Persistence("clear steps", err)
		}
		if err := insertSteps(ctx, tx, g.Steps); err != nil {
			return domain.Persistence("insert steps", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Persistence("commit update goal", err)
	}
	return nil
}

// TransitionStatus only touches active rows. When nothing changed it checks
// whether the goal exists to tell ErrGoalNotFound from ErrGoalClosed.
func (r *PostgresGoalRepository) TransitionStatus(ctx context.Context, id string, status string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		UPDATE goals
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'active'`

	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return domain.Persistence("transition goal", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return domain.Persistence("transition goal", err)
	}
	if rows == 1 {
		return nil
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM goals WHERE id = $1)`, id); err != nil {
		return domain.Persistence("check goal", err)
	}
	if !exists {
		return domain.ErrGoalNotFound
	}
	return domain.ErrGoalClosed
}

func (r *PostgresGoalRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = $1`, id)
	if err != nil {
		return domain.Persistence("delete goal", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return domain.Persistence("delete goal", err)
	}
	if rows == 0 {
		return domain.ErrGoalNotFound
	}
	return nil
}

type PostgresStepRepository struct {
	db *sqlx.DB
}

func NewPostgresStepRepository(db *sqlx.DB) *PostgresStepRepository {
	return &PostgresStepRepository{db: db}
}

func (r *PostgresStepRepository) Create(ctx context.Context, s *domain.Step) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO steps (` + stepColumns + `)
		VALUES (:id, :goal_id, :title, :is_completed, :completed_at, :sort_order, :deadline, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrGoalNotFound
		}
		return domain.Persistence("insert step", err)
	}
	return nil
}

func (r *PostgresStepRepository) GetByID(ctx context.Context, id string) (*domain.Step, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var s domain.Step
	if err := r.db.GetContext(ctx, &s, `SELECT `+stepColumns+` FROM steps WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrStepNotFound
		}
		return nil, domain.Persistence("get step", err)
	}
	return &s, nil
}

func (r *PostgresStepRepository) Update(ctx context.Context, s *domain.Step) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		UPDATE steps SET title = :title, sort_order = :sort_order, deadline = :deadline
		WHERE id = :id`

	res, err := r.db.NamedExecContext(ctx, query, s)
	if err != nil {
		return domain.Persistence("update step", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return domain.Persistence("update step", err)
	}
	if rows == 0 {
		return domain.ErrStepNotFound
	}
	return nil
}

func (r *PostgresStepRepository) Complete(ctx context.Context, id string, at time.Time) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE steps SET is_completed = TRUE, completed_at = $2 WHERE id = $1 AND NOT is_completed`,
		id, at.UTC())
	if err != nil {
		return false, domain.Persistence("complete step", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, domain.Persistence("complete step", err)
	}
	if rows == 1 {
		return true, nil
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM steps WHERE id = $1)`, id); err != nil {
		return false, domain.Persistence("check step", err)
	}
	if !exists {
		return false, domain.ErrStepNotFound
	}
	return false, nil
}

func (r *PostgresStepRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM steps WHERE id = $1`, id)
	if err != nil {
		return domain.Persistence("delete step", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return domain.Persistence("delete step", err)
	}
	if rows == 0 {
		return domain.ErrStepNotFound
	}
	return nil
}
