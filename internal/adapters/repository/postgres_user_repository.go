package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
)

type PostgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) *PostgresUserRepository {
	return &PostgresUserRepository{
		db: db,
	}
}

const userColumns = `id, email, password_hash, xp, level, created_at, updated_at`

func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO users (id, email, password_hash, xp, level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.XP,
		user.Level,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return domain.Persistence("create user", err)
	}

	return nil
}

func (r *PostgresUserRepository) get(ctx context.Context, op, where string, arg string) (*domain.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var user domain.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE `+where+` = $1`, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.Persistence(op, err)
	}

	return &user, nil
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.get(ctx, "get user by email", "email", strings.ToLower(strings.TrimSpace(email)))
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.get(ctx, "get user by id", "id", id)
}

// IncrementXP is a single UPDATE, so concurrent increments never lose updates.
func (r *PostgresUserRepository) IncrementXP(ctx context.Context, userID string, amount int) (int, int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		UPDATE users
		SET xp = xp + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING xp, level
	`

	var xp, level int
	if err := r.db.QueryRowxContext(ctx, query, userID, amount).Scan(&xp, &level); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, domain.ErrUserNotFound
		}
		return 0, 0, domain.Persistence("increment xp", err)
	}

	return xp, level, nil
}

func (r *PostgresUserRepository) SetLevel(ctx context.Context, userID string, level, expectedXP int) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE users SET level = $2 WHERE id = $1 AND xp = $3`, userID, level, expectedXP)
	if err != nil {
		return false, domain.Persistence("set level", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, domain.Persistence("set level", err)
	}

	return n == 1, nil
}

func (r *PostgresUserRepository) ListLevelStates(ctx context.Context) ([]domain.LevelState, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var states []domain.LevelState
	if err := r.db.SelectContext(ctx, &states, `SELECT id, xp, level FROM users ORDER BY id`); err != nil {
		return nil, domain.Persistence("list level states", err)
	}
	return states, nil
}
