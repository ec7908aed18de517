package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
)

type PostgresBadgeRepository struct {
	db *sqlx.DB
}

func NewPostgresBadgeRepository(db *sqlx.DB) *PostgresBadgeRepository {
	return &PostgresBadgeRepository{db: db}
}

func (r *PostgresBadgeRepository) GetByCode(ctx context.Context, code string) (*domain.Badge, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var b domain.Badge
	err := r.db.GetContext(ctx, &b, `SELECT id, code, name, description, icon FROM badges WHERE code = $1`, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBadgeNotFound
		}
		return nil, domain.Persistence("get badge", err)
	}
	return &b, nil
}

func (r *PostgresBadgeRepository) List(ctx context.Context) ([]domain.Badge, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	badges := []domain.Badge{}
	if err := r.db.SelectContext(ctx, &badges, `SELECT id, code, name, description, icon FROM badges ORDER BY code`); err != nil {
		return nil, domain.Persistence("list badges", err)
	}
	return badges, nil
}

// Upsert keeps the id of an existing code so unlocked badges stay attached.
func (r *PostgresBadgeRepository) Upsert(ctx context.Context, badges []domain.Badge) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Persistence("begin upsert badges", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO badges (id, code, name, description, icon)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO UPDATE
		SET name = EXCLUDED.name, description = EXCLUDED.description, icon = EXCLUDED.icon`

	for _, b := range badges {
		id := b.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, query, id, b.Code, b.Name, b.Description, b.Icon); err != nil {
			return domain.Persistence("upsert badge "+b.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Persistence("commit upsert badges", err)
	}
	return nil
}

func (r *PostgresBadgeRepository) CreateUserBadge(ctx context.Context, userID, badgeID string) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO user_badges (user_id, badge_id, unlocked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, badge_id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, userID, badgeID, time.Now().UTC())
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, domain.ErrUserNotFound
		}
		return false, domain.Persistence("create user badge", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, domain.Persistence("create user badge", err)
	}
	return rows == 1, nil
}

func (r *PostgresBadgeRepository) ListUserBadges(ctx context.Context, userID string) ([]domain.UserBadge, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT ub.user_id, ub.badge_id, b.code, b.name, b.icon, ub.unlocked_at
		FROM user_badges ub
		JOIN badges b ON b.id = ub.badge_id
		WHERE ub.user_id = $1
		ORDER BY ub.unlocked_at`

	out := []domain.UserBadge{}
	if err := r.db.SelectContext(ctx, &out, query, userID); err != nil {
		return nil, domain.Persistence("list user badges", err)
	}
	return out, nil
}
