package services

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
)

type BadgeRegistry struct {
	repo domain.BadgeRepository
}

func NewBadgeRegistry(repo domain.BadgeRepository) *BadgeRegistry {
	return &BadgeRegistry{repo: repo}
}

// Unlock grants the badge identified by code. It reports true only for the
// call that created the (user, badge) pair. Unknown codes are a no-op.
func (r *BadgeRegistry) Unlock(ctx context.Context, userID, code string) (bool, error) {
	badge, err := r.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrBadgeNotFound) {
			log.WithField("code", code).Warn("unlock requested for a badge missing from the catalog")
			return false, nil
		}
		return false, err
	}

	return r.repo.CreateUserBadge(ctx, userID, badge.ID)
}

func (r *BadgeRegistry) Catalog(ctx context.Context) ([]domain.Badge, error) {
	return r.repo.List(ctx)
}

func (r *BadgeRegistry) UserBadges(ctx context.Context, userID string) ([]domain.UserBadge, error) {
	return r.repo.ListUserBadges(ctx, userID)
}

// Seed upserts the given catalog, keyed by badge code.
func (r *BadgeRegistry) Seed(ctx context.Context, badges []domain.Badge) error {
	return r.repo.Upsert(ctx, badges)
}
