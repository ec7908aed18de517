package services

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
)

// XpLedger is the only writer of users.xp and users.level.
type XpLedger struct {
	users  domain.UserRepository
	levels *domain.LevelTable
}

func NewXpLedger(users domain.UserRepository, levels *domain.LevelTable) *XpLedger {
	if levels == nil {
		levels = domain.DefaultLevelTable()
	}
	return &XpLedger{
		users:  users,
		levels: levels,
	}
}

func (l *XpLedger) Levels() *domain.LevelTable {
	return l.levels
}

// AddXp increments the user's xp and refreshes the cached level. The level
// write is conditional on the xp it was computed from, so a slower caller
// cannot overwrite the level of a newer total.
func (l *XpLedger) AddXp(ctx context.Context, userID string, amount int) (*domain.XPChange, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: xp amount must be positive, got %d", domain.ErrInvalidInput, amount)
	}

	xp, cachedLevel, err := l.users.IncrementXP(ctx, userID, amount)
	if err != nil {
		return nil, err
	}

	previousXP := xp - amount
	change := &domain.XPChange{
		UserID:        userID,
		Amount:        amount,
		PreviousXP:    previousXP,
		XP:            xp,
		PreviousLevel: l.levels.LevelFor(previousXP).Level,
		Level:         l.levels.LevelFor(xp).Level,
	}

	if change.Level != cachedLevel {
		written, err := l.users.SetLevel(ctx, userID, change.Level, xp)
		if err != nil {
			return nil, err
		}
		if !written {
			log.WithFields(log.Fields{
				"user_id": userID,
				"xp":      xp,
			}).Debug("level write superseded by a newer xp total")
		}
	}

	return change, nil
}

// Reconcile rewrites every cached level that disagrees with its xp and
// returns how many users were fixed.
func (l *XpLedger) Reconcile(ctx context.Context) (int, error) {
	states, err := l.users.ListLevelStates(ctx)
	if err != nil {
		return 0, err
	}

	fixed := 0
	for _, st := range states {
		want := l.levels.LevelFor(st.XP).Level
		if want == st.Level {
			continue
		}

		written, err := l.users.SetLevel(ctx, st.UserID, want, st.XP)
		if err != nil {
			return fixed, err
		}
		if written {
			fixed++
			log.WithFields(log.Fields{
				"user_id": st.UserID,
				"from":    st.Level,
				"to":      want,
			}).Info("level reconciled")
		}
	}

	return fixed, nil
}
