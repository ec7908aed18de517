package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
)

func TestPostgresBadgeRepository_Integration(t *testing.T) {
	db := requireDB(t)
	repo := NewPostgresBadgeRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, domain.DefaultBadges()))

	t.Run("Success: Upsert keeps ids stable", func(t *testing.T) {
		before, err := repo.GetByCode(ctx, domain.BadgeFirstGoal)
		require.NoError(t, err)

		renamed := *before
		renamed.ID = ""
		renamed.Name = "First Goal!"
		require.NoError(t, repo.Upsert(ctx, []domain.Badge{renamed}))

		after, err := repo.GetByCode(ctx, domain.BadgeFirstGoal)
		require.NoError(t, err)
		assert.Equal(t, before.ID, after.ID)
		assert.Equal(t, "First Goal!", after.Name)

		require.NoError(t, repo.Upsert(ctx, domain.DefaultBadges()))
	})

	t.Run("Error: Unknown code", func(t *testing.T) {
		_, err := repo.GetByCode(ctx, "does_not_exist")
		assert.ErrorIs(t, err, domain.ErrBadgeNotFound)
	})

	t.Run("Concurrency: User badge is created once", func(t *testing.T) {
		user := seedUser(t, db)
		badge, err := repo.GetByCode(ctx, domain.BadgeStreak7)
		require.NoError(t, err)

		var created int32
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := repo.CreateUserBadge(ctx, user.ID, badge.ID)
				assert.NoError(t, err)
				if ok {
					atomic.AddInt32(&created, 1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), created)

		owned, err := repo.ListUserBadges(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, owned, 1)
		assert.Equal(t, domain.BadgeStreak7, owned[0].Code)
	})
}

func TestPostgresMilestoneRepository_Integration(t *testing.T) {
	db := requireDB(t)
	repo := NewPostgresMilestoneRepository(db)
	ctx := context.Background()
	user := seedUser(t, db)
	habit := seedHabit(t, db, user.ID, "Meditate")

	runStart := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	ok, err := repo.ClaimStreakMilestone(ctx, habit.ID, 7, runStart)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ClaimStreakMilestone(ctx, habit.ID, 7, runStart)
	require.NoError(t, err)
	assert.False(t, ok, "same run must not be claimed twice")

	ok, err = repo.ClaimStreakMilestone(ctx, habit.ID, 7, runStart.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.True(t, ok, "a new run is a new claim")
}
