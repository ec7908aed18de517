package services_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
)

func TestBadgeRegistry_Unlock(t *testing.T) {
	ctx := context.Background()

	t.Run("Success: First unlock creates, second is a no-op", func(t *testing.T) {
		f := newFixture(t)
		u := f.newUser(t, "badger@kanso.app")

		created, err := f.badges.Unlock(ctx, u.ID, domain.BadgeFirstGoal)
		require.NoError(t, err)
		assert.True(t, created)

		created, err = f.badges.Unlock(ctx, u.ID, domain.BadgeFirstGoal)
		require.NoError(t, err)
		assert.False(t, created)

		owned, err := f.badges.UserBadges(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, owned, 1)
		assert.Equal(t, domain.BadgeFirstGoal, owned[0].Code)
		assert.NotEmpty(t, owned[0].Name)
	})

	t.Run("Edge Case: Unknown code is ignored", func(t *testing.T) {
		f := newFixture(t)
		u := f.newUser(t, "unknown@kanso.app")

		created, err := f.badges.Unlock(ctx, u.ID, "does_not_exist")

		require.NoError(t, err)
		assert.False(t, created)
		owned, _ := f.badges.UserBadges(ctx, u.ID)
		assert.Empty(t, owned)
	})

	t.Run("Concurrency: N parallel unlocks create one row", func(t *testing.T) {
		f := newFixture(t)
		u := f.newUser(t, "race@kanso.app")

		const n = 64
		var wins int32
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				created, err := f.badges.Unlock(ctx, u.ID, domain.BadgeStreak7)
				if assert.NoError(t, err) && created {
					atomic.AddInt32(&wins, 1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins)
		owned, err := f.badges.UserBadges(ctx, u.ID)
		require.NoError(t, err)
		assert.Len(t, owned, 1)
	})
}

func TestBadgeRegistry_Catalog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	catalog, err := f.badges.Catalog(ctx)
	require.NoError(t, err)

	codes := make([]string, 0, len(catalog))
	for _, b := range catalog {
		assert.NotEmpty(t, b.ID)
		codes = append(codes, b.Code)
	}
	assert.ElementsMatch(t, []string{
		domain.BadgeFirstGoal,
		domain.BadgeComplete5Goals,
		domain.BadgeCreate3Habits,
		domain.BadgeStreak7,
		domain.BadgeStreak30,
	}, codes)

	t.Run("Idempotency: Re-seeding keeps ids", func(t *testing.T) {
		before := catalog[0].ID
		require.NoError(t, f.badges.Seed(ctx, domain.DefaultBadges()))

		again, err := f.badges.Catalog(ctx)
		require.NoError(t, err)
		assert.Len(t, again, len(catalog))
		assert.Equal(t, before, again[0].ID)
	})
}
