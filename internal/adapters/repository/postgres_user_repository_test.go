package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
)

func TestPostgresUserRepository_Create(t *testing.T) {
	db := requireDB(t)
	repo := NewPostgresUserRepository(db)
	ctx := context.Background()

	t.Run("Success: Create and read back", func(t *testing.T) {
		user := seedUser(t, db)

		saved, err := repo.GetByEmail(ctx, strings.ToUpper(user.Email))
		require.NoError(t, err)
		assert.Equal(t, user.ID, saved.ID)
		assert.Equal(t, 0, saved.XP)
		assert.Equal(t, 1, saved.Level)
		assert.False(t, saved.CreatedAt.IsZero())

		byID, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, byID.Email)
	})

	t.Run("Error: Duplicate email", func(t *testing.T) {
		email := fmt.Sprintf("dup_%s@example.com", uuid.NewString())
		u1, _ := domain.NewUser(uuid.NewString(), email)
		u1.PasswordHash = "hash"
		require.NoError(t, repo.Create(ctx, u1))

		u2, _ := domain.NewUser(uuid.NewString(), email)
		u2.PasswordHash = "hash"
		err := repo.Create(ctx, u2)

		assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
	})

	t.Run("Error: Unknown user", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, domain.ErrUserNotFound)

		_, err = repo.GetByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestPostgresUserRepository_XP(t *testing.T) {
	db := requireDB(t)
	repo := NewPostgresUserRepository(db)
	ctx := context.Background()

	t.Run("Success: Increment returns new total and cached level", func(t *testing.T) {
		user := seedUser(t, db)

		xp, level, err := repo.IncrementXP(ctx, user.ID, 40)
		require.NoError(t, err)
		assert.Equal(t, 40, xp)
		assert.Equal(t, 1, level)
	})

	t.Run("Concurrency: No lost increments", func(t *testing.T) {
		user := seedUser(t, db)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, err := repo.IncrementXP(ctx, user.ID, 5)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		saved, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, 100, saved.XP)
	})

	t.Run("Conditional: SetLevel only applies to the expected xp", func(t *testing.T) {
		user := seedUser(t, db)
		_, _, err := repo.IncrementXP(ctx, user.ID, 120)
		require.NoError(t, err)

		stale, err := repo.SetLevel(ctx, user.ID, 2, 100)
		require.NoError(t, err)
		assert.False(t, stale)

		ok, err := repo.SetLevel(ctx, user.ID, 2, 120)
		require.NoError(t, err)
		assert.True(t, ok)

		states, err := repo.ListLevelStates(ctx)
		require.NoError(t, err)

		found := false
		for _, s := range states {
			if s.UserID == user.ID {
				found = true
				assert.Equal(t, 120, s.XP)
				assert.Equal(t, 2, s.Level)
			}
		}
		assert.True(t, found)
	})

	t.Run("Error: Increment unknown user", func(t *testing.T) {
		_, _, err := repo.IncrementXP(ctx, uuid.NewString(), 5)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}
