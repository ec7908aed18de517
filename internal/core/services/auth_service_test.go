package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-levelup/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
	"github.com/comitanigiacomo/kanso-levelup/internal/core/services"
)

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	t.Run("Success: Should register a valid user at level 1", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		service := services.NewAuthService(mockRepo)
		ctx := context.Background()

		input := services.RegisterInput{
			Email:    "test_success@kanso.app",
			Password: "StrongPassword123!",
		}

		mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

		user, err := service.Register(ctx, input)

		require.NoError(t, err)
		assert.Equal(t, input.Email, user.Email)
		assert.NotEmpty(t, user.ID)
		assert.NotEmpty(t, user.PasswordHash)
		assert.Equal(t, 0, user.XP)
		assert.Equal(t, 1, user.Level)

		mockRepo.AssertExpectations(t)
	})

	t.Run("Fail: Should return error for invalid email", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		service := services.NewAuthService(mockRepo)

		user, err := service.Register(context.Background(), services.RegisterInput{Email: "not-an-email", Password: "password123"})

		assert.ErrorIs(t, err, domain.ErrInvalidEmail)
		assert.Nil(t, user)
		mockRepo.AssertNotCalled(t, "Create")
	})

	t.Run("Fail: Should return error for short password", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		service := services.NewAuthService(mockRepo)

		user, err := service.Register(context.Background(), services.RegisterInput{Email: "short@kanso.app", Password: "123"})

		assert.ErrorIs(t, err, domain.ErrPasswordTooShort)
		assert.Nil(t, user)
		mockRepo.AssertNotCalled(t, "Create")
	})

	t.Run("Fail: Should propagate duplicate email", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		service := services.NewAuthService(mockRepo)
		ctx := context.Background()

		mockRepo.On("Create", ctx, mock.Anything).Return(domain.ErrEmailAlreadyExists)

		_, err := service.Register(ctx, services.RegisterInput{Email: "dup@kanso.app", Password: "password123"})

		assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryStore()
	service := services.NewAuthService(store.Users())

	registered, err := service.Register(ctx, services.RegisterInput{Email: "Login@Kanso.app", Password: "correct-horse"})
	require.NoError(t, err)

	t.Run("Success: Email is case-insensitive", func(t *testing.T) {
		user, err := service.Login(ctx, services.LoginInput{Email: " login@kanso.APP ", Password: "correct-horse"})

		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
	})

	t.Run("Fail: Wrong password", func(t *testing.T) {
		_, err := service.Login(ctx, services.LoginInput{Email: "login@kanso.app", Password: "battery-staple"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("Fail: Unknown email has the same error", func(t *testing.T) {
		_, err := service.Login(ctx, services.LoginInput{Email: "nobody@kanso.app", Password: "correct-horse"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("Fail: Store failure is not masked", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("GetByEmail", ctx, "x@kanso.app").Return(nil, domain.Persistence("get user", errors.New("down")))

		_, err := services.NewAuthService(mockRepo).Login(ctx, services.LoginInput{Email: "x@kanso.app", Password: "whatever1"})

		assert.ErrorIs(t, err, domain.ErrPersistence)
		assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}
