package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fablecraft/backend/internal/domain/identity"
	"github.com/fablecraft/backend/internal/domain/shared"
	"github.com/fablecraft/backend/internal/infrastructure/auth"
	"github.com/fablecraft/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func createTestUser(t *testing.T) *identity.User {
	t.Helper()
	user, err := identity.NewUser("writer", "writer@example.com", "Password123")
	require.NoError(t, err)
	user.ClearDomainEvents()
	return user
}

func newJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-that-is-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-at-least-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "fablecraft-test",
		MaxRefreshCount:        10,
	})
}

func createAuthService(userRepo *MockUserRepository, revocations auth.RevocationStore) (*AuthService, *auth.JWTService) {
	jwtService := newJWTService()
	return NewAuthService(userRepo, jwtService, revocations, nil, DefaultAuthServiceConfig(), zap.NewNop()), jwtService
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	de, ok := shared.AsDomainError(err)
	require.True(t, ok, "expected domain error, got %v", err)
	return de.Code
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user and issues tokens", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		userRepo.On("ExistsByUsername", ctx, "newwriter").Return(false, nil)
		userRepo.On("ExistsByEmail", ctx, "new@example.com").Return(false, nil)
		userRepo.On("Create", ctx, mock.AnythingOfType("*identity.User")).Return(nil)
		svc, _ := createAuthService(userRepo, nil)

		result, err := svc.Register(ctx, RegisterInput{
			Username:    "NewWriter",
			Email:       "New@Example.com",
			Password:    "Password123",
			DisplayName: "New Writer",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, result.Tokens.AccessToken)
		assert.Equal(t, "newwriter", result.User.Username)
		assert.Equal(t, "New Writer", result.User.DisplayName)
		userRepo.AssertExpectations(t)
	})

	t.Run("username taken", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		userRepo.On("ExistsByUsername", ctx, "writer").Return(true, nil)
		svc, _ := createAuthService(userRepo, nil)

		_, err := svc.Register(ctx, RegisterInput{Username: "writer", Email: "a@example.com", Password: "Password123"})
		assert.Equal(t, "USERNAME_TAKEN", domainCode(t, err))
	})

	t.Run("email taken", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		userRepo.On("ExistsByUsername", ctx, "writer").Return(false, nil)
		userRepo.On("ExistsByEmail", ctx, "a@example.com").Return(true, nil)
		svc, _ := createAuthService(userRepo, nil)

		_, err := svc.Register(ctx, RegisterInput{Username: "writer", Email: "a@example.com", Password: "Password123"})
		assert.Equal(t, "EMAIL_TAKEN", domainCode(t, err))
	})

	t.Run("weak password", func(t *testing.T) {
		svc, _ := createAuthService(new(MockUserRepository), nil)
		_, err := svc.Register(ctx, RegisterInput{Username: "writer", Email: "a@example.com", Password: "short"})
		assert.Equal(t, "INVALID_PASSWORD", domainCode(t, err))
	})
}

func TestAuthService_Login_Success(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	user := createTestUser(t)
	user.FailedAttempts = 2

	userRepo.On("FindByUsername", ctx, "writer").Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)
	svc, jwtService := createAuthService(userRepo, nil)

	result, err := svc.Login(ctx, LoginInput{Username: "writer", Password: "Password123"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", result.Tokens.TokenType)
	assert.Equal(t, 0, user.FailedAttempts)
	assert.NotNil(t, user.LastLoginAt)

	claims, err := jwtService.ValidateAccessToken(result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	userRepo.AssertExpectations(t)
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	user := createTestUser(t)

	userRepo.On("FindByUsername", ctx, "writer").Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)
	svc, _ := createAuthService(userRepo, nil)

	_, err := svc.Login(ctx, LoginInput{Username: "writer", Password: "wrong-password1"})
	assert.Equal(t, "INVALID_CREDENTIALS", domainCode(t, err))
	assert.Equal(t, 1, user.FailedAttempts)
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	userRepo.On("FindByUsername", ctx, "ghost").Return(nil, shared.ErrNotFound)
	svc, _ := createAuthService(userRepo, nil)

	_, err := svc.Login(ctx, LoginInput{Username: "ghost", Password: "Password123"})
	assert.Equal(t, "INVALID_CREDENTIALS", domainCode(t, err))
}

func TestAuthService_Login_AccountLocksAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	user := createTestUser(t)

	userRepo.On("FindByUsername", ctx, "writer").Return(user, nil)
	userRepo.On("Update", ctx, user).Return(nil)
	svc, _ := createAuthService(userRepo, nil)

	for i := 0; i < 4; i++ {
		_, err := svc.Login(ctx, LoginInput{Username: "writer", Password: "wrong-password1"})
		assert.Equal(t, "INVALID_CREDENTIALS", domainCode(t, err))
	}
	_, err := svc.Login(ctx, LoginInput{Username: "writer", Password: "wrong-password1"})
	assert.Equal(t, "ACCOUNT_LOCKED", domainCode(t, err))
	assert.True(t, user.IsLocked())

	_, err = svc.Login(ctx, LoginInput{Username: "writer", Password: "Password123"})
	assert.Equal(t, "ACCOUNT_LOCKED", domainCode(t, err))
}

func TestAuthService_Login_DeactivatedAccount(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	user := createTestUser(t)
	require.NoError(t, user.Deactivate())

	userRepo.On("FindByUsername", ctx, "writer").Return(user, nil)
	svc, _ := createAuthService(userRepo, nil)

	_, err := svc.Login(ctx, LoginInput{Username: "writer", Password: "Password123"})
	assert.Equal(t, "ACCOUNT_DEACTIVATED", domainCode(t, err))
}

func TestAuthService_RefreshToken(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates the refresh token", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		user := createTestUser(t)
		userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
		revocations := auth.NewMemoryRevocationStore()
		svc, jwtService := createAuthService(userRepo, revocations)

		pair, err := jwtService.GenerateTokenPair(auth.Subject{UserID: user.ID, Username: user.Username})
		require.NoError(t, err)

		result, err := svc.RefreshToken(ctx, RefreshTokenInput{RefreshToken: pair.RefreshToken})
		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)

		_, err = svc.RefreshToken(ctx, RefreshTokenInput{RefreshToken: pair.RefreshToken})
		assert.Equal(t, "TOKEN_REVOKED", domainCode(t, err))
	})

	t.Run("invalid token", func(t *testing.T) {
		svc, _ := createAuthService(new(MockUserRepository), nil)
		_, err := svc.RefreshToken(ctx, RefreshTokenInput{RefreshToken: "not-a-token"})
		assert.Equal(t, "TOKEN_INVALID", domainCode(t, err))
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		svc, jwtService := createAuthService(new(MockUserRepository), nil)
		pair, err := jwtService.GenerateTokenPair(auth.Subject{UserID: uuid.New(), Username: "x"})
		require.NoError(t, err)

		_, err = svc.RefreshToken(ctx, RefreshTokenInput{RefreshToken: pair.AccessToken})
		assert.Equal(t, "TOKEN_INVALID", domainCode(t, err))
	})

	t.Run("user no longer exists", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		id := uuid.New()
		userRepo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)
		svc, jwtService := createAuthService(userRepo, nil)

		pair, err := jwtService.GenerateTokenPair(auth.Subject{UserID: id, Username: "gone"})
		require.NoError(t, err)

		_, err = svc.RefreshToken(ctx, RefreshTokenInput{RefreshToken: pair.RefreshToken})
		assert.Equal(t, "USER_NOT_FOUND", domainCode(t, err))
	})
}

func TestMapTokenError(t *testing.T) {
	assert.Equal(t, "TOKEN_EXPIRED", domainCode(t, mapTokenError(auth.ErrExpiredToken)))
	assert.Equal(t, "TOKEN_MAX_REFRESH", domainCode(t, mapTokenError(auth.ErrMaxRefreshExceeded)))
	assert.Equal(t, "TOKEN_INVALID", domainCode(t, mapTokenError(errors.New("boom"))))
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)
	user := createTestUser(t)
	userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
	svc, _ := createAuthService(userRepo, nil)

	info, err := svc.GetCurrentUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "writer", info.Username)
	assert.Equal(t, "writer", info.DisplayName)
	assert.Equal(t, "active", info.Status)
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes existing sessions", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		user := createTestUser(t)
		userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
		userRepo.On("Update", ctx, user).Return(nil)
		revocations := auth.NewMemoryRevocationStore()
		svc, _ := createAuthService(userRepo, revocations)

		issuedBefore := time.Now().Add(-time.Minute)
		require.NoError(t, svc.ChangePassword(ctx, ChangePasswordInput{
			UserID:      user.ID,
			OldPassword: "Password123",
			NewPassword: "NewPassword456",
		}))
		assert.True(t, user.VerifyPassword("NewPassword456"))

		revoked, err := revocations.IsUserRevoked(ctx, user.ID.String(), issuedBefore)
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("wrong old password", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		user := createTestUser(t)
		userRepo.On("FindByID", ctx, user.ID).Return(user, nil)
		svc, _ := createAuthService(userRepo, nil)

		err := svc.ChangePassword(ctx, ChangePasswordInput{UserID: user.ID, OldPassword: "nope-nope1", NewPassword: "NewPassword456"})
		assert.Equal(t, "INVALID_PASSWORD", domainCode(t, err))
		userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	revocations := auth.NewMemoryRevocationStore()
	svc, jwtService := createAuthService(new(MockUserRepository), revocations)
	userID := uuid.New()

	pair, err := jwtService.GenerateTokenPair(auth.Subject{UserID: userID, Username: "writer"})
	require.NoError(t, err)
	access, err := jwtService.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	refresh, err := jwtService.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, LogoutInput{
		UserID:         userID,
		AccessTokenJTI: access.ID,
		AccessTokenTTL: access.RemainingTTL(),
		RefreshToken:   pair.RefreshToken,
	}))

	revoked, err := revocations.IsTokenRevoked(ctx, access.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, err = revocations.IsTokenRevoked(ctx, refresh.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}
