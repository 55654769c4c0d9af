package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appidentity "github.com/fablecraft/backend/internal/application/identity"
	"github.com/fablecraft/backend/internal/domain/identity"
	"github.com/fablecraft/backend/internal/domain/shared"
	"github.com/fablecraft/backend/internal/infrastructure/auth"
	"github.com/fablecraft/backend/internal/infrastructure/config"
	"github.com/fablecraft/backend/internal/interfaces/http/dto"
	"github.com/fablecraft/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testJWTConfig returns a default JWT config for tests
func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret-key-that-is-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-at-least-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "fablecraft-test",
		MaxRefreshCount:        10,
	}
}

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

type authFixture struct {
	router      *gin.Engine
	users       *MockUserRepository
	jwtService  *auth.JWTService
	revocations *auth.MemoryRevocationStore
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	middleware.SetupValidator()

	f := &authFixture{
		users:       new(MockUserRepository),
		jwtService:  auth.NewJWTService(testJWTConfig()),
		revocations: auth.NewMemoryRevocationStore(),
	}
	svc := appidentity.NewAuthService(f.users, f.jwtService, f.revocations, nil, appidentity.DefaultAuthServiceConfig(), zap.NewNop())
	h := NewAuthHandler(svc)

	jwtCfg := middleware.DefaultJWTConfig(f.jwtService)
	jwtCfg.Revocations = f.revocations

	f.router = gin.New()
	f.router.Use(middleware.JWTAuthMiddlewareWithConfig(jwtCfg))
	group := f.router.Group("/api/v1/auth")
	group.POST("/register", h.Register)
	group.POST("/login", h.Login)
	group.POST("/refresh", h.RefreshToken)
	group.POST("/logout", h.Logout)
	group.GET("/me", h.GetCurrentUser)
	group.PUT("/password", h.ChangePassword)
	return f
}

func (f *authFixture) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *authFixture) tokensFor(t *testing.T, user *identity.User) *auth.TokenPair {
	t.Helper()
	pair, err := f.jwtService.GenerateTokenPair(auth.Subject{UserID: user.ID, Username: user.Username})
	require.NoError(t, err)
	return pair
}

func createTestUserForHandler(t *testing.T) *identity.User {
	t.Helper()
	user, err := identity.NewUser("writer", "writer@example.com", "Password123")
	require.NoError(t, err)
	user.ClearDomainEvents()
	return user
}

func decodeLogin(t *testing.T, w *httptest.ResponseRecorder) LoginResponse {
	t.Helper()
	var resp struct {
		Success bool          `json:"success"`
		Data    LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.True(t, resp.Success)
	return resp.Data
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("ExistsByUsername", mock.Anything, "mara").Return(false, nil)
		f.users.On("ExistsByEmail", mock.Anything, "mara@example.com").Return(false, nil)
		f.users.On("Create", mock.Anything, mock.AnythingOfType("*identity.User")).Return(nil)

		w := f.do(http.MethodPost, "/api/v1/auth/register", RegisterRequest{
			Username:    "mara",
			Email:       "mara@example.com",
			Password:    "Password123",
			DisplayName: "Mara Vell",
		}, "")

		assert.Equal(t, http.StatusCreated, w.Code)
		data := decodeLogin(t, w)
		assert.NotEmpty(t, data.Token.AccessToken)
		assert.NotEmpty(t, data.Token.RefreshToken)
		assert.Equal(t, "Bearer", data.Token.TokenType)
		assert.Equal(t, "Mara Vell", data.User.DisplayName)
		f.users.AssertExpectations(t)
	})

	t.Run("validation failure lists fields", func(t *testing.T) {
		f := newAuthFixture(t)
		w := f.do(http.MethodPost, "/api/v1/auth/register", map[string]string{"username": "ma"}, "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		fields := map[string]bool{}
		for _, d := range resp.Error.Details {
			fields[d.Field] = true
		}
		assert.True(t, fields["username"])
		assert.True(t, fields["email"])
		assert.True(t, fields["password"])
	})

	t.Run("username taken", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("ExistsByUsername", mock.Anything, "mara").Return(true, nil)

		w := f.do(http.MethodPost, "/api/v1/auth/register", RegisterRequest{
			Username: "mara",
			Email:    "mara@example.com",
			Password: "Password123",
		}, "")

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeUsernameTaken, decode(t, w).Error.Code)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newAuthFixture(t)
		user := createTestUserForHandler(t)
		f.users.On("FindByUsername", mock.Anything, "writer").Return(user, nil)
		f.users.On("Update", mock.Anything, user).Return(nil)

		w := f.do(http.MethodPost, "/api/v1/auth/login", LoginRequest{Username: "writer", Password: "Password123"}, "")

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeLogin(t, w)
		assert.Equal(t, user.ID, data.User.ID)
		assert.NotNil(t, data.User.LastLoginAt)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture(t)
		user := createTestUserForHandler(t)
		f.users.On("FindByUsername", mock.Anything, "writer").Return(user, nil)
		f.users.On("Update", mock.Anything, user).Return(nil)

		w := f.do(http.MethodPost, "/api/v1/auth/login", LoginRequest{Username: "writer", Password: "wrong-password"}, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidCredentials, decode(t, w).Error.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("FindByUsername", mock.Anything, "ghost").Return(nil, shared.ErrNotFound)

		w := f.do(http.MethodPost, "/api/v1/auth/login", LoginRequest{Username: "ghost", Password: "Password123"}, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidCredentials, decode(t, w).Error.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		f := newAuthFixture(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	user := createTestUserForHandler(t)
	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	pair := f.tokensFor(t, user)

	w := f.do(http.MethodPost, "/api/v1/auth/refresh", RefreshTokenRequest{RefreshToken: pair.RefreshToken}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data RefreshTokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.Token.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, resp.Data.Token.RefreshToken)

	// the rotated refresh token cannot be replayed
	w = f.do(http.MethodPost, "/api/v1/auth/refresh", RefreshTokenRequest{RefreshToken: pair.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenRevoked, decode(t, w).Error.Code)

	// access tokens are not refresh tokens
	w = f.do(http.MethodPost, "/api/v1/auth/refresh", RefreshTokenRequest{RefreshToken: pair.AccessToken}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	f := newAuthFixture(t)
	user := createTestUserForHandler(t)
	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	pair := f.tokensFor(t, user)

	w := f.do(http.MethodGet, "/api/v1/auth/me", nil, pair.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data AuthUserResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "writer", resp.Data.Username)
	assert.Equal(t, "writer@example.com", resp.Data.Email)
	assert.Equal(t, string(identity.UserStatusActive), resp.Data.Status)

	w = f.do(http.MethodGet, "/api/v1/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	f := newAuthFixture(t)
	user := createTestUserForHandler(t)
	f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	pair := f.tokensFor(t, user)

	w := f.do(http.MethodPost, "/api/v1/auth/logout", LogoutRequest{RefreshToken: pair.RefreshToken}, pair.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(http.MethodGet, "/api/v1/auth/me", nil, pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenRevoked, decode(t, w).Error.Code)

	w = f.do(http.MethodPost, "/api/v1/auth/refresh", RefreshTokenRequest{RefreshToken: pair.RefreshToken}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newAuthFixture(t)
		user := createTestUserForHandler(t)
		f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		f.users.On("Update", mock.Anything, user).Return(nil)
		pair := f.tokensFor(t, user)

		w := f.do(http.MethodPut, "/api/v1/auth/password", ChangePasswordRequest{
			OldPassword: "Password123",
			NewPassword: "NewPassword456",
		}, pair.AccessToken)

		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.True(t, user.VerifyPassword("NewPassword456"))
	})

	t.Run("wrong old password", func(t *testing.T) {
		f := newAuthFixture(t)
		user := createTestUserForHandler(t)
		f.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
		pair := f.tokensFor(t, user)

		w := f.do(http.MethodPut, "/api/v1/auth/password", ChangePasswordRequest{
			OldPassword: "not-my-password",
			NewPassword: "NewPassword456",
		}, pair.AccessToken)

		assert.GreaterOrEqual(t, w.Code, 400)
		assert.Less(t, w.Code, 500)
		f.users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("short new password", func(t *testing.T) {
		f := newAuthFixture(t)
		user := createTestUserForHandler(t)
		pair := f.tokensFor(t, user)

		w := f.do(http.MethodPut, "/api/v1/auth/password", ChangePasswordRequest{
			OldPassword: "Password123",
			NewPassword: "short",
		}, pair.AccessToken)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decode(t, w).Error.Code)
	})
}
