package service

import (
	"context"
	"testing"
	"time"

	"github.com/clipstream/clipstream/config"
	"github.com/clipstream/clipstream/internal/dto"
	apperrors "github.com/clipstream/clipstream/internal/errors"
	"github.com/clipstream/clipstream/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	}
}

func newTestAuthService() (*AuthService, *fakeUserStore) {
	store := newFakeUserStore()
	tokens := NewTokenService(testJWTConfig())
	return NewAuthService(store, tokens), store
}

func registerTestUser(t *testing.T, auth *AuthService) *dto.UserResponse {
	t.Helper()

	user, err := auth.Register(context.Background(), &dto.RegisterUserRequest{
		FullName: "Jamie Rivera",
		Username: "jamie",
		Email:    "jamie@example.com",
		Password: "correct-horse-battery",
	}, "https://cdn.example.com/avatars/a.png", "")
	require.NoError(t, err)
	return user
}

func TestHashPasswordRoundTrip(t *testing.T) {
	auth, _ := newTestAuthService()

	hash, err := auth.HashPassword("s3cret-password")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-password", hash)

	user := &model.User{Password: hash}
	assert.True(t, auth.VerifyPassword(user, "s3cret-password"))
	assert.False(t, auth.VerifyPassword(user, "wrong-password"))
}

func TestHashPasswordIsSalted(t *testing.T) {
	auth, _ := newTestAuthService()

	first, err := auth.HashPassword("same-password")
	require.NoError(t, err)
	second, err := auth.HashPassword("same-password")
	require.NoError(t, err)

	// bcrypt salts each hash, so two hashes of the same input differ
	assert.NotEqual(t, first, second)
}

func TestRegister(t *testing.T) {
	auth, store := newTestAuthService()

	user, err := auth.Register(context.Background(), &dto.RegisterUserRequest{
		FullName: "Jamie Rivera",
		Username: "  Jamie  ",
		Email:    "Jamie@Example.COM",
		Password: "correct-horse-battery",
	}, "https://cdn.example.com/avatars/a.png", "https://cdn.example.com/covers/c.png")
	require.NoError(t, err)

	assert.Equal(t, "jamie", user.Username)
	assert.Equal(t, "jamie@example.com", user.Email)
	assert.Equal(t, "Jamie Rivera", user.FullName)
	assert.NotEmpty(t, user.ID)

	stored, err := store.FindByUsername(context.Background(), "jamie")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse-battery", stored.Password)
	assert.True(t, auth.VerifyPassword(stored, "correct-horse-battery"))
}

func TestRegisterDuplicate(t *testing.T) {
	auth, _ := newTestAuthService()
	registerTestUser(t, auth)

	tests := []struct {
		name     string
		username string
		email    string
	}{
		{"same username", "jamie", "other@example.com"},
		{"same email", "other", "jamie@example.com"},
		{"same username different case", "JAMIE", "third@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Register(context.Background(), &dto.RegisterUserRequest{
				FullName: "Someone Else",
				Username: tt.username,
				Email:    tt.email,
				Password: "another-password",
			}, "", "")
			assert.ErrorIs(t, err, apperrors.ErrUserExists)
		})
	}
}

func TestLogin(t *testing.T) {
	auth, store := newTestAuthService()
	registerTestUser(t, auth)

	response, err := auth.Login(context.Background(), &dto.LoginRequest{
		Username: "jamie",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, response.AccessToken)
	assert.NotEmpty(t, response.RefreshToken)
	assert.Equal(t, "jamie", response.User.Username)

	user, err := store.FindByUsername(context.Background(), "jamie")
	require.NoError(t, err)
	assert.Equal(t, response.RefreshToken, store.storedRefreshToken(user.ID))
}

func TestLoginByEmail(t *testing.T) {
	auth, _ := newTestAuthService()
	registerTestUser(t, auth)

	response, err := auth.Login(context.Background(), &dto.LoginRequest{
		Email:    "jamie@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	assert.Equal(t, "jamie", response.User.Username)
}

func TestLoginRejections(t *testing.T) {
	auth, _ := newTestAuthService()
	registerTestUser(t, auth)

	tests := []struct {
		name string
		req  dto.LoginRequest
		want error
	}{
		{"wrong password", dto.LoginRequest{Username: "jamie", Password: "nope"}, apperrors.ErrInvalidCredentials},
		{"unknown user", dto.LoginRequest{Username: "ghost", Password: "whatever"}, apperrors.ErrInvalidCredentials},
		{"no identifier", dto.LoginRequest{Password: "whatever"}, apperrors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Login(context.Background(), &tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSecondLoginInvalidatesFirstSession(t *testing.T) {
	auth, _ := newTestAuthService()
	registerTestUser(t, auth)

	first, err := auth.Login(context.Background(), &dto.LoginRequest{Username: "jamie", Password: "correct-horse-battery"})
	require.NoError(t, err)

	_, err = auth.Login(context.Background(), &dto.LoginRequest{Username: "jamie", Password: "correct-horse-battery"})
	require.NoError(t, err)

	// The first session's refresh token was overwritten by the second login
	_, err = auth.RotateTokenPair(context.Background(), first.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenReuse)
}

func TestRotateTokenPair(t *testing.T) {
	auth, store := newTestAuthService()
	registered := registerTestUser(t, auth)

	login, err := auth.Login(context.Background(), &dto.LoginRequest{Username: "jamie", Password: "correct-horse-battery"})
	require.NoError(t, err)

	rotated, err := auth.RotateTokenPair(context.Background(), login.RefreshToken)
	require.NoError(t, err)

	assert.NotEmpty(t, rotated.AccessToken)
	assert.NotEmpty(t, rotated.RefreshToken)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	user, err := store.FindByUsername(context.Background(), registered.Username)
	require.NoError(t, err)
	assert.Equal(t, rotated.RefreshToken, store.storedRefreshToken(user.ID))

	// The new token rotates again; the chain stays usable
	_, err = auth.RotateTokenPair(context.Background(), rotated.RefreshToken)
	require.NoError(t, err)
}

func TestRotateTokenPairReuseDetected(t *testing.T) {
	auth, _ := newTestAuthService()
	registerTestUser(t, auth)

	login, err := auth.Login(context.Background(), &dto.LoginRequest{Username: "jamie", Password: "correct-horse-battery"})
	require.NoError(t, err)

	_, err = auth.RotateTokenPair(context.Background(), login.RefreshToken)
	require.NoError(t, err)

	// Each refresh token survives exactly one rotation
	_, err = auth.RotateTokenPair(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenReuse)
}

func TestRotateTokenPairRejections(t *testing.T) {
	auth, _ := newTestAuthService()
	registerTestUser(t, auth)

	t.Run("empty token", func(t *testing.T) {
		_, err := auth.RotateTokenPair(context.Background(), "")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := auth.RotateTokenPair(context.Background(), "not-a-jwt-at-all")
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		otherCfg := testJWTConfig()
		otherCfg.RefreshSecret = "some-other-secret"
		otherTokens := NewTokenService(otherCfg)

		user := &model.User{ID: primitive.NewObjectID(), Username: "jamie"}
		forged, err := otherTokens.GenerateRefreshToken(user)
		require.NoError(t, err)

		_, err = auth.RotateTokenPair(context.Background(), forged)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		expiredCfg := testJWTConfig()
		expiredCfg.RefreshTTL = -time.Minute
		expiredTokens := NewTokenService(expiredCfg)

		user := &model.User{ID: primitive.NewObjectID(), Username: "jamie"}
		expired, err := expiredTokens.GenerateRefreshToken(user)
		require.NoError(t, err)

		_, err = auth.RotateTokenPair(context.Background(), expired)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("user no longer exists", func(t *testing.T) {
		tokens := NewTokenService(testJWTConfig())
		ghost := &model.User{ID: primitive.NewObjectID(), Username: "ghost"}
		orphaned, err := tokens.GenerateRefreshToken(ghost)
		require.NoError(t, err)

		_, err = auth.RotateTokenPair(context.Background(), orphaned)
		assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})
}

func TestInvalidateSessionThenRotate(t *testing.T) {
	auth, store := newTestAuthService()
	registerTestUser(t, auth)

	login, err := auth.Login(context.Background(), &dto.LoginRequest{Username: "jamie", Password: "correct-horse-battery"})
	require.NoError(t, err)

	user, err := store.FindByUsername(context.Background(), "jamie")
	require.NoError(t, err)

	require.NoError(t, auth.InvalidateSession(context.Background(), user.ID))
	assert.Empty(t, store.storedRefreshToken(user.ID))

	// A logged-out user's old token is invalid, not reused
	_, err = auth.RotateTokenPair(context.Background(), login.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestInvalidateSessionIsIdempotent(t *testing.T) {
	auth, store := newTestAuthService()
	registerTestUser(t, auth)

	user, err := store.FindByUsername(context.Background(), "jamie")
	require.NoError(t, err)

	require.NoError(t, auth.InvalidateSession(context.Background(), user.ID))
	require.NoError(t, auth.InvalidateSession(context.Background(), user.ID))
}
