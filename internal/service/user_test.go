package service

import (
	"context"
	"testing"
	"time"

	"github.com/clipstream/clipstream/internal/dto"
	apperrors "github.com/clipstream/clipstream/internal/errors"
	"github.com/clipstream/clipstream/internal/repository"
	"github.com/clipstream/clipstream/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestUserService(channels *fakeChannelStore) (*UserService, *AuthService, *fakeUserStore) {
	store := newFakeUserStore()
	tokens := NewTokenService(testJWTConfig())
	auth := NewAuthService(store, tokens)
	cache := NewChannelCache(redis.NewClient(redis.Config{Enabled: false}, nil))
	users := NewUserService(store, channels, auth, nil, cache)
	return users, auth, store
}

func TestCurrentUser(t *testing.T) {
	users, auth, store := newTestUserService(&fakeChannelStore{})
	registerTestUser(t, auth)

	stored, err := store.FindByUsername(context.Background(), "jamie")
	require.NoError(t, err)

	user, err := users.CurrentUser(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "jamie", user.Username)
	assert.Equal(t, "jamie@example.com", user.Email)
}

func TestCurrentUserNotFound(t *testing.T) {
	users, _, _ := newTestUserService(&fakeChannelStore{})

	_, err := users.CurrentUser(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestChangePassword(t *testing.T) {
	users, auth, store := newTestUserService(&fakeChannelStore{})
	registerTestUser(t, auth)

	stored, err := store.FindByUsername(context.Background(), "jamie")
	require.NoError(t, err)

	err = users.ChangePassword(context.Background(), stored.ID, &dto.ChangePasswordRequest{
		OldPassword:     "correct-horse-battery",
		NewPassword:     "new-password-123",
		ConfirmPassword: "new-password-123",
	})
	require.NoError(t, err)

	// Old password no longer works, new one does
	_, err = auth.Login(context.Background(), &dto.LoginRequest{Username: "jamie", Password: "correct-horse-battery"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = auth.Login(context.Background(), &dto.LoginRequest{Username: "jamie", Password: "new-password-123"})
	assert.NoError(t, err)
}

func TestChangePasswordRejections(t *testing.T) {
	users, auth, store := newTestUserService(&fakeChannelStore{})
	registerTestUser(t, auth)

	stored, err := store.FindByUsername(context.Background(), "jamie")
	require.NoError(t, err)

	tests := []struct {
		name string
		req  dto.ChangePasswordRequest
		want error
	}{
		{
			"confirmation mismatch",
			dto.ChangePasswordRequest{OldPassword: "correct-horse-battery", NewPassword: "new-password-123", ConfirmPassword: "different"},
			apperrors.ErrPasswordMismatch,
		},
		{
			"wrong current password",
			dto.ChangePasswordRequest{OldPassword: "not-the-password", NewPassword: "new-password-123", ConfirmPassword: "new-password-123"},
			apperrors.ErrIncorrectPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := users.ChangePassword(context.Background(), stored.ID, &tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpdateAccount(t *testing.T) {
	users, auth, store := newTestUserService(&fakeChannelStore{})
	registerTestUser(t, auth)

	stored, err := store.FindByUsername(context.Background(), "jamie")
	require.NoError(t, err)

	updated, err := users.UpdateAccount(context.Background(), stored.ID, &dto.UpdateAccountRequest{
		FullName: "Jamie R. Rivera",
		Email:    "Jamie.Rivera@Example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "Jamie R. Rivera", updated.FullName)
	assert.Equal(t, "jamie.rivera@example.com", updated.Email)
}

func TestUpdateAccountRejections(t *testing.T) {
	users, auth, store := newTestUserService(&fakeChannelStore{})
	registerTestUser(t, auth)

	_, err := auth.Register(context.Background(), &dto.RegisterUserRequest{
		FullName: "Someone Else",
		Username: "other",
		Email:    "other@example.com",
		Password: "another-password",
	}, "", "")
	require.NoError(t, err)

	stored, err := store.FindByUsername(context.Background(), "jamie")
	require.NoError(t, err)

	t.Run("empty update", func(t *testing.T) {
		_, err := users.UpdateAccount(context.Background(), stored.ID, &dto.UpdateAccountRequest{})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("email taken by another user", func(t *testing.T) {
		_, err := users.UpdateAccount(context.Background(), stored.ID, &dto.UpdateAccountRequest{Email: "other@example.com"})
		assert.ErrorIs(t, err, apperrors.ErrUserExists)
	})

	t.Run("keeping own email is allowed", func(t *testing.T) {
		_, err := users.UpdateAccount(context.Background(), stored.ID, &dto.UpdateAccountRequest{Email: "jamie@example.com"})
		assert.NoError(t, err)
	})
}

func TestGetChannelProfile(t *testing.T) {
	channelID := primitive.NewObjectID()
	channels := &fakeChannelStore{
		profile: &repository.ChannelProfile{
			ID:              channelID,
			Username:        "jamie",
			Email:           "jamie@example.com",
			FullName:        "Jamie Rivera",
			SubscriberCount: 42,
			SubscribedTo:    7,
			IsSubscribed:    true,
		},
	}
	users, _, _ := newTestUserService(channels)

	profile, err := users.GetChannelProfile(context.Background(), "  Jamie ", primitive.NewObjectID())
	require.NoError(t, err)

	assert.Equal(t, channelID.Hex(), profile.ID)
	assert.Equal(t, int64(42), profile.SubscriberCount)
	assert.Equal(t, int64(7), profile.SubscribedTo)
	assert.True(t, profile.IsSubscribed)
}

func TestGetChannelProfileNotFound(t *testing.T) {
	users, _, _ := newTestUserService(&fakeChannelStore{})

	_, err := users.GetChannelProfile(context.Background(), "ghost", primitive.NewObjectID())
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestGetChannelProfileEmptyUsername(t *testing.T) {
	users, _, _ := newTestUserService(&fakeChannelStore{})

	_, err := users.GetChannelProfile(context.Background(), "   ", primitive.NewObjectID())
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestGetWatchHistory(t *testing.T) {
	ownerID := primitive.NewObjectID()
	videoID := primitive.NewObjectID()
	channels := &fakeChannelStore{
		history: []repository.WatchHistoryItem{
			{
				ID:        videoID,
				VideoFile: "https://cdn.example.com/videos/v.mp4",
				Title:     "First upload",
				Duration:  12.5,
				Views:     3,
				CreatedAt: primitive.NewDateTimeFromTime(time.Now()),
				Owner: repository.WatchHistoryVideoOwner{
					ID:       ownerID,
					Username: "creator",
					FullName: "Creator One",
				},
			},
		},
	}
	users, _, _ := newTestUserService(channels)

	history, err := users.GetWatchHistory(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)
	require.Len(t, history, 1)

	assert.Equal(t, videoID.Hex(), history[0].ID)
	assert.Equal(t, "First upload", history[0].Title)
	assert.Equal(t, "creator", history[0].Owner.Username)
}
