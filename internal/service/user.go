package service

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"github.com/clipstream/clipstream/internal/dto"
	apperrors "github.com/clipstream/clipstream/internal/errors"
	"github.com/clipstream/clipstream/internal/repository"
	"github.com/clipstream/clipstream/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// UserService covers profile reads and updates plus the aggregated channel
// queries. Credential changes delegate to the AuthService so password
// hashing happens in exactly one place.
type UserService struct {
	store    UserStore
	channels ChannelStore
	auth     *AuthService
	media    *MediaService
	cache    *ChannelCache
}

func NewUserService(store UserStore, channels ChannelStore, auth *AuthService, media *MediaService, cache *ChannelCache) *UserService {
	return &UserService{
		store:    store,
		channels: channels,
		auth:     auth,
		media:    media,
		cache:    cache,
	}
}

// CurrentUser returns the authenticated user's own profile
func (s *UserService) CurrentUser(ctx context.Context, id primitive.ObjectID) (*dto.UserResponse, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return toUserResponse(user), nil
}

// ChangePassword verifies the current password before hashing and storing
// the new one. This is the only place outside registration where a password
// hash is computed.
func (s *UserService) ChangePassword(ctx context.Context, id primitive.ObjectID, req *dto.ChangePasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return apperrors.ErrPasswordMismatch
	}

	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if !s.auth.VerifyPassword(user, req.OldPassword) {
		logger.GetLogger().Warn("Password change rejected: wrong current password",
			zap.String("user_id", id.Hex()),
		)
		return apperrors.ErrIncorrectPassword
	}

	passwordHash, err := s.auth.HashPassword(req.NewPassword)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.store.UpdatePassword(ctx, id, passwordHash); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.GetLogger().Info("Password changed",
		zap.String("user_id", id.Hex()),
	)
	return nil
}

// UpdateAccount updates fullName and/or email
func (s *UserService) UpdateAccount(ctx context.Context, id primitive.ObjectID, req *dto.UpdateAccountRequest) (*dto.UserResponse, error) {
	fields := bson.M{}
	if req.FullName != "" {
		fields["fullName"] = strings.TrimSpace(req.FullName)
	}
	if req.Email != "" {
		email := strings.ToLower(strings.TrimSpace(req.Email))

		existing, err := s.store.FindByUsernameOrEmail(ctx, "", email)
		if err == nil && existing.ID != id {
			return nil, apperrors.ErrUserExists
		}
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}

		fields["email"] = email
	}

	if len(fields) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	user, err := s.store.UpdateByID(ctx, id, fields)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.cache.Invalidate(ctx, user.Username)

	logger.GetLogger().Info("Account updated",
		zap.String("user_id", id.Hex()),
	)
	return toUserResponse(user), nil
}

// UpdateAvatar stores the replacement image and persists its URL
func (s *UserService) UpdateAvatar(ctx context.Context, id primitive.ObjectID, file *multipart.FileHeader) (*dto.UserResponse, error) {
	return s.updateImage(ctx, id, file, MediaPrefixAvatars, "avatar")
}

// UpdateCoverImage stores the replacement image and persists its URL
func (s *UserService) UpdateCoverImage(ctx context.Context, id primitive.ObjectID, file *multipart.FileHeader) (*dto.UserResponse, error) {
	return s.updateImage(ctx, id, file, MediaPrefixCovers, "coverImage")
}

func (s *UserService) updateImage(ctx context.Context, id primitive.ObjectID, file *multipart.FileHeader, prefix, field string) (*dto.UserResponse, error) {
	if file == nil {
		return nil, apperrors.ErrFileRequired
	}

	url, err := s.media.UploadImage(ctx, prefix, file)
	if err != nil {
		return nil, err
	}

	user, err := s.store.UpdateByID(ctx, id, bson.M{field: url})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.cache.Invalidate(ctx, user.Username)

	logger.GetLogger().Info("Profile image updated",
		zap.String("user_id", id.Hex()),
		zap.String("field", field),
	)
	return toUserResponse(user), nil
}

// GetChannelProfile serves the aggregated channel view, cache first
func (s *UserService) GetChannelProfile(ctx context.Context, username string, viewer primitive.ObjectID) (*dto.ChannelProfileResponse, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, apperrors.ErrInvalidInput
	}

	if cached, ok := s.cache.Get(ctx, username, viewer.Hex()); ok {
		return cached, nil
	}

	profile, err := s.channels.ChannelProfile(ctx, username, viewer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	response := toChannelProfileResponse(profile)
	s.cache.Set(ctx, username, viewer.Hex(), response)

	return response, nil
}

// GetWatchHistory returns the user's watched videos with resolved owners
func (s *UserService) GetWatchHistory(ctx context.Context, id primitive.ObjectID) ([]dto.WatchHistoryEntry, error) {
	items, err := s.channels.WatchHistory(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	entries := make([]dto.WatchHistoryEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, dto.WatchHistoryEntry{
			ID:          item.ID.Hex(),
			VideoFile:   item.VideoFile,
			Thumbnail:   item.Thumbnail,
			Title:       item.Title,
			Description: item.Description,
			Duration:    item.Duration,
			Views:       item.Views,
			CreatedAt:   item.CreatedAt.Time(),
			Owner: dto.WatchHistoryOwner{
				ID:       item.Owner.ID.Hex(),
				Username: item.Owner.Username,
				FullName: item.Owner.FullName,
				Avatar:   item.Owner.Avatar,
			},
		})
	}

	return entries, nil
}

func toChannelProfileResponse(profile *repository.ChannelProfile) *dto.ChannelProfileResponse {
	return &dto.ChannelProfileResponse{
		ID:              profile.ID.Hex(),
		Username:        profile.Username,
		Email:           profile.Email,
		FullName:        profile.FullName,
		Avatar:          profile.Avatar,
		CoverImage:      profile.CoverImage,
		SubscriberCount: profile.SubscriberCount,
		SubscribedTo:    profile.SubscribedTo,
		IsSubscribed:    profile.IsSubscribed,
	}
}
