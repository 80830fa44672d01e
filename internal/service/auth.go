package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/clipstream/clipstream/internal/dto"
	apperrors "github.com/clipstream/clipstream/internal/errors"
	"github.com/clipstream/clipstream/internal/model"
	"github.com/clipstream/clipstream/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService is the credential and session manager: it verifies passwords
// and owns the access/refresh token pair representing a session. At most one
// refresh token is valid per user; issuing a new one invalidates the
// previous one.
type AuthService struct {
	store  UserStore
	tokens *TokenService
}

func NewAuthService(store UserStore, tokens *TokenService) *AuthService {
	return &AuthService{
		store:  store,
		tokens: tokens,
	}
}

// HashPassword produces a salted one-way hash. Called exactly when a
// plaintext password is newly set or changed — registration and
// change-password — never on unrelated persistence.
func (s *AuthService) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword reports whether the plaintext matches the stored hash.
// A mismatch is a false, not an error; the caller decides how to surface it.
func (s *AuthService) VerifyPassword(user *model.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil
}

// IssueTokenPair signs a fresh access/refresh pair and persists the refresh
// token on the user record, overwriting (and thereby invalidating) any
// previously stored one. On persistence failure no session is returned.
func (s *AuthService) IssueTokenPair(ctx context.Context, user *model.User) (accessToken, refreshToken string, err error) {
	accessToken, err = s.tokens.GenerateAccessToken(user)
	if err != nil {
		return "", "", apperrors.WrapError(apperrors.ErrInternal, err)
	}

	refreshToken, err = s.tokens.GenerateRefreshToken(user)
	if err != nil {
		return "", "", apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.store.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		logger.GetLogger().Error("Failed to persist refresh token",
			zap.String("user_id", user.ID.Hex()),
			zap.Error(err),
		)
		return "", "", apperrors.WrapError(apperrors.ErrInternal, err)
	}

	return accessToken, refreshToken, nil
}

// Register creates a new identity. Uniqueness of username and email is
// checked first; the password is hashed exactly once here. Avatar and cover
// URLs come from the media layer, which has already stored the files.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterUserRequest, avatarURL, coverURL string) (*dto.UserResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))

	logger.GetLogger().Info("Registering user",
		zap.String("username", username),
		zap.String("email", email),
	)

	_, err := s.store.FindByUsernameOrEmail(ctx, username, email)
	if err == nil {
		return nil, apperrors.ErrUserExists
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	passwordHash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user := &model.User{
		Username:   username,
		Email:      email,
		FullName:   strings.TrimSpace(req.FullName),
		Avatar:     avatarURL,
		CoverImage: coverURL,
		Password:   passwordHash,
	}

	if err := s.store.Create(ctx, user); err != nil {
		logger.GetLogger().Error("Failed to create user",
			zap.String("username", username),
			zap.Error(err),
		)
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.GetLogger().Info("User registered",
		zap.String("user_id", user.ID.Hex()),
		zap.String("username", username),
	)

	return toUserResponse(user), nil
}

// Login verifies credentials by username or email and issues a token pair.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if username == "" && email == "" {
		return nil, apperrors.ErrInvalidInput
	}

	user, err := s.store.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			logger.GetLogger().Info("Login failed: user not found",
				zap.String("username", username),
			)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if !s.VerifyPassword(user, req.Password) {
		logger.GetLogger().Warn("Login failed: password mismatch",
			zap.String("user_id", user.ID.Hex()),
		)
		return nil, apperrors.ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.GetLogger().Info("User logged in",
		zap.String("user_id", user.ID.Hex()),
		zap.String("username", user.Username),
	)

	return &dto.LoginResponse{
		User:         *toUserResponse(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// RotateTokenPair exchanges a valid, current refresh token for a fresh pair.
// Each refresh token survives exactly one successful rotation; presenting a
// rotated-out token is reported as reuse. The swap of stored token values is
// a conditional update at the store, so two racing rotations with the same
// token cannot both win.
func (s *AuthService) RotateTokenPair(ctx context.Context, presented string) (*dto.RefreshTokenResponse, error) {
	if presented == "" {
		return nil, apperrors.ErrUnauthorized
	}

	userID, err := s.tokens.VerifyRefreshToken(presented)
	if err != nil {
		logger.GetLogger().Info("Refresh rejected: verification failed",
			zap.Int("token_length", len(presented)),
			zap.Error(err),
		)
		return nil, apperrors.ErrInvalidToken
	}

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	user, err := s.store.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	// A logged-out user has no stored token at all; that is an invalid
	// token, not reuse of a rotated-out one.
	if user.RefreshToken == "" {
		return nil, apperrors.ErrInvalidToken
	}

	accessToken, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(user)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	swapped, err := s.store.RotateRefreshToken(ctx, user.ID, presented, refreshToken)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if !swapped {
		logger.GetLogger().Warn("Refresh rejected: token already rotated",
			zap.String("user_id", user.ID.Hex()),
		)
		return nil, apperrors.ErrTokenReuse
	}

	logger.GetLogger().Info("Token pair rotated",
		zap.String("user_id", user.ID.Hex()),
	)

	return &dto.RefreshTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// InvalidateSession removes the stored refresh token entirely. The field is
// unset, not blanked, so an empty presented token can never match. Safe to
// call repeatedly.
func (s *AuthService) InvalidateSession(ctx context.Context, userID primitive.ObjectID) error {
	if err := s.store.ClearRefreshToken(ctx, userID); err != nil {
		logger.GetLogger().Error("Failed to clear refresh token",
			zap.String("user_id", userID.Hex()),
			zap.Error(err),
		)
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.GetLogger().Info("Session invalidated",
		zap.String("user_id", userID.Hex()),
	)
	return nil
}

func toUserResponse(user *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:         user.ID.Hex(),
		Username:   user.Username,
		Email:      user.Email,
		FullName:   user.FullName,
		Avatar:     user.Avatar,
		CoverImage: user.CoverImage,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}
