package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/clipstream/clipstream/config"
	"github.com/clipstream/clipstream/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenService signs and verifies the two session tokens. The access token
// carries identity claims for stateless authorization; the refresh token
// carries only the user id and is signed with a separate secret.
type TokenService struct {
	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}
}

// AccessTTL exposes the configured access token lifetime for cookie expiry
func (s *TokenService) AccessTTL() time.Duration {
	return s.accessTTL
}

// RefreshTTL exposes the configured refresh token lifetime for cookie expiry
func (s *TokenService) RefreshTTL() time.Duration {
	return s.refreshTTL
}

// GenerateAccessToken creates the short-lived token carrying identity claims
func (s *TokenService) GenerateAccessToken(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"id":       user.ID.Hex(),
		"email":    user.Email,
		"username": user.Username,
		"fullName": user.FullName,
		"jti":      uuid.NewString(),
		"exp":      now.Add(s.accessTTL).Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(s.accessSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// GenerateRefreshToken creates the long-lived token carrying only the user
// id. The jti makes every issuance a distinct token value even within the
// same signing second; without it, rotation could not tell an old pair from
// a new one.
func (s *TokenService) GenerateRefreshToken(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"id":  user.ID.Hex(),
		"jti": uuid.NewString(),
		"exp": now.Add(s.refreshTTL).Unix(),
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(s.refreshSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken validates signature and expiry and returns the claims
func (s *TokenService) VerifyAccessToken(tokenString string) (jwt.MapClaims, error) {
	return s.verify(tokenString, s.accessSecret)
}

// VerifyRefreshToken validates signature and expiry and returns the user id
// claim.
func (s *TokenService) VerifyRefreshToken(tokenString string) (string, error) {
	claims, err := s.verify(tokenString, s.refreshSecret)
	if err != nil {
		return "", err
	}

	id, ok := claims["id"].(string)
	if !ok || id == "" {
		return "", errors.New("refresh token missing id claim")
	}
	return id, nil
}

func (s *TokenService) verify(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
