package service

import (
	"context"

	"github.com/clipstream/clipstream/internal/model"
	"github.com/clipstream/clipstream/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserStore is the identity-store surface the services depend on.
// *repository.UserRepository is the production implementation; tests supply
// in-memory fakes.
type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	UpdateByID(ctx context.Context, id primitive.ObjectID, fields bson.M) (*model.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error
	RotateRefreshToken(ctx context.Context, id primitive.ObjectID, previous, next string) (bool, error)
	ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error
}

// ChannelStore serves the aggregated read queries.
type ChannelStore interface {
	ChannelProfile(ctx context.Context, username string, viewer primitive.ObjectID) (*repository.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID primitive.ObjectID) ([]repository.WatchHistoryItem, error)
}

var (
	_ UserStore    = (*repository.UserRepository)(nil)
	_ ChannelStore = (*repository.ChannelRepository)(nil)
)
