package database

import (
	"context"
	"fmt"

	"github.com/clipstream/clipstream/config"
	"github.com/clipstream/clipstream/internal/constants"
	"github.com/clipstream/clipstream/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// NewMongoDatabase connects to MongoDB and pings it before returning the
// database handle. The connect timeout comes from configuration, not from
// the caller's request lifecycle.
func NewMongoDatabase(cfg *config.Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.GetLogger().Info("Successfully connected to MongoDB",
		zap.String("database", cfg.Mongo.Database),
	)

	return client.Database(cfg.Mongo.Database), nil
}

// CloseMongo disconnects the client behind the database handle
func CloseMongo(db *mongo.Database) {
	if db == nil {
		return
	}
	ctx := context.Background()
	if err := db.Client().Disconnect(ctx); err != nil {
		logger.GetLogger().Error("Failed to disconnect MongoDB", zap.Error(err))
	}
}

// EnsureIndexes creates the unique and lookup indexes the queries rely on.
// Safe to call on every startup; Mongo treats existing identical indexes as
// a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	users := db.Collection(constants.CollectionUsers)
	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "fullName", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	subs := db.Collection(constants.CollectionSubscriptions)
	_, err = subs.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "subscriber", Value: 1}, {Key: "channel", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "channel", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription indexes: %w", err)
	}

	videos := db.Collection(constants.CollectionVideos)
	_, err = videos.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create video indexes: %w", err)
	}

	logger.GetLogger().Info("Database indexes ensured")
	return nil
}
