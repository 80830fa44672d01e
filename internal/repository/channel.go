package repository

import (
	"context"
	"fmt"

	"github.com/clipstream/clipstream/internal/constants"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ChannelProfile is the aggregated channel view produced by the pipeline in
// ChannelProfile; counts come from the subscriptions collection.
type ChannelProfile struct {
	ID              primitive.ObjectID `bson:"_id"`
	Username        string             `bson:"username"`
	Email           string             `bson:"email"`
	FullName        string             `bson:"fullName"`
	Avatar          string             `bson:"avatar"`
	CoverImage      string             `bson:"coverImage"`
	SubscriberCount int64              `bson:"subscriberCount"`
	SubscribedTo    int64              `bson:"channelsSubscribedToCount"`
	IsSubscribed    bool               `bson:"isSubscribed"`
}

// WatchHistoryItem is a watched video joined with its owner's public fields.
type WatchHistoryItem struct {
	ID          primitive.ObjectID `bson:"_id"`
	VideoFile   string             `bson:"videoFile"`
	Thumbnail   string             `bson:"thumbnail"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Duration    float64            `bson:"duration"`
	Views       int64              `bson:"views"`
	CreatedAt   primitive.DateTime `bson:"createdAt"`
	Owner       WatchHistoryVideoOwner `bson:"owner"`
}

type WatchHistoryVideoOwner struct {
	ID       primitive.ObjectID `bson:"_id"`
	Username string             `bson:"username"`
	FullName string             `bson:"fullName"`
	Avatar   string             `bson:"avatar"`
}

// ChannelRepository runs the read-side aggregation pipelines over users,
// subscriptions and videos.
type ChannelRepository struct {
	users *mongo.Collection
}

func NewChannelRepository(db *mongo.Database) *ChannelRepository {
	return &ChannelRepository{
		users: db.Collection(constants.CollectionUsers),
	}
}

// ChannelProfile resolves a channel by username together with its
// subscriber counts and whether viewer is subscribed to it.
// Returns mongo.ErrNoDocuments when no such channel exists.
func (r *ChannelRepository) ChannelProfile(ctx context.Context, username string, viewer primitive.ObjectID) (*ChannelProfile, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"username": username}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         constants.CollectionSubscriptions,
			"localField":   "_id",
			"foreignField": "channel",
			"as":           "subscribers",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         constants.CollectionSubscriptions,
			"localField":   "_id",
			"foreignField": "subscriber",
			"as":           "subscribedTo",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"subscriberCount":           bson.M{"$size": "$subscribers"},
			"channelsSubscribedToCount": bson.M{"$size": "$subscribedTo"},
			"isSubscribed": bson.M{
				"$in": bson.A{viewer, "$subscribers.subscriber"},
			},
		}}},
		{{Key: "$project", Value: bson.M{
			"username":                  1,
			"email":                     1,
			"fullName":                  1,
			"avatar":                    1,
			"coverImage":                1,
			"subscriberCount":           1,
			"channelsSubscribedToCount": 1,
			"isSubscribed":              1,
		}}},
	}

	cursor, err := r.users.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate channel profile: %w", err)
	}
	defer cursor.Close(ctx)

	var results []ChannelProfile
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode channel profile: %w", err)
	}
	if len(results) == 0 {
		return nil, mongo.ErrNoDocuments
	}

	return &results[0], nil
}

// WatchHistory returns the user's watched videos with each video's owner
// resolved to its public fields.
func (r *ChannelRepository) WatchHistory(ctx context.Context, userID primitive.ObjectID) ([]WatchHistoryItem, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": userID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         constants.CollectionVideos,
			"localField":   "watchHistory",
			"foreignField": "_id",
			"as":           "watchHistory",
			"pipeline": mongo.Pipeline{
				{{Key: "$lookup", Value: bson.M{
					"from":         constants.CollectionUsers,
					"localField":   "owner",
					"foreignField": "_id",
					"as":           "owner",
					"pipeline": mongo.Pipeline{
						{{Key: "$project", Value: bson.M{
							"username": 1,
							"fullName": 1,
							"avatar":   1,
						}}},
					},
				}}},
				{{Key: "$addFields", Value: bson.M{
					"owner": bson.M{"$first": "$owner"},
				}}},
			},
		}}},
	}

	cursor, err := r.users.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate watch history: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		WatchHistory []WatchHistoryItem `bson:"watchHistory"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode watch history: %w", err)
	}
	if len(results) == 0 {
		return nil, mongo.ErrNoDocuments
	}

	return results[0].WatchHistory, nil
}
