package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/clipstream/clipstream/internal/constants"
	"github.com/clipstream/clipstream/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository owns all access to the users collection. Services never
// hold a user document across calls; every mutation goes through an
// update-by-id operation here.
type UserRepository struct {
	users *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		users: db.Collection(constants.CollectionUsers),
	}
}

// FindByID returns the user or mongo.ErrNoDocuments
func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	var user model.User
	if err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername returns the user or mongo.ErrNoDocuments
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.users.FindOne(ctx, bson.M{"username": username}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsernameOrEmail matches either unique field; used by login and the
// registration uniqueness check.
func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": email},
	}}

	var user model.User
	if err := r.users.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts the user and fills in its generated id and timestamps
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	res, err := r.users.InsertOne(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return nil
}

// UpdateByID applies the given field set and returns the updated document.
// Returns mongo.ErrNoDocuments when the user does not exist.
func (r *UserRepository) UpdateByID(ctx context.Context, id primitive.ObjectID, fields bson.M) (*model.User, error) {
	fields["updatedAt"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user model.User
	err := r.users.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": fields},
		opts,
	).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePassword stores a new password hash. The hash is computed by the
// caller exactly when the plaintext changes; this method never re-hashes.
func (r *UserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	res, err := r.users.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"password":  passwordHash,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetRefreshToken unconditionally overwrites the stored refresh token,
// invalidating whatever token was stored before.
func (r *UserRepository) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	res, err := r.users.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"refreshToken": token,
		"updatedAt":    time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// RotateRefreshToken atomically swaps the stored refresh token, but only if
// the stored value still equals previous. Returns false when the compare
// fails, which means the presented token was already rotated out (or the
// session was invalidated). Two concurrent rotations with the same token
// therefore cannot both succeed.
func (r *UserRepository) RotateRefreshToken(ctx context.Context, id primitive.ObjectID, previous, next string) (bool, error) {
	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": id, "refreshToken": previous},
		bson.M{"$set": bson.M{
			"refreshToken": next,
			"updatedAt":    time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	return res.MatchedCount == 1, nil
}

// ClearRefreshToken removes the field entirely rather than writing an empty
// string, so a forged empty token can never match. Idempotent.
func (r *UserRepository) ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.users.UpdateByID(ctx, id, bson.M{
		"$unset": bson.M{"refreshToken": ""},
		"$set":   bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}
