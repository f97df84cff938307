package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserByEmail returns nil, nil when no user with the email exists.
func (s *MongoStore) UserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := s.users().FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *MongoStore) UserByID(ctx context.Context, id string) (*User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", id, err)
	}

	var user User
	err = s.users().FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user by id: %w", err)
	}
	return &user, nil
}

func (s *MongoStore) CreateUser(ctx context.Context, user *User) (*User, error) {
	res, err := s.users().InsertOne(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return user, nil
}

// SetRefreshTokenID rotates (or clears, with an empty jti) the user's
// stored session identifier.
func (s *MongoStore) SetRefreshTokenID(ctx context.Context, userID string, jti string) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	res, err := s.users().UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"refreshTokenId": jti}})
	if err != nil {
		return fmt.Errorf("failed to update refresh token id: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
