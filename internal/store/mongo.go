package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ErrNotFound is returned when a document the caller asked for by id does
// not exist.
var ErrNotFound = errors.New("not found")

const (
	itemsCollection         = "items"
	conversationsCollection = "conversations"
	usersCollection         = "users"

	connectTimeout = 10 * time.Second
)

type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoStore{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) items() *mongo.Collection {
	return s.db.Collection(itemsCollection)
}

func (s *MongoStore) conversations() *mongo.Collection {
	return s.db.Collection(conversationsCollection)
}

func (s *MongoStore) users() *mongo.Collection {
	return s.db.Collection(usersCollection)
}
