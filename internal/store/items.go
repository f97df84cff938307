package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	searchMaxTime      = 3 * time.Second
	defaultSearchLimit = 200
	maxSearchLimit     = 2000
	trendingSampleSize = 16
)

// SearchItems runs a case-insensitive substring search over name and brand.
// The limit is clamped to [1, 2000]; a blank query returns no results
// without touching the database.
func (s *MongoStore) SearchItems(ctx context.Context, q string, limit int) ([]Item, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []Item{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	rx := primitiveRegex(q)
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"name": rx},
			bson.M{"brand": rx},
		}}}},
		{{Key: "$limit", Value: limit}},
	}

	return s.aggregateItems(ctx, pipeline, options.Aggregate().SetMaxTime(searchMaxTime))
}

// TrendingItems returns a fixed-size random sample of the catalog.
func (s *MongoStore) TrendingItems(ctx context.Context) ([]Item, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sample", Value: bson.M{"size": trendingSampleSize}}},
	}
	return s.aggregateItems(ctx, pipeline)
}

// SearchItemsText runs the text-index search used for RAG retrieval:
// documents are ranked by descending text relevance score and truncated to
// limit.
func (s *MongoStore) SearchItemsText(ctx context.Context, q string, limit int) ([]Item, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []Item{}, nil
	}
	if limit <= 0 {
		limit = 5
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$text": bson.M{"$search": q}}}},
		{{Key: "$addFields", Value: bson.M{"score": bson.M{"$meta": "textScore"}}}},
		{{Key: "$sort", Value: bson.M{"score": -1}}},
		{{Key: "$limit", Value: limit}},
	}

	return s.aggregateItems(ctx, pipeline, options.Aggregate().SetMaxTime(searchMaxTime))
}

// ItemByID looks an item up by its scraped external id. Returns ErrNotFound
// when no such item exists.
func (s *MongoStore) ItemByID(ctx context.Context, id string) (*Item, error) {
	var item Item
	err := s.items().FindOne(ctx, bson.M{"id": id}).Decode(&item)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query item %s: %w", id, err)
	}
	return &item, nil
}

// ItemsByBrand returns the similar-item candidate set: every other item of
// the same brand. Ranking by shared categories happens in the catalog
// package.
func (s *MongoStore) ItemsByBrand(ctx context.Context, brand, excludeID string) ([]Item, error) {
	cursor, err := s.items().Find(ctx, bson.M{
		"brand": brand,
		"id":    bson.M{"$ne": excludeID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query items by brand: %w", err)
	}
	defer cursor.Close(ctx)

	var items []Item
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode brand items: %w", err)
	}
	return items, nil
}

func (s *MongoStore) aggregateItems(ctx context.Context, pipeline mongo.Pipeline, opts ...*options.AggregateOptions) ([]Item, error) {
	cursor, err := s.items().Aggregate(ctx, pipeline, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to run items aggregation: %w", err)
	}
	defer cursor.Close(ctx)

	var items []Item
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

func primitiveRegex(q string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
}
