package poststore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// StatusActive marks a post visible in the feed.
const StatusActive = "active"

// Store reads the posts collection. Posts are written by the feed service.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("posts")}
}

// CountActive counts active posts in a neighborhood.
func (s *Store) CountActive(ctx context.Context, neighborhoodID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"neighborhood_id": neighborhoodID,
		"status":          StatusActive,
	})
}
