// internal/domain/models/post.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a neighborhood feed entry. Only the fields the stats snapshot
// reads are modeled here; feed CRUD lives outside this service.
type Post struct {
	ID             primitive.ObjectID `bson:"_id"`
	NeighborhoodID primitive.ObjectID `bson:"neighborhood_id"`
	AuthorID       primitive.ObjectID `bson:"author_id"`
	Status         string             `bson:"status"`
	CreatedAt      time.Time          `bson:"created_at"`
}
