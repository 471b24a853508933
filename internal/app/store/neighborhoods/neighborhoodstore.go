package neighborhoodstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/dalemusser/mohallahub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no neighborhood matches.
	ErrNotFound = errors.New("neighborhood not found")
	// ErrDuplicateNeighborhood is returned when the postal code already has a
	// neighborhood.
	ErrDuplicateNeighborhood = errors.New("a neighborhood for this postal code already exists")
)

// oldestFirst orders slug ties deterministically.
var oldestFirst = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("neighborhoods")}
}

// Create inserts n. ID and timestamps are assigned when unset.
func (s *Store) Create(ctx context.Context, n models.Neighborhood) (models.Neighborhood, error) {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	now := time.Now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	if n.Country == "" {
		n.Country = models.DefaultCountry
	}

	if _, err := s.c.InsertOne(ctx, n); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Neighborhood{}, ErrDuplicateNeighborhood
		}
		return models.Neighborhood{}, err
	}
	return n, nil
}

// GetByID loads a neighborhood by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Neighborhood, error) {
	return s.findOne(ctx, bson.M{"_id": id}, nil)
}

// GetByPostalCode returns the neighborhood for postalCode.
func (s *Store) GetByPostalCode(ctx context.Context, postalCode string) (*models.Neighborhood, error) {
	return s.findOne(ctx, bson.M{"postal_code": postalCode}, options.FindOne())
}

// GetBySlug returns the oldest neighborhood with slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*models.Neighborhood, error) {
	return s.findOne(ctx, bson.M{"slug": slug}, options.FindOne().SetSort(oldestFirst))
}

func (s *Store) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*models.Neighborhood, error) {
	var n models.Neighborhood
	var err error
	if opts != nil {
		err = s.c.FindOne(ctx, filter, opts).Decode(&n)
	} else {
		err = s.c.FindOne(ctx, filter).Decode(&n)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// FindByGeohashPrefix lists neighborhoods whose geohash starts with prefix.
// The prefix must already be a validated geohash.
func (s *Store) FindByGeohashPrefix(ctx context.Context, prefix string, limit int64) ([]models.Neighborhood, error) {
	if limit <= 0 {
		limit = 50
	}
	filter := bson.M{"geohash": bson.M{"$regex": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix)}}}
	opts := options.Find().
		SetSort(bson.D{{Key: "geohash", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Neighborhood
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetStats replaces the stats snapshot.
func (s *Store) SetStats(ctx context.Context, id primitive.ObjectID, stats models.NeighborhoodStats) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"stats": stats, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListIDs returns every neighborhood id, oldest first.
func (s *Store) ListIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(oldestFirst)

	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}
