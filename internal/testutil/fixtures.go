package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/mohallahub/internal/app/system/geo"
	"github.com/dalemusser/mohallahub/internal/app/system/normalize"
	"github.com/dalemusser/mohallahub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// NewUser builds an active user with the given phone and flags without
// persisting it.
func NewUser(phone string, phoneVerified, addressVerified bool) models.User {
	now := time.Now().UTC()
	u := models.User{
		ID:                primitive.NewObjectID(),
		Phone:             phone,
		IsPhoneVerified:   phoneVerified,
		IsAddressVerified: addressVerified,
		Role:              models.RoleUser,
		Status:            models.StatusActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	u.RefreshVerificationLevel()
	return u
}

// CreateUser inserts u into the users collection.
func (f *Fixtures) CreateUser(ctx context.Context, u models.User) models.User {
	f.t.Helper()

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateResident creates an active, fully verified user in nb.
func (f *Fixtures) CreateResident(ctx context.Context, phone string, nb models.Neighborhood) models.User {
	f.t.Helper()

	u := NewUser(phone, true, true)
	u.NeighborhoodID = &nb.ID
	u.Address = &models.Address{
		FullAddress: "1 Test Street",
		PostalCode:  nb.PostalCode,
		City:        nb.City,
		State:       nb.State,
		Geohash:     nb.Geohash,
	}
	return f.CreateUser(ctx, u)
}

// NewNeighborhood builds a neighborhood for postalCode without persisting it.
func NewNeighborhood(city, postalCode string, lat, lng float64) models.Neighborhood {
	now := time.Now().UTC()
	name := city + " - " + postalCode
	return models.Neighborhood{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      normalize.Fold(name),
		Slug:        normalize.Slug(name),
		PostalCode:  postalCode,
		City:        city,
		State:       "Karnataka",
		Country:     models.DefaultCountry,
		Coordinates: models.Coordinates{Lat: lat, Lng: lng},
		Geohash:     geo.Encode(lat, lng, geo.DefaultPrecision),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CreateNeighborhood inserts nb into the neighborhoods collection.
func (f *Fixtures) CreateNeighborhood(ctx context.Context, nb models.Neighborhood) models.Neighborhood {
	f.t.Helper()

	if _, err := f.db.Collection("neighborhoods").InsertOne(ctx, nb); err != nil {
		f.t.Fatalf("failed to create test neighborhood: %v", err)
	}
	return nb
}

// CreatePost inserts a post with the given status.
func (f *Fixtures) CreatePost(ctx context.Context, neighborhoodID, authorID primitive.ObjectID, status string) models.Post {
	f.t.Helper()

	p := models.Post{
		ID:             primitive.NewObjectID(),
		NeighborhoodID: neighborhoodID,
		AuthorID:       authorID,
		Status:         status,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := f.db.Collection("posts").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test post: %v", err)
	}
	return p
}
