// Package neighborhood resolves verified addresses to postal-code scoped
// neighborhoods, creating them lazily, and maintains their stats snapshots.
package neighborhood

import (
	"context"
	"errors"
	"fmt"
	"time"

	neighborhoodstore "github.com/dalemusser/mohallahub/internal/app/store/neighborhoods"
	userstore "github.com/dalemusser/mohallahub/internal/app/store/users"
	"github.com/dalemusser/mohallahub/internal/app/system/geo"
	"github.com/dalemusser/mohallahub/internal/app/system/normalize"
	"github.com/dalemusser/mohallahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	// ErrConflict is returned when a create lost a uniqueness race and the
	// winner could not be read back.
	ErrConflict = errors.New("neighborhood: create conflict")
	// ErrNotFound is returned when a neighborhood id does not exist.
	ErrNotFound = errors.New("neighborhood: not found")
	// ErrUserNotFound is returned when the user being verified is gone.
	ErrUserNotFound = errors.New("neighborhood: user not found")
)

// Store is the neighborhood persistence the resolver needs.
type Store interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Neighborhood, error)
	GetByPostalCode(ctx context.Context, postalCode string) (*models.Neighborhood, error)
	Create(ctx context.Context, n models.Neighborhood) (models.Neighborhood, error)
	SetStats(ctx context.Context, id primitive.ObjectID, stats models.NeighborhoodStats) error
}

// Residents is the user persistence the resolver needs.
type Residents interface {
	SetAddress(ctx context.Context, id, neighborhoodID primitive.ObjectID, addr models.Address, phoneVerified bool) (*models.User, error)
	CountResidents(ctx context.Context, neighborhoodID primitive.ObjectID) (int64, error)
	CountVerifiedResidents(ctx context.Context, neighborhoodID primitive.ObjectID) (int64, error)
}

// Posts counts active feed posts.
type Posts interface {
	CountActive(ctx context.Context, neighborhoodID primitive.ObjectID) (int64, error)
}

// AddressInput is a normalized, validated address.
type AddressInput struct {
	FullAddress string
	PostalCode  string
	City        string
	State       string
	Coordinates *models.Coordinates
}

// Resolver finds or creates neighborhoods and recomputes their stats.
type Resolver struct {
	store     Store
	residents Residents
	posts     Posts
	log       *zap.Logger
	now       func() time.Time
}

// NewResolver constructs a Resolver.
func NewResolver(store Store, residents Residents, posts Posts, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		store:     store,
		residents: residents,
		posts:     posts,
		log:       logger,
		now:       time.Now,
	}
}

// NameFor is the display name given to a lazily created neighborhood.
func NameFor(city, postalCode string) string {
	return fmt.Sprintf("%s - %s", normalize.Name(city), postalCode)
}

// Resolve returns the neighborhood for in.PostalCode, creating it when none
// exists. created reports whether this call inserted it.
func (r *Resolver) Resolve(ctx context.Context, in AddressInput) (nb models.Neighborhood, created bool, err error) {
	existing, err := r.store.GetByPostalCode(ctx, in.PostalCode)
	if err == nil {
		return *existing, false, nil
	}
	if !errors.Is(err, neighborhoodstore.ErrNotFound) {
		return models.Neighborhood{}, false, fmt.Errorf("lookup by postal code: %w", err)
	}

	coords := geo.DefaultLocation
	if in.Coordinates != nil {
		coords = geo.Point{Lat: in.Coordinates.Lat, Lng: in.Coordinates.Lng}
	}
	name := NameFor(in.City, in.PostalCode)
	now := r.now().UTC()

	n := models.Neighborhood{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      normalize.Fold(name),
		Slug:        normalize.Slug(name),
		FullAddress: in.FullAddress,
		PostalCode:  in.PostalCode,
		City:        normalize.Name(in.City),
		State:       normalize.Name(in.State),
		Country:     models.DefaultCountry,
		Coordinates: models.Coordinates{Lat: coords.Lat, Lng: coords.Lng},
		Geohash:     geo.EncodePoint(coords),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	inserted, err := r.store.Create(ctx, n)
	if err == nil {
		r.log.Info("neighborhood created",
			zap.String("neighborhood_id", inserted.ID.Hex()),
			zap.String("name", inserted.Name),
			zap.String("geohash", inserted.Geohash))
		return inserted, true, nil
	}
	if !errors.Is(err, neighborhoodstore.ErrDuplicateNeighborhood) {
		return models.Neighborhood{}, false, fmt.Errorf("create neighborhood: %w", err)
	}

	// Lost the race to a concurrent create: reuse the winner.
	winner, err := r.store.GetByPostalCode(ctx, in.PostalCode)
	if err != nil {
		if errors.Is(err, neighborhoodstore.ErrNotFound) {
			return models.Neighborhood{}, false, ErrConflict
		}
		return models.Neighborhood{}, false, fmt.Errorf("refetch after conflict: %w", err)
	}
	return *winner, false, nil
}

// VerifyAddress joins u to the neighborhood for in, stores the address with
// the neighborhood's geohash and marks the address verified. The stats
// snapshots of the new neighborhood, and of the previous one when the user
// moved, are refreshed afterwards; failures there are logged, not returned.
func (r *Resolver) VerifyAddress(ctx context.Context, u *models.User, in AddressInput) (*models.User, models.Neighborhood, bool, error) {
	nb, created, err := r.Resolve(ctx, in)
	if err != nil {
		return nil, models.Neighborhood{}, false, err
	}

	addr := models.Address{
		FullAddress: in.FullAddress,
		PostalCode:  in.PostalCode,
		City:        normalize.Name(in.City),
		State:       normalize.Name(in.State),
		Coordinates: in.Coordinates,
		Geohash:     nb.Geohash,
	}
	updated, err := r.residents.SetAddress(ctx, u.ID, nb.ID, addr, u.IsPhoneVerified)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return nil, models.Neighborhood{}, false, ErrUserNotFound
		}
		return nil, models.Neighborhood{}, false, fmt.Errorf("set address: %w", err)
	}

	if stats, err := r.RecomputeStats(ctx, nb.ID); err != nil {
		r.log.Warn("stats recompute after address verification failed",
			zap.String("neighborhood_id", nb.ID.Hex()),
			zap.Error(err))
	} else {
		nb.Stats = stats
	}

	// A resident who moved leaves a stale count behind.
	if prev := u.NeighborhoodID; prev != nil && *prev != nb.ID {
		if _, err := r.RecomputeStats(ctx, *prev); err != nil {
			r.log.Warn("stats recompute for previous neighborhood failed",
				zap.String("neighborhood_id", prev.Hex()),
				zap.Error(err))
		}
	}

	return updated, nb, created, nil
}

// RecomputeStats counts live residents and posts and persists the snapshot.
func (r *Resolver) RecomputeStats(ctx context.Context, id primitive.ObjectID) (models.NeighborhoodStats, error) {
	residents, err := r.residents.CountResidents(ctx, id)
	if err != nil {
		return models.NeighborhoodStats{}, fmt.Errorf("count residents: %w", err)
	}
	verified, err := r.residents.CountVerifiedResidents(ctx, id)
	if err != nil {
		return models.NeighborhoodStats{}, fmt.Errorf("count verified residents: %w", err)
	}
	posts, err := r.posts.CountActive(ctx, id)
	if err != nil {
		return models.NeighborhoodStats{}, fmt.Errorf("count posts: %w", err)
	}

	now := r.now().UTC()
	stats := models.NeighborhoodStats{
		ResidentCount:         residents,
		VerifiedResidentCount: verified,
		PostCount:             posts,
		ComputedAt:            &now,
	}
	if err := r.store.SetStats(ctx, id, stats); err != nil {
		if errors.Is(err, neighborhoodstore.ErrNotFound) {
			return models.NeighborhoodStats{}, ErrNotFound
		}
		return models.NeighborhoodStats{}, fmt.Errorf("save stats: %w", err)
	}
	return stats, nil
}
