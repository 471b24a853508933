// internal/domain/models/neighborhood.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultCountry is stored on neighborhoods created without an explicit country.
const DefaultCountry = "India"

// Neighborhood is a postal-code scoped community. postal_code is unique.
type Neighborhood struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	Name   string             `bson:"name" json:"name"`
	NameCI string             `bson:"name_ci" json:"-"`
	Slug   string             `bson:"slug" json:"slug"`

	FullAddress string      `bson:"full_address" json:"full_address"`
	PostalCode  string      `bson:"postal_code" json:"postal_code"`
	City        string      `bson:"city" json:"city"`
	State       string      `bson:"state" json:"state"`
	Country     string      `bson:"country" json:"country"`
	Coordinates Coordinates `bson:"coordinates" json:"coordinates"`
	Geohash     string      `bson:"geohash" json:"geohash"`

	Stats NeighborhoodStats `bson:"stats" json:"stats"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// NeighborhoodStats is a point-in-time snapshot of live counts.
// It may be briefly stale between recomputations.
type NeighborhoodStats struct {
	ResidentCount         int64      `bson:"resident_count" json:"resident_count"`
	VerifiedResidentCount int64      `bson:"verified_resident_count" json:"verified_resident_count"`
	PostCount             int64      `bson:"post_count" json:"post_count"`
	ComputedAt            *time.Time `bson:"computed_at,omitempty" json:"computed_at,omitempty"`
}
