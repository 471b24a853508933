// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Account statuses. Users are never hard-deleted; "deleted" is a status.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusDeleted   = "deleted"
)

// User is a resident identified by phone number.
//
// NOTE:
//   - OTP is only present while a challenge is outstanding.
//   - IsAddressVerified implies NeighborhoodID and Address are set.
//   - VerificationLevel is derived; call RefreshVerificationLevel after
//     touching either verification flag.
type User struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Phone string             `bson:"phone" json:"phone"`

	Name string `bson:"name,omitempty" json:"name,omitempty"`
	Bio  string `bson:"bio,omitempty" json:"bio,omitempty"`

	IsPhoneVerified   bool   `bson:"is_phone_verified" json:"is_phone_verified"`
	IsAddressVerified bool   `bson:"is_address_verified" json:"is_address_verified"`
	VerificationLevel string `bson:"verification_level" json:"verification_level"`

	OTP *OTPChallenge `bson:"otp,omitempty" json:"-"`

	Role       string `bson:"role" json:"role"`     // user | moderator | admin
	Status     string `bson:"status" json:"status"` // active | suspended | deleted
	TrustScore int    `bson:"trust_score" json:"trust_score"`

	NeighborhoodID *primitive.ObjectID `bson:"neighborhood_id,omitempty" json:"neighborhood_id,omitempty"`
	Address        *Address            `bson:"address,omitempty" json:"address,omitempty"`

	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// OTPChallenge is the embedded one-time code record.
// The plaintext code is never stored; CodeHash is a bcrypt hash.
type OTPChallenge struct {
	ChallengeID string    `bson:"challenge_id"`
	CodeHash    string    `bson:"code_hash"`
	ExpiresAt   time.Time `bson:"expires_at"`
	Attempts    int       `bson:"attempts"`
	IssuedAt    time.Time `bson:"issued_at"`
}

// Address is the user's verified address. Geohash is copied from the
// neighborhood at verification time.
type Address struct {
	FullAddress string       `bson:"full_address" json:"full_address"`
	PostalCode  string       `bson:"postal_code" json:"postal_code"`
	City        string       `bson:"city" json:"city"`
	State       string       `bson:"state" json:"state"`
	Coordinates *Coordinates `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	Geohash     string       `bson:"geohash" json:"geohash"`
}

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// IsActive reports whether the account may authenticate.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// RefreshVerificationLevel recomputes VerificationLevel from the two flags.
func (u *User) RefreshVerificationLevel() {
	u.VerificationLevel = VerificationLevelFor(u.IsPhoneVerified, u.IsAddressVerified)
}
