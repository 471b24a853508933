package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/mohallahub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no user matches.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicatePhone is returned when registering a phone that already exists.
	ErrDuplicatePhone = errors.New("a user with this phone already exists")
	// ErrChallengeChanged is returned by the OTP compare-and-swap updates when
	// the stored challenge no longer matches (consumed, replaced or exhausted).
	ErrChallengeChanged = errors.New("otp challenge changed")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Create inserts a new unverified user for phone. The phone must already be
// normalized and validated.
func (s *Store) Create(ctx context.Context, phone string) (models.User, error) {
	now := time.Now()
	u := models.User{
		ID:     primitive.NewObjectID(),
		Phone:  phone,
		Role:   models.RoleUser,
		Status: models.StatusActive,

		CreatedAt: now,
		UpdatedAt: now,
	}
	u.RefreshVerificationLevel()

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicatePhone
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByPhone loads a user by normalized phone.
func (s *Store) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"phone": phone})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// SetOTP stores ch as the user's outstanding challenge, replacing any prior one.
func (s *Store) SetOTP(ctx context.Context, id primitive.ObjectID, ch models.OTPChallenge) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"otp": ch, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordFailedOTPAttempt increments the attempt counter of challengeID only
// while it is still below maxAttempts. ErrChallengeChanged means the guard
// did not match: another request consumed, replaced or exhausted it first.
func (s *Store) RecordFailedOTPAttempt(ctx context.Context, id primitive.ObjectID, challengeID string, maxAttempts int) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":              id,
			"otp.challenge_id": challengeID,
			"otp.attempts":     bson.M{"$lt": maxAttempts},
		},
		bson.M{
			"$inc": bson.M{"otp.attempts": 1},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrChallengeChanged
	}
	return nil
}

// ConsumeOTP atomically removes challengeID, marks the phone verified and
// writes the recomputed verification level. addressVerified is the flag value
// the caller read; it is part of the guard so the level written is always
// consistent with the stored flags.
func (s *Store) ConsumeOTP(ctx context.Context, id primitive.ObjectID, challengeID string, maxAttempts int, addressVerified bool) (*models.User, error) {
	now := time.Now()
	filter := bson.M{
		"_id":                 id,
		"otp.challenge_id":    challengeID,
		"otp.attempts":        bson.M{"$lt": maxAttempts},
		"is_address_verified": addressVerified,
	}
	update := bson.M{
		"$set": bson.M{
			"is_phone_verified":  true,
			"verification_level": models.VerificationLevelFor(true, addressVerified),
			"last_login_at":      now,
			"updated_at":         now,
		},
		"$unset": bson.M{"otp": ""},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var u models.User
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrChallengeChanged
		}
		return nil, err
	}
	return &u, nil
}

// SetAddress joins the user to a neighborhood with a verified address and
// writes the recomputed verification level.
func (s *Store) SetAddress(ctx context.Context, id, neighborhoodID primitive.ObjectID, addr models.Address, phoneVerified bool) (*models.User, error) {
	update := bson.M{
		"$set": bson.M{
			"neighborhood_id":     neighborhoodID,
			"address":             addr,
			"is_address_verified": true,
			"verification_level":  models.VerificationLevelFor(phoneVerified, true),
			"updated_at":          time.Now(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "is_phone_verified": phoneVerified},
		update, opts,
	).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ProfileUpdate holds the editable profile fields. Nil leaves a field alone.
type ProfileUpdate struct {
	Name *string
	Bio  *string
}

// UpdateProfile applies upd and returns the updated user.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	set := bson.M{"updated_at": time.Now()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var u models.User
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CountResidents counts active users in a neighborhood.
func (s *Store) CountResidents(ctx context.Context, neighborhoodID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"neighborhood_id": neighborhoodID,
		"status":          models.StatusActive,
	})
}

// CountVerifiedResidents counts active users in a neighborhood with both
// phone and address verified.
func (s *Store) CountVerifiedResidents(ctx context.Context, neighborhoodID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"neighborhood_id":     neighborhoodID,
		"status":              models.StatusActive,
		"is_phone_verified":   true,
		"is_address_verified": true,
	})
}
