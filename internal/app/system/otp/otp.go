// Package otp issues and verifies one-time phone codes.
//
// A challenge lives embedded on the user record. Verification checks, in
// order: user exists, a challenge is outstanding, attempts remain, the code
// has not expired, the code matches. Failed attempts and successful consumes
// are guarded updates against the challenge id, so concurrent verifications
// cannot both spend the last attempt.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	userstore "github.com/dalemusser/mohallahub/internal/app/store/users"
	"github.com/dalemusser/mohallahub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const (
	// CodeLength is the number of digits in a code.
	CodeLength = 6
	// DefaultExpiry is how long a code is valid.
	DefaultExpiry = 10 * time.Minute
	// MaxAttempts is the number of wrong codes allowed per challenge.
	MaxAttempts = 3
	// BcryptCost for hashing codes.
	BcryptCost = 10
)

var (
	ErrUserNotFound     = errors.New("otp: user not found")
	ErrNoChallenge      = errors.New("otp: no outstanding challenge")
	ErrAttemptsExceeded = errors.New("otp: too many attempts")
	ErrExpired          = errors.New("otp: code expired")
	ErrInvalidCode      = errors.New("otp: invalid code")
	ErrAccountNotActive = errors.New("otp: account not active")
)

// Store is the credential persistence the service needs.
type Store interface {
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	SetOTP(ctx context.Context, id primitive.ObjectID, ch models.OTPChallenge) error
	RecordFailedOTPAttempt(ctx context.Context, id primitive.ObjectID, challengeID string, maxAttempts int) error
	ConsumeOTP(ctx context.Context, id primitive.ObjectID, challengeID string, maxAttempts int, addressVerified bool) (*models.User, error)
}

// Challenge is a freshly issued code. Code is plaintext and must only be
// handed to the delivery channel.
type Challenge struct {
	ID        string
	UserID    primitive.ObjectID
	Code      string
	ExpiresAt time.Time
}

// Service issues and verifies codes.
type Service struct {
	store       Store
	now         func() time.Time
	expiry      time.Duration
	maxAttempts int
	cost        int
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithExpiry overrides DefaultExpiry.
func WithExpiry(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithBcryptCost overrides BcryptCost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		now:         time.Now,
		expiry:      DefaultExpiry,
		maxAttempts: MaxAttempts,
		cost:        BcryptCost,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Expiry returns how long issued codes stay valid.
func (s *Service) Expiry() time.Duration { return s.expiry }

// Issue generates a new code for phone, replacing any outstanding challenge.
func (s *Service) Issue(ctx context.Context, phone string) (Challenge, error) {
	u, err := s.lookup(ctx, phone)
	if err != nil {
		return Challenge{}, err
	}
	if !u.IsActive() {
		return Challenge{}, ErrAccountNotActive
	}
	return s.IssueFor(ctx, u.ID)
}

// IssueFor generates a new code for an already loaded user.
func (s *Service) IssueFor(ctx context.Context, userID primitive.ObjectID) (Challenge, error) {
	code, err := generateCode()
	if err != nil {
		return Challenge{}, fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return Challenge{}, fmt.Errorf("hash code: %w", err)
	}

	now := s.now().UTC()
	ch := models.OTPChallenge{
		ChallengeID: uuid.NewString(),
		CodeHash:    string(hash),
		ExpiresAt:   now.Add(s.expiry),
		Attempts:    0,
		IssuedAt:    now,
	}
	if err := s.store.SetOTP(ctx, userID, ch); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return Challenge{}, ErrUserNotFound
		}
		return Challenge{}, fmt.Errorf("store challenge: %w", err)
	}

	return Challenge{
		ID:        ch.ChallengeID,
		UserID:    userID,
		Code:      code,
		ExpiresAt: ch.ExpiresAt,
	}, nil
}

// Verify checks code against the outstanding challenge for phone. On success
// the challenge is consumed and the phone marked verified.
func (s *Service) Verify(ctx context.Context, phone, code string) (*models.User, error) {
	u, err := s.lookup(ctx, phone)
	if err != nil {
		return nil, err
	}
	ch := u.OTP
	if ch == nil {
		return nil, ErrNoChallenge
	}
	if ch.Attempts >= s.maxAttempts {
		return nil, ErrAttemptsExceeded
	}
	if s.now().After(ch.ExpiresAt) {
		return nil, ErrExpired
	}

	if bcrypt.CompareHashAndPassword([]byte(ch.CodeHash), []byte(code)) != nil {
		if err := s.store.RecordFailedOTPAttempt(ctx, u.ID, ch.ChallengeID, s.maxAttempts); err != nil {
			if errors.Is(err, userstore.ErrChallengeChanged) {
				return nil, s.classifyLostRace(ctx, phone)
			}
			return nil, fmt.Errorf("record attempt: %w", err)
		}
		return nil, ErrInvalidCode
	}

	verified, err := s.store.ConsumeOTP(ctx, u.ID, ch.ChallengeID, s.maxAttempts, u.IsAddressVerified)
	if errors.Is(err, userstore.ErrChallengeChanged) {
		return s.retryConsume(ctx, phone, u, ch.ChallengeID)
	}
	if err != nil {
		return nil, fmt.Errorf("consume challenge: %w", err)
	}
	return verified, nil
}

// retryConsume handles a ConsumeOTP miss. When the challenge is still stored
// and only the address flag moved, the consume is retried once with the
// fresh flag; otherwise the miss is classified.
func (s *Service) retryConsume(ctx context.Context, phone string, read *models.User, challengeID string) (*models.User, error) {
	cur, err := s.lookup(ctx, phone)
	if err != nil {
		return nil, err
	}
	if cur.OTP == nil || cur.OTP.ChallengeID != challengeID ||
		cur.IsAddressVerified == read.IsAddressVerified {
		return nil, s.classify(cur)
	}
	if cur.OTP.Attempts >= s.maxAttempts {
		return nil, ErrAttemptsExceeded
	}
	verified, err := s.store.ConsumeOTP(ctx, cur.ID, challengeID, s.maxAttempts, cur.IsAddressVerified)
	if errors.Is(err, userstore.ErrChallengeChanged) {
		return nil, s.classifyLostRace(ctx, phone)
	}
	if err != nil {
		return nil, fmt.Errorf("consume challenge: %w", err)
	}
	return verified, nil
}

// classifyLostRace re-reads the user after a guarded update missed and maps
// the current state to the error the caller would see had it arrived second.
func (s *Service) classifyLostRace(ctx context.Context, phone string) error {
	u, err := s.lookup(ctx, phone)
	if err != nil {
		return err
	}
	return s.classify(u)
}

func (s *Service) classify(u *models.User) error {
	if u.OTP != nil && u.OTP.Attempts >= s.maxAttempts {
		return ErrAttemptsExceeded
	}
	return ErrNoChallenge
}

func (s *Service) lookup(ctx context.Context, phone string) (*models.User, error) {
	u, err := s.store.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

var codeRange = big.NewInt(900000)

// generateCode returns a code uniform in 100000..999999.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeRange)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
