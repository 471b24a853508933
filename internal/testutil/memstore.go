package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	neighborhoodstore "github.com/dalemusser/mohallahub/internal/app/store/neighborhoods"
	userstore "github.com/dalemusser/mohallahub/internal/app/store/users"
	"github.com/dalemusser/mohallahub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemUsers is an in-memory stand-in for userstore.Store with the same
// guarded-update semantics. Safe for concurrent use.
type MemUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User

	// BeforeConsume, when set, runs before each ConsumeOTP with the lock
	// released. Tests use it to change the user between read and update.
	BeforeConsume func(id primitive.ObjectID)
}

// NewMemUsers returns an empty MemUsers.
func NewMemUsers() *MemUsers {
	return &MemUsers{users: map[primitive.ObjectID]*models.User{}}
}

func clone(u *models.User) *models.User {
	c := *u
	if u.OTP != nil {
		ch := *u.OTP
		c.OTP = &ch
	}
	if u.Address != nil {
		a := *u.Address
		c.Address = &a
	}
	return &c
}

// Put stores u as-is, replacing any user with the same id.
func (m *MemUsers) Put(u models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.users[u.ID] = clone(&u)
	return u
}

func (m *MemUsers) Create(_ context.Context, phone string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Phone == phone {
			return models.User{}, userstore.ErrDuplicatePhone
		}
	}
	now := time.Now()
	u := models.User{
		ID:        primitive.NewObjectID(),
		Phone:     phone,
		Role:      models.RoleUser,
		Status:    models.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	u.RefreshVerificationLevel()
	m.users[u.ID] = clone(&u)
	return u, nil
}

func (m *MemUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, userstore.ErrNotFound
	}
	return clone(u), nil
}

func (m *MemUsers) GetByPhone(_ context.Context, phone string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Phone == phone {
			return clone(u), nil
		}
	}
	return nil, userstore.ErrNotFound
}

func (m *MemUsers) SetOTP(_ context.Context, id primitive.ObjectID, ch models.OTPChallenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return userstore.ErrNotFound
	}
	u.OTP = &ch
	return nil
}

func (m *MemUsers) RecordFailedOTPAttempt(_ context.Context, id primitive.ObjectID, challengeID string, maxAttempts int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.OTP == nil || u.OTP.ChallengeID != challengeID || u.OTP.Attempts >= maxAttempts {
		return userstore.ErrChallengeChanged
	}
	u.OTP.Attempts++
	return nil
}

func (m *MemUsers) ConsumeOTP(_ context.Context, id primitive.ObjectID, challengeID string, maxAttempts int, addressVerified bool) (*models.User, error) {
	if hook := m.BeforeConsume; hook != nil {
		hook(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.OTP == nil || u.OTP.ChallengeID != challengeID ||
		u.OTP.Attempts >= maxAttempts || u.IsAddressVerified != addressVerified {
		return nil, userstore.ErrChallengeChanged
	}
	now := time.Now()
	u.OTP = nil
	u.IsPhoneVerified = true
	u.VerificationLevel = models.VerificationLevelFor(true, addressVerified)
	u.LastLoginAt = &now
	return clone(u), nil
}

func (m *MemUsers) SetAddress(_ context.Context, id, neighborhoodID primitive.ObjectID, addr models.Address, phoneVerified bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.IsPhoneVerified != phoneVerified {
		return nil, userstore.ErrNotFound
	}
	nb := neighborhoodID
	u.NeighborhoodID = &nb
	u.Address = &addr
	u.IsAddressVerified = true
	u.VerificationLevel = models.VerificationLevelFor(phoneVerified, true)
	return clone(u), nil
}

func (m *MemUsers) UpdateProfile(_ context.Context, id primitive.ObjectID, upd userstore.ProfileUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, userstore.ErrNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	return clone(u), nil
}

func (m *MemUsers) CountResidents(_ context.Context, neighborhoodID primitive.ObjectID) (int64, error) {
	return m.count(neighborhoodID, false), nil
}

func (m *MemUsers) CountVerifiedResidents(_ context.Context, neighborhoodID primitive.ObjectID) (int64, error) {
	return m.count(neighborhoodID, true), nil
}

func (m *MemUsers) count(nb primitive.ObjectID, verifiedOnly bool) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if u.NeighborhoodID == nil || *u.NeighborhoodID != nb || u.Status != models.StatusActive {
			continue
		}
		if verifiedOnly && !(u.IsPhoneVerified && u.IsAddressVerified) {
			continue
		}
		n++
	}
	return n
}

// MemNeighborhoods is an in-memory stand-in for neighborhoodstore.Store
// enforcing postal_code uniqueness.
type MemNeighborhoods struct {
	mu   sync.Mutex
	rows []models.Neighborhood

	// BeforeCreate, when set, runs before each insert with the lock released.
	// Tests use it to inject a competing insert.
	BeforeCreate func(n models.Neighborhood)
	// HideFromLookup makes GetByPostalCode miss this many times.
	HideFromLookup int
}

// NewMemNeighborhoods returns an empty MemNeighborhoods.
func NewMemNeighborhoods() *MemNeighborhoods {
	return &MemNeighborhoods{}
}

// Len reports how many neighborhoods are stored.
func (m *MemNeighborhoods) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *MemNeighborhoods) Create(_ context.Context, n models.Neighborhood) (models.Neighborhood, error) {
	if hook := m.BeforeCreate; hook != nil {
		hook(n)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.PostalCode == n.PostalCode {
			return models.Neighborhood{}, neighborhoodstore.ErrDuplicateNeighborhood
		}
	}
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	if n.Country == "" {
		n.Country = models.DefaultCountry
	}
	m.rows = append(m.rows, n)
	return n, nil
}

func (m *MemNeighborhoods) oldest(match func(models.Neighborhood) bool) (*models.Neighborhood, error) {
	var found []models.Neighborhood
	for _, r := range m.rows {
		if match(r) {
			found = append(found, r)
		}
	}
	if len(found) == 0 {
		return nil, neighborhoodstore.ErrNotFound
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].CreatedAt.Before(found[j].CreatedAt) })
	n := found[0]
	return &n, nil
}

func (m *MemNeighborhoods) GetByID(_ context.Context, id primitive.ObjectID) (*models.Neighborhood, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.oldest(func(n models.Neighborhood) bool { return n.ID == id })
}

func (m *MemNeighborhoods) GetByPostalCode(_ context.Context, postalCode string) (*models.Neighborhood, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.HideFromLookup > 0 {
		m.HideFromLookup--
		return nil, neighborhoodstore.ErrNotFound
	}
	return m.oldest(func(n models.Neighborhood) bool { return n.PostalCode == postalCode })
}

func (m *MemNeighborhoods) GetBySlug(_ context.Context, slug string) (*models.Neighborhood, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.oldest(func(n models.Neighborhood) bool { return n.Slug == slug })
}

func (m *MemNeighborhoods) FindByGeohashPrefix(_ context.Context, prefix string, limit int64) ([]models.Neighborhood, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Neighborhood
	for _, r := range m.rows {
		if strings.HasPrefix(r.Geohash, prefix) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Geohash < out[j].Geohash })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemNeighborhoods) SetStats(_ context.Context, id primitive.ObjectID, stats models.NeighborhoodStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i].Stats = stats
			return nil
		}
	}
	return neighborhoodstore.ErrNotFound
}

func (m *MemNeighborhoods) ListIDs(_ context.Context) ([]primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]primitive.ObjectID, 0, len(m.rows))
	for _, r := range m.rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// MemPosts counts active posts per neighborhood.
type MemPosts struct {
	mu     sync.Mutex
	Active map[primitive.ObjectID]int64
}

// NewMemPosts returns an empty MemPosts.
func NewMemPosts() *MemPosts {
	return &MemPosts{Active: map[primitive.ObjectID]int64{}}
}

// Add records n active posts in nb.
func (m *MemPosts) Add(nb primitive.ObjectID, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Active[nb] += n
}

func (m *MemPosts) CountActive(_ context.Context, nb primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Active[nb], nil
}
