package userstore_test

import (
	"errors"
	"testing"
	"time"

	userstore "github.com/dalemusser/mohallahub/internal/app/store/users"
	"github.com/dalemusser/mohallahub/internal/app/system/indexes"
	"github.com/dalemusser/mohallahub/internal/domain/models"
	"github.com/dalemusser/mohallahub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func setup(t *testing.T) (*mongo.Database, *userstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return db, userstore.New(db)
}

func challenge(id string) models.OTPChallenge {
	now := time.Now().UTC()
	return models.OTPChallenge{
		ChallengeID: id,
		CodeHash:    "hash",
		ExpiresAt:   now.Add(10 * time.Minute),
		IssuedAt:    now,
	}
}

func TestStore_Create(t *testing.T) {
	_, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, "9876543210")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if u.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if u.Role != models.RoleUser || u.Status != models.StatusActive {
		t.Errorf("unexpected defaults: role=%q status=%q", u.Role, u.Status)
	}
	if u.VerificationLevel != models.LevelBasic {
		t.Errorf("expected level basic, got %q", u.VerificationLevel)
	}
	if u.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	got, err := store.GetByPhone(ctx, "9876543210")
	if err != nil {
		t.Fatalf("GetByPhone failed: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("GetByPhone returned %v, want %v", got.ID, u.ID)
	}
}

func TestStore_Create_DuplicatePhone(t *testing.T) {
	_, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, "9876543210"); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, "9876543210")
	if !errors.Is(err, userstore.ErrDuplicatePhone) {
		t.Errorf("expected ErrDuplicatePhone, got %v", err)
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	_, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByID(ctx, primitive.NewObjectID())
	if !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_OTPLifecycle(t *testing.T) {
	_, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, _ := store.Create(ctx, "9876543210")
	if err := store.SetOTP(ctx, u.ID, challenge("c1")); err != nil {
		t.Fatalf("SetOTP failed: %v", err)
	}

	if err := store.RecordFailedOTPAttempt(ctx, u.ID, "c1", 3); err != nil {
		t.Fatalf("RecordFailedOTPAttempt failed: %v", err)
	}
	got, _ := store.GetByID(ctx, u.ID)
	if got.OTP == nil || got.OTP.Attempts != 1 {
		t.Fatalf("expected 1 attempt, got %+v", got.OTP)
	}

	// Stale challenge id does not match.
	if _, err := store.ConsumeOTP(ctx, u.ID, "other", 3, false); !errors.Is(err, userstore.ErrChallengeChanged) {
		t.Errorf("expected ErrChallengeChanged for stale id, got %v", err)
	}

	consumed, err := store.ConsumeOTP(ctx, u.ID, "c1", 3, false)
	if err != nil {
		t.Fatalf("ConsumeOTP failed: %v", err)
	}
	if consumed.OTP != nil {
		t.Error("expected challenge to be cleared")
	}
	if !consumed.IsPhoneVerified || consumed.VerificationLevel != models.LevelPhone {
		t.Errorf("expected phone verified at level phone, got %v/%q", consumed.IsPhoneVerified, consumed.VerificationLevel)
	}
	if consumed.LastLoginAt == nil {
		t.Error("expected LastLoginAt to be set")
	}

	// Second consume of the same challenge fails.
	if _, err := store.ConsumeOTP(ctx, u.ID, "c1", 3, false); !errors.Is(err, userstore.ErrChallengeChanged) {
		t.Errorf("expected ErrChallengeChanged on second consume, got %v", err)
	}
}

func TestStore_RecordFailedOTPAttempt_StopsAtMax(t *testing.T) {
	_, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, _ := store.Create(ctx, "9876543210")
	_ = store.SetOTP(ctx, u.ID, challenge("c1"))

	for i := 0; i < 3; i++ {
		if err := store.RecordFailedOTPAttempt(ctx, u.ID, "c1", 3); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	if err := store.RecordFailedOTPAttempt(ctx, u.ID, "c1", 3); !errors.Is(err, userstore.ErrChallengeChanged) {
		t.Errorf("expected ErrChallengeChanged after max, got %v", err)
	}
	if _, err := store.ConsumeOTP(ctx, u.ID, "c1", 3, false); !errors.Is(err, userstore.ErrChallengeChanged) {
		t.Errorf("expected exhausted challenge to refuse consume, got %v", err)
	}

	got, _ := store.GetByID(ctx, u.ID)
	if got.OTP.Attempts != 3 {
		t.Errorf("expected attempts capped at 3, got %d", got.OTP.Attempts)
	}
}

func TestStore_SetOTP_NotFound(t *testing.T) {
	_, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.SetOTP(ctx, primitive.NewObjectID(), challenge("c1"))
	if !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_SetAddress(t *testing.T) {
	db, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	u := fx.CreateUser(ctx, testutil.NewUser("9876543210", true, false))
	nbID := primitive.NewObjectID()

	addr := models.Address{FullAddress: "12 MG Road", PostalCode: "560001", City: "Bengaluru", State: "Karnataka", Geohash: "tdr1v9q"}
	got, err := store.SetAddress(ctx, u.ID, nbID, addr, true)
	if err != nil {
		t.Fatalf("SetAddress failed: %v", err)
	}
	if !got.IsAddressVerified || got.NeighborhoodID == nil || *got.NeighborhoodID != nbID {
		t.Errorf("expected address verified in neighborhood %v, got %+v", nbID, got)
	}
	if got.VerificationLevel != models.LevelVerified {
		t.Errorf("expected level verified, got %q", got.VerificationLevel)
	}
	if got.Address == nil || got.Address.Geohash != "tdr1v9q" {
		t.Errorf("expected address copied, got %+v", got.Address)
	}
}

func TestStore_UpdateProfile(t *testing.T) {
	_, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, _ := store.Create(ctx, "9876543210")
	name := "Asha Rao"
	got, err := store.UpdateProfile(ctx, u.ID, userstore.ProfileUpdate{Name: &name})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if got.Name != name || got.Bio != "" {
		t.Errorf("unexpected profile: name=%q bio=%q", got.Name, got.Bio)
	}

	if _, err := store.UpdateProfile(ctx, primitive.NewObjectID(), userstore.ProfileUpdate{Name: &name}); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_CountResidents(t *testing.T) {
	db, store := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	nb := testutil.NewNeighborhood("Bengaluru", "560034", 12.9352, 77.6245)

	fx.CreateResident(ctx, "9000000001", nb)
	fx.CreateResident(ctx, "9000000002", nb)

	partial := testutil.NewUser("9000000003", false, true)
	partial.NeighborhoodID = &nb.ID
	fx.CreateUser(ctx, partial)

	suspended := testutil.NewUser("9000000004", true, true)
	suspended.NeighborhoodID = &nb.ID
	suspended.Status = models.StatusSuspended
	fx.CreateUser(ctx, suspended)

	residents, err := store.CountResidents(ctx, nb.ID)
	if err != nil {
		t.Fatalf("CountResidents failed: %v", err)
	}
	if residents != 3 {
		t.Errorf("expected 3 active residents, got %d", residents)
	}

	verified, err := store.CountVerifiedResidents(ctx, nb.ID)
	if err != nil {
		t.Fatalf("CountVerifiedResidents failed: %v", err)
	}
	if verified != 2 {
		t.Errorf("expected 2 verified residents, got %d", verified)
	}
}
