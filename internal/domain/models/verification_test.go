package models_test

import (
	"testing"

	"github.com/dalemusser/mohallahub/internal/domain/models"
)

func TestVerificationLevelFor(t *testing.T) {
	tests := []struct {
		phone, address bool
		want           string
	}{
		{false, false, models.LevelBasic},
		{true, false, models.LevelPhone},
		{false, true, models.LevelAddress},
		{true, true, models.LevelVerified},
	}

	for _, tt := range tests {
		got := models.VerificationLevelFor(tt.phone, tt.address)
		if got != tt.want {
			t.Errorf("VerificationLevelFor(%v, %v) = %q, want %q", tt.phone, tt.address, got, tt.want)
		}
	}
}

func TestUser_RefreshVerificationLevel(t *testing.T) {
	u := models.User{IsPhoneVerified: true}
	u.RefreshVerificationLevel()
	if u.VerificationLevel != models.LevelPhone {
		t.Errorf("level: got %q, want %q", u.VerificationLevel, models.LevelPhone)
	}

	u.IsAddressVerified = true
	u.RefreshVerificationLevel()
	if u.VerificationLevel != models.LevelVerified {
		t.Errorf("level: got %q, want %q", u.VerificationLevel, models.LevelVerified)
	}
}

func TestUser_IsActive(t *testing.T) {
	for status, want := range map[string]bool{
		models.StatusActive:    true,
		models.StatusSuspended: false,
		models.StatusDeleted:   false,
	} {
		u := models.User{Status: status}
		if u.IsActive() != want {
			t.Errorf("IsActive() with status %q = %v, want %v", status, u.IsActive(), want)
		}
	}
}
