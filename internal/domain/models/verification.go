// internal/domain/models/verification.go
package models

// Verification levels, from least to most verified.
const (
	LevelBasic    = "basic"
	LevelPhone    = "phone"
	LevelAddress  = "address"
	LevelVerified = "verified"
)

// VerificationLevelFor derives a user's verification level from the phone
// and address flags. It is pure so stores and services can call it after any
// flag mutation.
func VerificationLevelFor(phoneVerified, addressVerified bool) string {
	switch {
	case phoneVerified && addressVerified:
		return LevelVerified
	case addressVerified:
		return LevelAddress
	case phoneVerified:
		return LevelPhone
	default:
		return LevelBasic
	}
}
