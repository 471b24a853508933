// Package inputval validates wire-format inputs (phones, postal codes, OTP
// codes, coordinates) after normalization.
package inputval

import (
	"regexp"
	"strings"
)

var (
	phoneRe  = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	postalRe = regexp.MustCompile(`^[0-9]{6}$`)
	otpRe    = regexp.MustCompile(`^[0-9]{6}$`)
)

// Field length limits for free text.
const (
	MaxNameLen    = 80
	MaxBioLen     = 500
	MaxAddressLen = 300
	MaxCityLen    = 80
)

// IsValidPhone reports whether s is a 10-digit mobile number starting 6-9.
func IsValidPhone(s string) bool {
	return phoneRe.MatchString(s)
}

// IsValidPostalCode reports whether s is exactly 6 ASCII digits.
func IsValidPostalCode(s string) bool {
	return postalRe.MatchString(s)
}

// IsValidOTP reports whether s is exactly 6 ASCII digits.
func IsValidOTP(s string) bool {
	return otpRe.MatchString(s)
}

// IsValidCoordinates reports whether lat/lng are within WGS84 range.
func IsValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Errors collects field-level validation messages keyed by field name.
type Errors map[string]string

// Add records msg for field unless one is already present.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Required records a "required" error when s is blank.
func (e Errors) Required(field, s string) bool {
	if strings.TrimSpace(s) == "" {
		e.Add(field, "is required")
		return false
	}
	return true
}

// MaxLen records an error when s exceeds n runes.
func (e Errors) MaxLen(field, s string, n int) {
	if len([]rune(s)) > n {
		e.Add(field, "is too long")
	}
}

// Any reports whether at least one error was recorded.
func (e Errors) Any() bool { return len(e) > 0 }
