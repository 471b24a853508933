package inputval

import (
	"strings"
	"testing"
)

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"9876543210", true},
		{"6000000000", true},
		{"7123456789", true},
		{"8123456789", true},

		// wrong leading digit
		{"5123456789", false},
		{"0123456789", false},

		// wrong length
		{"987654321", false},
		{"98765432101", false},

		{"", false},
		{"98765 4321", false},
		{"+919876543210", false},
		{"98765abcde", false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			got := IsValidPhone(tt.phone)
			if got != tt.want {
				t.Errorf("IsValidPhone(%q) = %v, want %v", tt.phone, got, tt.want)
			}
		})
	}
}

func TestIsValidPostalCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"560034", true},
		{"110001", true},
		{"56003", false},
		{"5600345", false},
		{"56003a", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got := IsValidPostalCode(tt.code)
			if got != tt.want {
				t.Errorf("IsValidPostalCode(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestIsValidOTP(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"123456", true},
		{"000000", true},
		{"12345", false},
		{"1234567", false},
		{"12345a", false},
		{"١٢٣٤٥٦", false}, // non-ASCII digits
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got := IsValidOTP(tt.code)
			if got != tt.want {
				t.Errorf("IsValidOTP(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestIsValidCoordinates(t *testing.T) {
	if !IsValidCoordinates(12.97, 77.59) {
		t.Error("expected Bengaluru coordinates to be valid")
	}
	if IsValidCoordinates(91, 0) {
		t.Error("expected lat 91 to be invalid")
	}
	if IsValidCoordinates(0, -181) {
		t.Error("expected lng -181 to be invalid")
	}
}

func TestErrors(t *testing.T) {
	errs := Errors{}
	if errs.Any() {
		t.Fatal("new Errors should be empty")
	}

	errs.Required("city", "  ")
	errs.Add("city", "second message")
	errs.MaxLen("bio", strings.Repeat("x", MaxBioLen+1), MaxBioLen)
	errs.MaxLen("name", "ok", MaxNameLen)

	if !errs.Any() {
		t.Fatal("expected errors")
	}
	if errs["city"] != "is required" {
		t.Errorf("city: got %q, want first message kept", errs["city"])
	}
	if errs["bio"] != "is too long" {
		t.Errorf("bio: got %q", errs["bio"])
	}
	if _, ok := errs["name"]; ok {
		t.Error("name should not have an error")
	}
}
