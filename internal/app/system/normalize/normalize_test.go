package normalize

import "testing"

func TestPhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"9876543210", "9876543210"},
		{"  98765 43210 ", "9876543210"},
		{"+91 98765-43210", "9876543210"},
		{"919876543210", "9876543210"},
		{"09876543210", "9876543210"},
		{"(987) 654.3210", "9876543210"},
		{"", ""},
		{"12345", "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Phone(tt.input)
			if got != tt.want {
				t.Errorf("Phone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestPostalCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"560034", "560034"},
		{" 560 034 ", "560034"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := PostalCode(tt.input)
			if got != tt.want {
				t.Errorf("PostalCode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Asha Rao", "Asha Rao"},
		{"  Asha   Rao  ", "Asha Rao"},
		{"", ""},
		{"UPPER", "UPPER"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Name(tt.input)
			if got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Koramangala 5th Block!!", "koramangala-5th-block"},
		{"Bengaluru - 560034", "bengaluru-560034"},
		{"  --Indiranagar--  ", "indiranagar"},
		{"HSR Layout, Sector 2", "hsr-layout-sector-2"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Slug(tt.input)
			if got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRole(t *testing.T) {
	if got := Role("  Admin "); got != "admin" {
		t.Errorf("Role() = %q, want %q", got, "admin")
	}
}
